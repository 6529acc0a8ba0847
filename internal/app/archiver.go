package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/Sateviss/youtube-archive/internal/domain"
	"github.com/Sateviss/youtube-archive/pkg/logger"
)

// Exit codes of an archive run
const (
	ExitOK             = 0
	ExitFatal          = 1
	ExitListingFailure = 2
)

// Notifier is told about run outcomes
type Notifier interface {
	NotifyRunFinished(downloaded, failed, listingFailures int)
	NotifyListingFailed(channelURL string)
}

// RunSummary describes one archive run
type RunSummary struct {
	RunID           string        `json:"run_id"`
	Channels        int           `json:"channels"`
	ListingFailures int           `json:"listing_failures"`
	Skipped         int           `json:"skipped"`
	Resumed         int           `json:"resumed"`
	Staged          int           `json:"staged"`
	OutOfRange      int           `json:"out_of_range"`
	InfoRequested   int           `json:"info_requested"`
	InfoFailed      int           `json:"info_failed"`
	InfoQueued      int           `json:"info_queued"`
	Downloaded      int           `json:"downloaded"`
	DownloadFailed  int           `json:"download_failed"`
	Duration        time.Duration `json:"duration"`
}

// ExitCode maps the summary to the process exit status
func (s *RunSummary) ExitCode() int {
	if s.ListingFailures > 0 {
		return ExitListingFailure
	}
	return ExitOK
}

// Fields returns the summary as log fields
func (s *RunSummary) Fields() []zap.Field {
	return []zap.Field{
		zap.String("run_id", s.RunID),
		zap.Int("channels", s.Channels),
		zap.Int("listing_failures", s.ListingFailures),
		zap.Int("skipped", s.Skipped),
		zap.Int("resumed", s.Resumed),
		zap.Int("staged", s.Staged),
		zap.Int("out_of_range", s.OutOfRange),
		zap.Int("info_requested", s.InfoRequested),
		zap.Int("info_failed", s.InfoFailed),
		zap.Int("info_queued", s.InfoQueued),
		zap.Int("downloaded", s.Downloaded),
		zap.Int("download_failed", s.DownloadFailed),
		zap.Duration("duration", s.Duration),
	}
}

// Archiver runs the list, reconcile, fetch info and download phases
type Archiver struct {
	config   *domain.Config
	store    *StateStore
	client   domain.VideoPlatformClient
	notifier Notifier
	events   *logger.MultiLogger
	logger   *zap.Logger
	now      func() time.Time
}

// NewArchiver creates a new archiver. notifier and events may be nil.
func NewArchiver(
	config *domain.Config,
	store *StateStore,
	client domain.VideoPlatformClient,
	notifier Notifier,
	events *logger.MultiLogger,
	logger *zap.Logger,
) *Archiver {
	return &Archiver{
		config:   config,
		store:    store,
		client:   client,
		notifier: notifier,
		events:   events,
		logger:   logger,
		now:      time.Now,
	}
}

// Run performs one archive run over the configured channel list.
// Per-video failures are counted in the summary; an error is returned only
// when the run could not proceed.
func (a *Archiver) Run(ctx context.Context) (*RunSummary, error) {
	started := a.now()
	summary := &RunSummary{RunID: uuid.New().String()}
	log := a.logger.With(zap.String("run_id", summary.RunID))

	a.event("run_started", zap.String("run_id", summary.RunID), zap.String("channel_list", a.config.Archive.ChannelList))

	specs, err := LoadChannelList(a.config.Archive.ChannelList, started)
	if err != nil {
		var lineErrs *multierror.Error
		if !errors.As(err, &lineErrs) {
			a.appError("Failed to load channel list", zap.String("run_id", summary.RunID), zap.Error(err))
			return nil, err
		}
		for _, lineErr := range lineErrs.Errors {
			log.Warn("Skipping channel list line", zap.Error(lineErr))
		}
	}
	summary.Channels = len(specs)

	inputs, windows := a.listChannels(ctx, log, specs, started, summary)

	plan, err := NewReconciler(log).Reconcile(a.store, inputs)
	if err != nil {
		a.appError("Failed to persist reconciled state", zap.String("run_id", summary.RunID), zap.Error(err))
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	summary.Skipped = plan.Skipped
	summary.Resumed = plan.Resumed
	summary.Staged = plan.Staged
	summary.OutOfRange = plan.OutOfRange

	log.Info("Reconciled channels",
		zap.Int("get_info", len(plan.GetInfo)),
		zap.Int("download", len(plan.Download)),
		zap.Int("skipped", plan.Skipped),
		zap.Int("resumed", plan.Resumed),
		zap.Int("out_of_range", plan.OutOfRange))

	queue := NewDownloadQueue(plan.Download...)

	codes := a.config.Geo.BypassCountries
	infoResult := NewInfoPool(a.store, a.client, codes, a.config.Workers.Info, log).
		Run(ctx, plan.GetInfo, windows, queue)
	summary.InfoRequested = infoResult.Requested
	summary.InfoFailed = infoResult.Failed
	summary.InfoQueued = infoResult.Queued
	summary.OutOfRange += infoResult.OutOfRange

	tasks := queue.Tasks()
	log.Info("Fetched video info",
		zap.Int("requested", infoResult.Requested),
		zap.Int("failed", infoResult.Failed),
		zap.Int("queued", infoResult.Queued),
		zap.Int("download_list", len(tasks)))

	downloadResult := NewDownloadPool(a.store, a.client, codes, a.config.Archive.DownloadOptions(), a.config.Workers.Download, log).
		Run(ctx, tasks)
	summary.Downloaded = downloadResult.Downloaded
	summary.DownloadFailed = downloadResult.Failed
	summary.Skipped += downloadResult.Skipped

	summary.Duration = a.now().Sub(started)
	log.Info("Archive run finished", summary.Fields()...)
	a.event("run_finished", summary.Fields()...)

	if a.notifier != nil {
		a.notifier.NotifyRunFinished(summary.Downloaded, summary.InfoFailed+summary.DownloadFailed, summary.ListingFailures)
	}

	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("run interrupted: %w", err)
	}
	return summary, nil
}

// listChannels lists every channel and resolves its date window.
// Channels that fail are counted and left out of the result.
func (a *Archiver) listChannels(ctx context.Context, log *zap.Logger, specs []domain.ChannelSpec, now time.Time, summary *RunSummary) ([]ChannelInput, map[string]domain.DateWindow) {
	inputs := make([]ChannelInput, 0, len(specs))
	windows := make(map[string]domain.DateWindow, len(specs))

	for _, spec := range specs {
		if ctx.Err() != nil {
			break
		}

		window, err := domain.NewDateWindow(spec, now)
		if err != nil {
			log.Warn("Skipping channel with invalid dates", zap.String("channel_url", spec.URL), zap.Error(err))
			continue
		}

		log.Info("Listing channel", zap.String("channel_url", spec.URL))
		listing, err := a.client.ListChannelVideos(ctx, spec.URL)
		if err != nil {
			summary.ListingFailures++
			log.Error("Failed to list channel", zap.String("channel_url", spec.URL), zap.Error(err))
			a.appError("Failed to list channel",
				zap.String("run_id", summary.RunID),
				zap.String("channel_url", spec.URL),
				zap.Error(err))
			if a.notifier != nil {
				a.notifier.NotifyListingFailed(spec.URL)
			}
			continue
		}

		a.event("channel_listed",
			zap.String("run_id", summary.RunID),
			zap.String("channel_url", spec.URL),
			zap.String("title", listing.Title),
			zap.Int("videos", len(listing.Entries)))

		inputs = append(inputs, ChannelInput{Spec: spec, Window: window, Listing: listing})
		windows[spec.URL] = window
	}

	return inputs, windows
}

func (a *Archiver) event(event string, fields ...zap.Field) {
	if a.events != nil {
		a.events.LogRunEvent(event, fields...)
	}
}

func (a *Archiver) appError(msg string, fields ...zap.Field) {
	if a.events != nil {
		a.events.LogAppError(msg, fields...)
	}
}
