package app

import (
	"github.com/Sateviss/youtube-archive/internal/domain"
	"go.uber.org/zap"
)

// ChannelInput is a listed channel ready for reconciliation
type ChannelInput struct {
	Spec    domain.ChannelSpec
	Window  domain.DateWindow
	Listing *domain.ChannelListing
}

// InfoTask is a video whose metadata must be fetched before it can be judged
type InfoTask struct {
	domain.Task
	RawURL string
}

// Plan is the outcome of reconciling fresh listings against the stored state
type Plan struct {
	GetInfo  []InfoTask
	Download []domain.Task

	Skipped    int // already downloaded
	Resumed    int // interrupted downloads
	Staged     int // checked and in range
	OutOfRange int // checked but outside the window
}

// Reconciler classifies listed videos against the persisted state
type Reconciler struct {
	logger *zap.Logger
}

// NewReconciler creates a new reconciler
func NewReconciler(logger *zap.Logger) *Reconciler {
	return &Reconciler{logger: logger}
}

// Reconcile classifies every listed video and persists new channel records
// and refreshed channel titles before returning the plan.
func (r *Reconciler) Reconcile(store *StateStore, inputs []ChannelInput) (*Plan, error) {
	var plan *Plan
	err := store.MutateAndPersist(func(state domain.State) error {
		plan = r.classify(state, inputs)
		return nil
	}, nil)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (r *Reconciler) classify(state domain.State, inputs []ChannelInput) *Plan {
	plan := &Plan{}

	for _, in := range inputs {
		channelURL := in.Spec.URL

		channel, ok := state[channelURL]
		if !ok {
			channel = domain.NewChannelRecord(channelURL, in.Listing.Title)
			state[channelURL] = channel
			r.logger.Debug("New channel", zap.String("channel_url", channelURL), zap.String("title", in.Listing.Title))
		}
		channel.Title = in.Listing.Title

		for _, entry := range in.Listing.Entries {
			task := domain.Task{ChannelURL: channelURL, VideoID: entry.ID}
			record, known := channel.Videos[entry.ID]
			if !known {
				plan.GetInfo = append(plan.GetInfo, InfoTask{Task: task, RawURL: entry.RawURL})
				continue
			}

			switch record.Status {
			case domain.StatusDownloaded:
				plan.Skipped++

			case domain.StatusDownloading:
				plan.Resumed++
				plan.Download = append(plan.Download, task)
				r.logger.Debug("Resuming interrupted download",
					zap.String("channel_url", channelURL),
					zap.String("video_id", entry.ID),
					zap.String("title", record.Title))

			default:
				inRange, err := in.Window.Contains(record.Date)
				if err != nil {
					r.logger.Debug("Video date unknown, not in date range",
						zap.String("channel_url", channelURL),
						zap.String("video_id", entry.ID),
						zap.Error(err))
				}
				if !inRange {
					plan.OutOfRange++
					continue
				}
				plan.Staged++
				plan.Download = append(plan.Download, task)
			}
		}

		r.logger.Info("Channel reconciled",
			zap.String("channel_url", channelURL),
			zap.String("title", channel.Title),
			zap.Int("listed", len(in.Listing.Entries)),
			zap.Int("known", len(channel.Videos)))
	}

	return plan
}
