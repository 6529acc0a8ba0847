package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/Sateviss/youtube-archive/internal/domain"
)

var errAlreadyDownloaded = errors.New("video already downloaded")

// DownloadResult counts the outcomes of the download phase
type DownloadResult struct {
	Downloaded int
	Failed     int
	Skipped    int
}

// DownloadPool downloads queued videos with a bounded set of workers
type DownloadPool struct {
	store   *StateStore
	client  domain.VideoPlatformClient
	codes   []string
	options domain.DownloadOptions
	workers int
	logger  *zap.Logger
}

// NewDownloadPool creates a new download worker pool
func NewDownloadPool(store *StateStore, client domain.VideoPlatformClient, codes []string, options domain.DownloadOptions, workers int, logger *zap.Logger) *DownloadPool {
	return &DownloadPool{
		store:   store,
		client:  client,
		codes:   codes,
		options: options,
		workers: workers,
		logger:  logger,
	}
}

// Run downloads every task and returns once all workers are done
func (p *DownloadPool) Run(ctx context.Context, tasks []domain.Task) DownloadResult {
	var downloaded, failed, skipped atomic.Int64

	wp := pool.New().WithMaxGoroutines(p.workers)
	for _, task := range tasks {
		task := task
		wp.Go(func() {
			if ctx.Err() != nil {
				failed.Add(1)
				return
			}
			err := p.process(ctx, task)
			switch {
			case err == nil:
				downloaded.Add(1)
			case errors.Is(err, errAlreadyDownloaded):
				skipped.Add(1)
			default:
				failed.Add(1)
			}
		})
	}
	wp.Wait()

	return DownloadResult{
		Downloaded: int(downloaded.Load()),
		Failed:     int(failed.Load()),
		Skipped:    int(skipped.Load()),
	}
}

// process moves one video through downloading to downloaded.
// Any failure after the first transition leaves it downloading for the next run.
func (p *DownloadPool) process(ctx context.Context, task domain.Task) (err error) {
	var title, videoURL string

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Unexpected failure while downloading video",
				zap.String("title", title),
				zap.String("channel_url", task.ChannelURL),
				zap.String("video_id", task.VideoID),
				zap.Any("error", r))
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	err = p.store.MutateAndPersist(func(state domain.State) error {
		record := state.Video(task.ChannelURL, task.VideoID)
		if record == nil {
			return fmt.Errorf("%w: %s/%s", domain.ErrRecordNotFound, task.ChannelURL, task.VideoID)
		}
		if record.Status == domain.StatusDownloaded {
			return errAlreadyDownloaded
		}
		record.Status = domain.StatusDownloading
		title, videoURL = record.Title, record.URL
		return nil
	}, nil)
	switch {
	case errors.Is(err, errAlreadyDownloaded):
		p.logger.Debug("Video already downloaded, skipping",
			zap.String("channel_url", task.ChannelURL),
			zap.String("video_id", task.VideoID))
		return err
	case errors.Is(err, domain.ErrRecordNotFound):
		p.logger.Warn("Video record missing, skipping download",
			zap.String("channel_url", task.ChannelURL),
			zap.String("video_id", task.VideoID))
		return err
	case err != nil:
		p.logger.Error("Failed to mark video downloading",
			zap.String("title", title),
			zap.String("channel_url", task.ChannelURL),
			zap.String("video_id", task.VideoID),
			zap.Error(err))
		return err
	}

	if videoURL == "" {
		videoURL = task.VideoID
	}

	log := p.logger.With(
		zap.String("title", title),
		zap.String("channel_url", task.ChannelURL),
		zap.String("video_id", task.VideoID))
	log.Info("Downloading video", zap.String("url", videoURL))

	_, err = FirstSuccess(p.codes, func(code string) (struct{}, error) {
		return struct{}{}, p.client.DownloadVideo(ctx, videoURL, code, p.options)
	}, func(code string, err error) {
		log.Warn("Download failed in country", zap.String("country", code), zap.Error(err))
	})
	if err != nil {
		if ctx.Err() != nil {
			log.Warn("Download interrupted, will resume next run", zap.Error(ctx.Err()))
		} else {
			log.Warn("Video blocked in all countries on the list", zap.Error(err))
		}
		return err
	}

	err = p.store.MutateAndPersist(func(state domain.State) error {
		record := state.Video(task.ChannelURL, task.VideoID)
		if record == nil {
			return fmt.Errorf("%w: %s/%s", domain.ErrRecordNotFound, task.ChannelURL, task.VideoID)
		}
		record.Status = domain.StatusDownloaded
		return nil
	}, nil)
	if err != nil {
		log.Error("Failed to mark video downloaded", zap.Error(err))
		return err
	}

	log.Info("Video downloaded")
	return nil
}
