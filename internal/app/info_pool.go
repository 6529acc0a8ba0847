package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/Sateviss/youtube-archive/internal/domain"
)

// DownloadQueue collects tasks discovered while the metadata phase runs
type DownloadQueue struct {
	mu    sync.Mutex
	tasks []domain.Task
}

// NewDownloadQueue creates a queue seeded with tasks
func NewDownloadQueue(tasks ...domain.Task) *DownloadQueue {
	return &DownloadQueue{tasks: append([]domain.Task(nil), tasks...)}
}

// Push appends a task
func (q *DownloadQueue) Push(task domain.Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
}

// Tasks returns a copy of the queued tasks in insertion order
func (q *DownloadQueue) Tasks() []domain.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]domain.Task(nil), q.tasks...)
}

// Len returns the number of queued tasks
func (q *DownloadQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// InfoResult counts the outcomes of the metadata phase
type InfoResult struct {
	Requested  int
	Failed     int
	Queued     int
	OutOfRange int
}

// InfoPool fetches metadata for unknown videos with a bounded set of workers
type InfoPool struct {
	store   *StateStore
	client  domain.VideoPlatformClient
	codes   []string
	workers int
	logger  *zap.Logger
}

// NewInfoPool creates a new metadata worker pool
func NewInfoPool(store *StateStore, client domain.VideoPlatformClient, codes []string, workers int, logger *zap.Logger) *InfoPool {
	return &InfoPool{
		store:   store,
		client:  client,
		codes:   codes,
		workers: workers,
		logger:  logger,
	}
}

// Run processes every task and returns once all workers are done.
// Videos found to be in range are pushed to queue.
func (p *InfoPool) Run(ctx context.Context, tasks []InfoTask, windows map[string]domain.DateWindow, queue *DownloadQueue) InfoResult {
	var failed, queued, outOfRange atomic.Int64

	wp := pool.New().WithMaxGoroutines(p.workers)
	for _, task := range tasks {
		task := task
		wp.Go(func() {
			if ctx.Err() != nil {
				failed.Add(1)
				return
			}
			switch p.process(ctx, task, windows[task.ChannelURL], queue) {
			case infoQueued:
				queued.Add(1)
			case infoOutOfRange:
				outOfRange.Add(1)
			default:
				failed.Add(1)
			}
		})
	}
	wp.Wait()

	return InfoResult{
		Requested:  len(tasks),
		Failed:     int(failed.Load()),
		Queued:     int(queued.Load()),
		OutOfRange: int(outOfRange.Load()),
	}
}

type infoOutcome int

const (
	infoFailed infoOutcome = iota
	infoQueued
	infoOutOfRange
)

func (p *InfoPool) process(ctx context.Context, task InfoTask, window domain.DateWindow, queue *DownloadQueue) (outcome infoOutcome) {
	log := p.logger.With(
		zap.String("channel_url", task.ChannelURL),
		zap.String("video_id", task.VideoID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("Unexpected failure while fetching video info", zap.Any("panic", r))
			outcome = infoFailed
		}
	}()

	meta, err := FirstSuccess(p.codes, func(code string) (*domain.VideoMetadata, error) {
		return p.client.FetchVideoMetadata(ctx, task.RawURL, code)
	}, func(code string, err error) {
		log.Warn("Video blocked in country", zap.String("country", code), zap.Error(err))
	})
	if err != nil {
		log.Warn("Video blocked in all countries on the list", zap.Error(err))
		return infoFailed
	}

	var inRange bool
	err = p.store.MutateAndPersist(func(state domain.State) error {
		channel, ok := state[task.ChannelURL]
		if !ok {
			return fmt.Errorf("%w: channel %s", domain.ErrRecordNotFound, task.ChannelURL)
		}
		record, exists := channel.Videos[task.VideoID]
		if !exists {
			record = &domain.VideoRecord{Status: domain.StatusChecked}
			channel.Videos[task.VideoID] = record
		}
		record.Title = meta.Title
		record.Date = meta.UploadDate
		record.URL = meta.WebpageURL

		var dateErr error
		inRange, dateErr = window.Contains(record.Date)
		if dateErr != nil {
			log.Debug("Video date unknown", zap.Error(dateErr))
		}
		return nil
	}, func() {
		if inRange {
			queue.Push(task.Task)
			log.Debug("Video added to download list", zap.String("title", meta.Title), zap.String("date", meta.UploadDate))
		} else {
			log.Debug("Video not in date range", zap.String("title", meta.Title), zap.String("date", meta.UploadDate))
		}
	})
	if err != nil {
		log.Error("Failed to record video info", zap.String("title", meta.Title), zap.Error(err))
		return infoFailed
	}

	if inRange {
		return infoQueued
	}
	return infoOutOfRange
}
