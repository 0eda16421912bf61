package uploads

import (
	"context"
	"log/slog"
	"sync"

	"github.com/clipforge/backend/internal/models"
)

// QueueConfig controls queue capacity. The worker count is fixed at one:
// files from the same caller upload strictly one at a time so a single client
// cannot saturate its own bandwidth or the remote host's rate limits.
type QueueConfig struct {
	QueueSize int
}

// Queue feeds files through the upload pipeline sequentially and publishes
// transfer state changes on a channel.
type Queue struct {
	pipeline *Pipeline
	logger   *slog.Logger

	jobs    chan File
	updates chan models.TransferState
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	once    sync.Once
}

// NewQueue constructs the sequential upload worker.
func NewQueue(pipeline *Pipeline, cfg QueueConfig, logger *slog.Logger) *Queue {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	q := &Queue{
		pipeline: pipeline,
		logger:   logger,
		jobs:     make(chan File, cfg.QueueSize),
		updates:  make(chan models.TransferState, cfg.QueueSize*4),
		ctx:      ctx,
		cancel:   cancel,
	}

	q.wg.Add(1)
	go q.worker()

	return q
}

// Enqueue schedules a file for upload. It blocks when the queue is full.
func (q *Queue) Enqueue(ctx context.Context, file File) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-q.ctx.Done():
		return errQueueClosed
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-q.ctx.Done():
		return errQueueClosed
	case q.jobs <- file:
		return nil
	}
}

// Updates exposes the transfer state stream. The channel closes once the
// queue has fully shut down.
func (q *Queue) Updates() <-chan models.TransferState {
	return q.updates
}

// Shutdown cancels in-flight work and waits for the worker to drain.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.once.Do(func() {
		q.cancel()
		close(q.jobs)
	})

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(q.updates)
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()

	for {
		select {
		case <-q.ctx.Done():
			return
		case file, ok := <-q.jobs:
			if !ok {
				return
			}
			q.handle(file)
		}
	}
}

func (q *Queue) handle(file File) {
	assetRef, err := q.pipeline.Run(q.ctx, file, q.publish)
	if err != nil {
		q.logger.Error("upload failed", "fileId", file.ID, "name", file.Name, "error", err)
		return
	}
	q.logger.Info("upload verified", "fileId", file.ID, "name", file.Name, "assetRef", assetRef)
}

func (q *Queue) publish(state models.TransferState) {
	if state.Status == models.TransferVerified || state.Status == models.TransferFailed {
		// Terminal states must reach the subscriber.
		select {
		case q.updates <- state:
		case <-q.ctx.Done():
		}
		return
	}

	select {
	case q.updates <- state:
	default:
		// A slow subscriber drops intermediate progress, never blocks the upload.
	}
}
