package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/chonkit/internal/core/domain"
	"github.com/custodia-labs/chonkit/internal/core/ports/driven"
	"github.com/custodia-labs/chonkit/internal/core/ports/driving"
)

// embedLockTTL bounds how long a per-document-collection embed lock is held
// before it auto-expires, in case a worker dies mid-embed without releasing it.
const embedLockTTL = 15 * time.Minute

// Worker processes embed tasks from the task queue, driving the pipeline
// orchestrator's Embed operation in a bounded pool of goroutines.
type Worker struct {
	taskQueue driven.TaskQueue
	pipeline  driving.Pipeline
	lock      driven.DistributedLock
	logger    *slog.Logger

	concurrency    int
	dequeueTimeout time.Duration

	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// Config holds configuration for the worker.
type Config struct {
	TaskQueue      driven.TaskQueue
	Pipeline       driving.Pipeline
	Lock           driven.DistributedLock // serializes concurrent Embed calls for the same (document, collection) pair
	Logger         *slog.Logger
	Concurrency    int           // number of concurrent task processors
	DequeueTimeout time.Duration // how long to wait for a task before polling again
}

// NewWorker creates a new embed task worker.
func NewWorker(cfg Config) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	dequeueTimeout := cfg.DequeueTimeout
	if dequeueTimeout <= 0 {
		dequeueTimeout = 5 * time.Second
	}

	return &Worker{
		taskQueue:      cfg.TaskQueue,
		pipeline:       cfg.Pipeline,
		lock:           cfg.Lock,
		logger:         logger,
		concurrency:    concurrency,
		dequeueTimeout: dequeueTimeout,
	}
}

// Start begins the worker loop. It runs until Stop is called or ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("worker starting", "concurrency", w.concurrency, "dequeue_timeout", w.dequeueTimeout)

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.processLoop(ctx, workerID)
		}(i)
	}

	go func() {
		wg.Wait()
		close(w.doneCh)
	}()

	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("worker stopped")
}

// Wait blocks until the worker stops.
func (w *Worker) Wait() {
	<-w.doneCh
}

func (w *Worker) processLoop(ctx context.Context, workerID int) {
	logger := w.logger.With("worker_id", workerID)
	logger.Info("worker goroutine started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("worker context cancelled")
			return
		case <-w.stopCh:
			logger.Info("worker stop signal received")
			return
		default:
		}

		task, err := w.taskQueue.Dequeue(ctx, w.dequeueTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logger.Error("failed to dequeue task", "error", err)
			time.Sleep(time.Second)
			continue
		}

		if task == nil {
			continue
		}

		w.processTask(ctx, task, logger)
	}
}

func (w *Worker) processTask(ctx context.Context, task *domain.Task, logger *slog.Logger) {
	logger = logger.With("task_id", task.ID, "task_type", task.Type,
		"document_id", task.DocumentID, "collection_id", task.CollectionID)
	logger.Info("processing task")

	start := time.Now()

	var err error
	switch task.Type {
	case domain.TaskTypeEmbed:
		err = w.embedLocked(ctx, task, logger)
	default:
		err = fmt.Errorf("unknown task type: %s", task.Type)
	}

	duration := time.Since(start)

	if err != nil {
		logger.Error("task failed", "duration", duration, "error", err)
		if nackErr := w.taskQueue.Nack(ctx, task.ID, err.Error()); nackErr != nil {
			logger.Error("failed to nack task", "nack_error", nackErr)
		}
		return
	}

	logger.Info("task completed", "duration", duration)
	if ackErr := w.taskQueue.Ack(ctx, task.ID); ackErr != nil {
		logger.Error("failed to ack task", "ack_error", ackErr)
	}
}

// embedLocked runs the pipeline's Embed operation under a distributed lock
// keyed by (document_id, collection_id), so two workers racing to process the
// same task (or a retried duplicate) never embed the same document into the
// same collection concurrently, per the concurrency model's single-writer
// requirement for a given document/collection pair.
func (w *Worker) embedLocked(ctx context.Context, task *domain.Task, logger *slog.Logger) error {
	if w.lock == nil {
		return w.pipeline.Embed(ctx, task.DocumentID, task.CollectionID)
	}

	name := embedLockName(task.DocumentID, task.CollectionID)
	acquired, err := w.lock.Acquire(ctx, name, embedLockTTL)
	if err != nil {
		return fmt.Errorf("acquire embed lock: %w", err)
	}
	if !acquired {
		return fmt.Errorf("%w: embed already in progress for this document/collection", domain.ErrConflict)
	}
	defer func() {
		if releaseErr := w.lock.Release(ctx, name); releaseErr != nil {
			logger.Error("failed to release embed lock", "lock_name", name, "error", releaseErr)
		}
	}()

	return w.pipeline.Embed(ctx, task.DocumentID, task.CollectionID)
}

func embedLockName(documentID, collectionID string) string {
	return fmt.Sprintf("embed:%s:%s", documentID, collectionID)
}

// Health reports the worker's running state and queue connectivity.
type Health struct {
	Running     bool   `json:"running"`
	QueueHealth bool   `json:"queue_health"`
	Error       string `json:"error,omitempty"`
}

func (w *Worker) Health(ctx context.Context) Health {
	w.mu.RLock()
	running := w.running
	w.mu.RUnlock()

	health := Health{Running: running}
	if err := w.taskQueue.Ping(ctx); err != nil {
		health.QueueHealth = false
		health.Error = err.Error()
	} else {
		health.QueueHealth = true
	}
	return health
}
