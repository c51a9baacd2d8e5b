package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chonkit/internal/core/domain"
	"github.com/custodia-labs/chonkit/internal/core/ports/driven"
	"github.com/custodia-labs/chonkit/internal/core/ports/driving"
)

// mockTaskQueue implements driven.TaskQueue for testing.
type mockTaskQueue struct {
	mu           sync.Mutex
	tasks        []*domain.Task
	dequeueDelay time.Duration
	dequeueFn    func() (*domain.Task, error)
	ackFn        func(string) error
	nackFn       func(string, string) error
	pingFn       func() error
}

func newMockTaskQueue() *mockTaskQueue {
	return &mockTaskQueue{tasks: make([]*domain.Task, 0)}
}

func (m *mockTaskQueue) Enqueue(ctx context.Context, task *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, task)
	return nil
}

func (m *mockTaskQueue) Dequeue(ctx context.Context, timeout time.Duration) (*domain.Task, error) {
	if m.dequeueDelay > 0 {
		select {
		case <-time.After(m.dequeueDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.dequeueFn != nil {
		return m.dequeueFn()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.tasks) == 0 {
		return nil, nil
	}
	task := m.tasks[0]
	m.tasks = m.tasks[1:]
	return task, nil
}

func (m *mockTaskQueue) Ack(ctx context.Context, taskID string) error {
	if m.ackFn != nil {
		return m.ackFn(taskID)
	}
	return nil
}

func (m *mockTaskQueue) Nack(ctx context.Context, taskID, reason string) error {
	if m.nackFn != nil {
		return m.nackFn(taskID, reason)
	}
	return nil
}

func (m *mockTaskQueue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.ID == taskID {
			return t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockTaskQueue) ListTasks(ctx context.Context, filter driven.TaskFilter) ([]*domain.Task, error) {
	return m.tasks, nil
}

func (m *mockTaskQueue) CancelTask(ctx context.Context, taskID string) error { return nil }

func (m *mockTaskQueue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	return &driven.QueueStats{PendingCount: int64(len(m.tasks))}, nil
}

func (m *mockTaskQueue) Ping(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn()
	}
	return nil
}

func (m *mockTaskQueue) Close() error { return nil }

var _ driven.TaskQueue = (*mockTaskQueue)(nil)

// pipelineStub implements driving.Pipeline, exercising only Embed for these tests.
type pipelineStub struct {
	embedFn func(ctx context.Context, documentID, collectionID string) error
}

var _ driving.Pipeline = (*pipelineStub)(nil)

func (p *pipelineStub) Upload(ctx context.Context, in driving.UploadInput) (*domain.Document, error) {
	return nil, nil
}

func (p *pipelineStub) Configure(ctx context.Context, documentID string, parse *domain.ParseConfig, chunk *domain.ChunkConfig) error {
	return nil
}

func (p *pipelineStub) Preview(ctx context.Context, documentID string, parse *domain.ParseConfig, chunk *domain.ChunkConfig) ([]string, error) {
	return nil, nil
}

func (p *pipelineStub) Embed(ctx context.Context, documentID, collectionID string) error {
	if p.embedFn != nil {
		return p.embedFn(ctx, documentID, collectionID)
	}
	return nil
}

func (p *pipelineStub) DeleteDocument(ctx context.Context, documentID string) error { return nil }

func (p *pipelineStub) DeleteCollection(ctx context.Context, collectionID string) error { return nil }

func (p *pipelineStub) Search(ctx context.Context, collectionID, queryText string, k int) ([]driving.SearchHit, error) {
	return nil, nil
}

// mockLock implements driven.DistributedLock for testing.
type mockLock struct {
	mu        sync.Mutex
	held      map[string]bool
	acquired  []string
	released  []string
	acquireFn func(name string) (bool, error)
}

func newMockLock() *mockLock {
	return &mockLock{held: make(map[string]bool)}
}

func (m *mockLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.acquireFn != nil {
		ok, err := m.acquireFn(name)
		if ok {
			m.held[name] = true
			m.acquired = append(m.acquired, name)
		}
		return ok, err
	}
	if m.held[name] {
		return false, nil
	}
	m.held[name] = true
	m.acquired = append(m.acquired, name)
	return true, nil
}

func (m *mockLock) Release(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, name)
	m.released = append(m.released, name)
	return nil
}

func (m *mockLock) Extend(ctx context.Context, name string, ttl time.Duration) error { return nil }

func (m *mockLock) Ping(ctx context.Context) error { return nil }

var _ driven.DistributedLock = (*mockLock)(nil)

func TestWorkerEmbedLockedAcquiresAndReleases(t *testing.T) {
	queue := newMockTaskQueue()
	lock := newMockLock()

	var gotDoc, gotColl string
	pipeline := &pipelineStub{
		embedFn: func(ctx context.Context, documentID, collectionID string) error {
			gotDoc, gotColl = documentID, collectionID
			assert.True(t, lock.held["embed:doc-1:coll-1"], "lock must be held while Embed runs")
			return nil
		},
	}

	task := &domain.Task{ID: "task-1", Type: domain.TaskTypeEmbed, DocumentID: "doc-1", CollectionID: "coll-1"}
	w := NewWorker(Config{TaskQueue: queue, Pipeline: pipeline, Lock: lock})
	require.NoError(t, w.embedLocked(context.Background(), task, w.logger))

	assert.Equal(t, "doc-1", gotDoc)
	assert.Equal(t, "coll-1", gotColl)
	assert.Equal(t, []string{"embed:doc-1:coll-1"}, lock.acquired)
	assert.Equal(t, []string{"embed:doc-1:coll-1"}, lock.released)
	assert.False(t, lock.held["embed:doc-1:coll-1"])
}

func TestWorkerEmbedLockedSkipsWhenAlreadyHeld(t *testing.T) {
	queue := newMockTaskQueue()
	lock := newMockLock()
	acquired, err := lock.Acquire(context.Background(), "embed:doc-1:coll-1", embedLockTTL)
	require.NoError(t, err)
	require.True(t, acquired)

	embedCalled := false
	pipeline := &pipelineStub{
		embedFn: func(ctx context.Context, documentID, collectionID string) error {
			embedCalled = true
			return nil
		},
	}

	task := &domain.Task{ID: "task-1", Type: domain.TaskTypeEmbed, DocumentID: "doc-1", CollectionID: "coll-1"}
	w := NewWorker(Config{TaskQueue: queue, Pipeline: pipeline, Lock: lock})
	err = w.embedLocked(context.Background(), task, w.logger)

	require.Error(t, err)
	assert.False(t, embedCalled, "Embed must not run while the lock is held elsewhere")
}

func TestWorkerEmbedLockedNilLockRunsUnguarded(t *testing.T) {
	queue := newMockTaskQueue()
	embedCalled := false
	pipeline := &pipelineStub{
		embedFn: func(ctx context.Context, documentID, collectionID string) error {
			embedCalled = true
			return nil
		},
	}

	task := &domain.Task{ID: "task-1", Type: domain.TaskTypeEmbed, DocumentID: "doc-1", CollectionID: "coll-1"}
	w := NewWorker(Config{TaskQueue: queue, Pipeline: pipeline})
	require.NoError(t, w.embedLocked(context.Background(), task, w.logger))
	assert.True(t, embedCalled)
}

func TestNewWorkerDefaults(t *testing.T) {
	w := NewWorker(Config{TaskQueue: newMockTaskQueue(), Pipeline: &pipelineStub{}})

	assert.Equal(t, 1, w.concurrency)
	assert.Equal(t, 5*time.Second, w.dequeueTimeout)
	assert.NotNil(t, w.logger)
}

func TestWorkerStartStop(t *testing.T) {
	queue := newMockTaskQueue()
	queue.dequeueDelay = 50 * time.Millisecond

	w := NewWorker(Config{TaskQueue: queue, Pipeline: &pipelineStub{}, Concurrency: 1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, w.Start(ctx))
	assert.True(t, w.Health(ctx).Running)

	require.NoError(t, w.Start(ctx)) // second start is a no-op

	w.Stop()
	assert.False(t, w.Health(ctx).Running)
	w.Stop() // idempotent
}

func TestWorkerHealthQueueError(t *testing.T) {
	queue := newMockTaskQueue()
	queue.pingFn = func() error { return errors.New("connection failed") }

	w := NewWorker(Config{TaskQueue: queue, Pipeline: &pipelineStub{}})

	health := w.Health(context.Background())
	assert.False(t, health.QueueHealth)
	assert.Equal(t, "connection failed", health.Error)
}

func TestWorkerProcessTaskUnknownType(t *testing.T) {
	queue := newMockTaskQueue()
	var nacked []string
	queue.nackFn = func(taskID, reason string) error {
		nacked = append(nacked, taskID)
		return nil
	}

	task := &domain.Task{ID: "task-1", Type: domain.TaskType("unknown")}
	w := NewWorker(Config{TaskQueue: queue, Pipeline: &pipelineStub{}})
	w.processTask(context.Background(), task, w.logger)

	assert.Len(t, nacked, 1)
}

func TestWorkerProcessTaskEmbedSuccess(t *testing.T) {
	queue := newMockTaskQueue()
	var acked []string
	queue.ackFn = func(taskID string) error {
		acked = append(acked, taskID)
		return nil
	}

	var gotDoc, gotColl string
	pipeline := &pipelineStub{
		embedFn: func(ctx context.Context, documentID, collectionID string) error {
			gotDoc, gotColl = documentID, collectionID
			return nil
		},
	}

	task := &domain.Task{ID: "task-1", Type: domain.TaskTypeEmbed, DocumentID: "doc-1", CollectionID: "coll-1"}
	w := NewWorker(Config{TaskQueue: queue, Pipeline: pipeline})
	w.processTask(context.Background(), task, w.logger)

	assert.Len(t, acked, 1)
	assert.Equal(t, "doc-1", gotDoc)
	assert.Equal(t, "coll-1", gotColl)
}

func TestWorkerProcessTaskEmbedFailureNacks(t *testing.T) {
	queue := newMockTaskQueue()
	var nacked []string
	queue.nackFn = func(taskID, reason string) error {
		nacked = append(nacked, reason)
		return nil
	}

	pipeline := &pipelineStub{
		embedFn: func(ctx context.Context, documentID, collectionID string) error {
			return errors.New("upstream rate limited")
		},
	}

	task := &domain.Task{ID: "task-1", Type: domain.TaskTypeEmbed, DocumentID: "doc-1", CollectionID: "coll-1"}
	w := NewWorker(Config{TaskQueue: queue, Pipeline: pipeline})
	w.processTask(context.Background(), task, w.logger)

	require.Len(t, nacked, 1)
	assert.Contains(t, nacked[0], "upstream rate limited")
}

func TestWorkerProcessLoopDrainsQueue(t *testing.T) {
	queue := newMockTaskQueue()
	task := &domain.Task{ID: "task-1", Type: domain.TaskTypeEmbed, DocumentID: "doc-1", CollectionID: "coll-1"}
	require.NoError(t, queue.Enqueue(context.Background(), task))

	var acked []string
	queue.ackFn = func(taskID string) error {
		acked = append(acked, taskID)
		return nil
	}

	w := NewWorker(Config{TaskQueue: queue, Pipeline: &pipelineStub{}, Concurrency: 1, DequeueTimeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))

	deadline := time.Now().Add(2 * time.Second)
	for len(acked) == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	w.Stop()

	assert.Len(t, acked, 1)
}
