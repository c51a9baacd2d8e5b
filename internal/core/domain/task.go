package domain

import "time"

// MaxTaskRetries bounds how many times a failed embed task is retried
// before moving to TaskStatusFailed permanently.
const MaxTaskRetries = 3

// TaskType identifies the kind of work an embed worker should perform.
type TaskType string

const TaskTypeEmbed TaskType = "embed"

// TaskStatus is the lifecycle state of a queued task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// Task is a unit of background work dispatched to the embed worker pool.
// Today the only task type is "embed" (document_id, collection_id).
type Task struct {
	ID           string
	Type         TaskType
	DocumentID   string
	CollectionID string
	Status       TaskStatus
	RetryCount   int
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (t *Task) MarkProcessing() {
	t.Status = TaskStatusProcessing
	t.UpdatedAt = time.Now()
}

func (t *Task) MarkCompleted() {
	t.Status = TaskStatusCompleted
	t.LastError = ""
	t.UpdatedAt = time.Now()
}

func (t *Task) MarkFailed(reason string) {
	t.Status = TaskStatusFailed
	t.LastError = reason
	t.UpdatedAt = time.Now()
}

// CanRetry reports whether another attempt is allowed after a failure.
func (t *Task) CanRetry() bool {
	return t.RetryCount < MaxTaskRetries
}

// Retry increments the retry count, records reason, and resets the task to
// pending so it can be re-dequeued.
func (t *Task) Retry(reason string) {
	t.RetryCount++
	t.LastError = reason
	t.Status = TaskStatusPending
	t.UpdatedAt = time.Now()
}
