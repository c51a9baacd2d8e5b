package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/custodia-labs/chonkit/internal/core/domain"
	"github.com/custodia-labs/chonkit/internal/core/ports/driven"
)

var _ driven.TaskQueue = (*Queue)(nil)

// Queue implements TaskQueue using PostgreSQL with SELECT FOR UPDATE SKIP
// LOCKED for contention-free task claiming. This is the fallback queue when
// Redis is unavailable.
type Queue struct {
	db *sql.DB
}

// NewQueue creates a new PostgreSQL-backed task queue. Assumes the tasks
// table has been created (see CreateTasksTableSQL).
func NewQueue(db *sql.DB) *Queue {
	return &Queue{db: db}
}

func (q *Queue) Enqueue(ctx context.Context, task *domain.Task) error {
	query := `
		INSERT INTO tasks (id, type, document_id, collection_id, status, retry_count, last_error, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id, created_at, updated_at
	`
	return q.db.QueryRowContext(ctx, query,
		string(task.Type), task.DocumentID, task.CollectionID,
		string(task.Status), task.RetryCount, task.LastError,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
}

func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*domain.Task, error) {
	deadline := time.Now().Add(timeout)
	for {
		task, err := q.tryDequeue(ctx)
		if err != nil || task != nil {
			return task, err
		}
		if timeout <= 0 || time.Now().After(deadline) {
			return nil, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func (q *Queue) tryDequeue(ctx context.Context) (*domain.Task, error) {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	selectQuery := `
		SELECT id, type, document_id, collection_id, status, retry_count, last_error, created_at, updated_at
		FROM tasks
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`
	var task domain.Task
	var taskType, status string
	err = tx.QueryRowContext(ctx, selectQuery, string(domain.TaskStatusPending)).Scan(
		&task.ID, &taskType, &task.DocumentID, &task.CollectionID, &status,
		&task.RetryCount, &task.LastError, &task.CreatedAt, &task.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select task: %w", err)
	}
	task.Type = domain.TaskType(taskType)
	task.Status = domain.TaskStatus(status)

	now := time.Now()
	_, err = tx.ExecContext(ctx,
		`UPDATE tasks SET status = $1, updated_at = $2 WHERE id = $3`,
		string(domain.TaskStatusProcessing), now, task.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update task status: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	task.Status = domain.TaskStatusProcessing
	task.UpdatedAt = now
	return &task, nil
}

func (q *Queue) Ack(ctx context.Context, taskID string) error {
	result, err := q.db.ExecContext(ctx,
		`UPDATE tasks SET status = $1, last_error = '', updated_at = now() WHERE id = $2`,
		string(domain.TaskStatusCompleted), taskID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return checkRowsAffected(result)
}

func (q *Queue) Nack(ctx context.Context, taskID string, reason string) error {
	task, err := q.GetTask(ctx, taskID)
	if err != nil {
		return fmt.Errorf("get task: %w", err)
	}
	if task == nil {
		return domain.ErrNotFound
	}

	if task.CanRetry() {
		_, err = q.db.ExecContext(ctx,
			`UPDATE tasks SET status = $1, retry_count = retry_count + 1, last_error = $2, updated_at = now() WHERE id = $3`,
			string(domain.TaskStatusPending), reason, taskID,
		)
	} else {
		_, err = q.db.ExecContext(ctx,
			`UPDATE tasks SET status = $1, last_error = $2, updated_at = now() WHERE id = $3`,
			string(domain.TaskStatusFailed), reason, taskID,
		)
	}
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

func (q *Queue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	query := `
		SELECT id, type, document_id, collection_id, status, retry_count, last_error, created_at, updated_at
		FROM tasks WHERE id = $1
	`
	var task domain.Task
	var taskType, status string
	err := q.db.QueryRowContext(ctx, query, taskID).Scan(
		&task.ID, &taskType, &task.DocumentID, &task.CollectionID, &status,
		&task.RetryCount, &task.LastError, &task.CreatedAt, &task.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query task: %w", err)
	}
	task.Type = domain.TaskType(taskType)
	task.Status = domain.TaskStatus(status)
	return &task, nil
}

func (q *Queue) ListTasks(ctx context.Context, filter driven.TaskFilter) ([]*domain.Task, error) {
	query := `
		SELECT id, type, document_id, collection_id, status, retry_count, last_error, created_at, updated_at
		FROM tasks
	`
	var args []any
	if filter.Status != "" {
		query += " WHERE status = $1"
		args = append(args, string(filter.Status))
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		var task domain.Task
		var taskType, status string
		if err := rows.Scan(&task.ID, &taskType, &task.DocumentID, &task.CollectionID, &status,
			&task.RetryCount, &task.LastError, &task.CreatedAt, &task.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		task.Type = domain.TaskType(taskType)
		task.Status = domain.TaskStatus(status)
		tasks = append(tasks, &task)
	}
	return tasks, rows.Err()
}

func (q *Queue) CancelTask(ctx context.Context, taskID string) error {
	result, err := q.db.ExecContext(ctx,
		`UPDATE tasks SET status = $1, last_error = 'cancelled', updated_at = now() WHERE id = $2 AND status = $3`,
		string(domain.TaskStatusCancelled), taskID, string(domain.TaskStatusPending),
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return checkRowsAffected(result)
}

func (q *Queue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	stats := &driven.QueueStats{}
	rows, err := q.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		switch domain.TaskStatus(status) {
		case domain.TaskStatusPending:
			stats.PendingCount = count
		case domain.TaskStatusProcessing:
			stats.ProcessingCount = count
		case domain.TaskStatusCompleted:
			stats.CompletedCount = count
		case domain.TaskStatusFailed:
			stats.FailedCount = count
		}
	}
	return stats, rows.Err()
}

func (q *Queue) Ping(ctx context.Context) error {
	return q.db.PingContext(ctx)
}

// Close is a no-op: the db connection pool is owned by the caller.
func (q *Queue) Close() error {
	return nil
}

// CreateTasksTableSQL is kept as a standalone constant (rather than folded
// into schema.sql) since this queue is an optional Redis fallback that not
// every deployment provisions.
const CreateTasksTableSQL = `
CREATE TABLE IF NOT EXISTS tasks (
    id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    type          TEXT NOT NULL,
    document_id   UUID NOT NULL,
    collection_id UUID NOT NULL,
    status        TEXT NOT NULL DEFAULT 'pending',
    retry_count   INTEGER NOT NULL DEFAULT 0,
    last_error    TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_tasks_status_created ON tasks (status, created_at) WHERE status = 'pending';
`

func checkRowsAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
