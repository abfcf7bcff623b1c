// Package progress is the task/gamification collaborator surface the wallet
// core consumes: the default task set seeded after onboarding or deletion,
// and the ordered task rows read and replayed by backup/restore.
package progress

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/walletkit/walletd/internal/store"
)

// Task statuses.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// defaultTasks is the ordered onboarding task set every fresh wallet starts
// with.
var defaultTasks = []string{
	"create_wallet",
	"fund_wallet",
	"first_transfer",
	"invite_friend",
}

// Task is one progress row: a type tag, a status enum, and an opaque payload
// owned by the task engine.
type Task struct {
	Type     string          `json:"type"`
	Status   string          `json:"status"`
	Payload  json.RawMessage `json:"payload"`
	Position int             `json:"position"`
}

// InitializeDefault resets the owner's progress to the default pending task
// set. Existing rows are replaced.
func InitializeDefault(ctx context.Context, q store.Queryer, ownerID string) error {
	if err := DeleteAll(ctx, q, ownerID); err != nil {
		return err
	}
	for i, taskType := range defaultTasks {
		_, err := q.ExecContext(ctx, `
INSERT INTO tasks (owner_id, task_type, status, payload, position)
VALUES (?,?,?,?,?)`, ownerID, taskType, StatusPending, "{}", i)
		if err != nil {
			return fmt.Errorf("failed to seed task %s: %w", taskType, err)
		}
	}
	return nil
}

// List returns the owner's task rows in position order.
func List(ctx context.Context, q store.Queryer, ownerID string) ([]Task, error) {
	rows, err := q.QueryContext(ctx, `
SELECT task_type, status, payload, position FROM tasks
WHERE owner_id = ? ORDER BY position ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var tasks []Task
	for rows.Next() {
		var t Task
		var payload string
		if err := rows.Scan(&t.Type, &t.Status, &payload, &t.Position); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		t.Payload = json.RawMessage(payload)
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Apply overwrites the owner's row for the task's type with the recorded
// status and payload. Used by restore: the row already exists from the
// default seed, so an entry for an unknown type is inserted fresh.
func Apply(ctx context.Context, q store.Queryer, ownerID string, t Task) error {
	_, err := q.ExecContext(ctx, `
INSERT INTO tasks (owner_id, task_type, status, payload, position)
VALUES (?,?,?,?,?)
ON CONFLICT(owner_id, task_type)
DO UPDATE SET status = excluded.status, payload = excluded.payload`,
		ownerID, t.Type, t.Status, string(t.Payload), t.Position)
	if err != nil {
		return fmt.Errorf("failed to apply task %s: %w", t.Type, err)
	}
	return nil
}

// DeleteAll removes every task row for the owner.
func DeleteAll(ctx context.Context, q store.Queryer, ownerID string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM tasks WHERE owner_id = ?`, ownerID); err != nil {
		return fmt.Errorf("failed to delete tasks: %w", err)
	}
	return nil
}

// MarkCompleted flips one task to completed. Exposed for the task engine's
// call-in; the wallet core itself only reads.
func MarkCompleted(ctx context.Context, q store.Queryer, ownerID, taskType string) error {
	_, err := q.ExecContext(ctx, `
UPDATE tasks SET status = ? WHERE owner_id = ? AND task_type = ?`,
		StatusCompleted, ownerID, taskType)
	if err != nil {
		return fmt.Errorf("failed to complete task %s: %w", taskType, err)
	}
	return nil
}
