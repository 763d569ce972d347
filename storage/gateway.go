package storage

import (
	"context"

	"flowmate/domain"
)

// Gateway is the persistence boundary the board core depends on. Every call
// is independently failable; callers keep their in-memory state
// authoritative and never roll it back on a gateway error.
//
// Replace-all operations are delete-then-re-add under the hood, so a crash
// mid-flush can leave the store transiently inconsistent. That is accepted:
// the next LoadAll simply reloads whatever the store holds.
type Gateway interface {
	// LoadAll returns the full persisted board. It is called exactly once
	// at startup.
	LoadAll(ctx context.Context) (domain.Snapshot, error)

	// ReplaceAllTasksAndColumns persists the given nested columns as the
	// complete task+column state, replacing whatever was stored.
	ReplaceAllTasksAndColumns(ctx context.Context, columns []domain.Column) error

	// ReplaceAllRules persists the given rules as the complete rule state.
	ReplaceAllRules(ctx context.Context, rules []domain.Rule) error

	AddTask(ctx context.Context, task domain.Task) error
	UpdateTask(ctx context.Context, task domain.Task) error
	DeleteTask(ctx context.Context, taskID string) error

	// ExportAll returns the full persisted board in flat form.
	ExportAll(ctx context.Context) (domain.Snapshot, error)

	// ImportAll replaces every collection with the snapshot's contents.
	ImportAll(ctx context.Context, snap domain.Snapshot) error

	// ClearTasks removes all tasks while preserving columns and rules.
	ClearTasks(ctx context.Context) error
}
