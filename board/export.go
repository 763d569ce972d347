package board

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"flowmate/domain"
)

// Export returns the full persisted board in flat form.
func (e *Engine) Export(ctx context.Context) (domain.Snapshot, error) {
	return e.gw.ExportAll(ctx)
}

// ExportJSON renders the board as an indented JSON document suitable for a
// backup file.
func (e *Engine) ExportJSON(ctx context.Context) ([]byte, error) {
	snap, err := e.Export(ctx)
	if err != nil {
		return nil, err
	}
	return sonic.ConfigStd.MarshalIndent(snap, "", "  ")
}

// ExportFilename is the backup naming convention: the export date is
// embedded in the name.
func ExportFilename(now time.Time) string {
	return "flowmate-backup-" + now.Format("2006-01-02") + ".json"
}

// ImportJSON replaces the whole board with the decoded snapshot. Malformed
// or inconsistent input is refused with ErrImportFailed and the current
// state, persisted and in-memory, is left untouched.
func (e *Engine) ImportJSON(ctx context.Context, data []byte) ([]domain.Column, error) {
	var snap domain.Snapshot
	dec := sonic.ConfigStd.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		return e.Columns(), fmt.Errorf("%w: %v", ErrImportFailed, err)
	}
	if err := validateSnapshot(snap); err != nil {
		return e.Columns(), fmt.Errorf("%w: %v", ErrImportFailed, err)
	}
	return e.Import(ctx, snap)
}

// Import persists the snapshot through the gateway and, only once that
// succeeds, swaps it into memory and re-evaluates automation.
func (e *Engine) Import(ctx context.Context, snap domain.Snapshot) ([]domain.Column, error) {
	if err := e.gw.ImportAll(ctx, snap); err != nil {
		e.notifier.PersistenceFailed("import", err)
		return e.Columns(), fmt.Errorf("%w: %v", ErrImportFailed, err)
	}

	e.mu.Lock()
	e.columns = domain.Regroup(snap)
	e.rules = domain.CloneRules(snap.Rules)
	if e.rules == nil {
		e.rules = []domain.Rule{}
	}
	e.mu.Unlock()

	e.settle()
	return e.Columns(), nil
}

// ClearTasks wipes every task while preserving columns and rules, in the
// store and in memory. Memory is only touched once the store confirms.
func (e *Engine) ClearTasks(ctx context.Context) error {
	if err := e.gw.ClearTasks(ctx); err != nil {
		e.notifier.PersistenceFailed("clear tasks", err)
		return err
	}

	e.mu.Lock()
	cols := domain.CloneColumns(e.columns)
	for i := range cols {
		cols[i].Tasks = []domain.Task{}
	}
	e.columns = cols
	e.mu.Unlock()
	return nil
}

func validateSnapshot(snap domain.Snapshot) error {
	for _, c := range snap.Columns {
		if err := domain.ValidateColumn(c, snap.Columns); err != nil {
			return err
		}
	}
	for _, t := range snap.Tasks {
		if err := domain.ValidateTask(t, nil); err != nil {
			return err
		}
	}
	for _, r := range snap.Rules {
		if err := domain.ValidateRule(r, snap.Columns); err != nil {
			return err
		}
	}
	return nil
}
