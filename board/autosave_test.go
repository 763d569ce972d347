package board

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"flowmate/domain"
)

func TestDebounceCoalescesBursts(t *testing.T) {
	e, gw, clk, _ := newTestBoard(t, domain.Snapshot{Columns: testColumns()})

	red, green := "red", "green"
	_, err := e.UpdateColumn("col-todo", ColumnPatch{Color: &red})
	require.NoError(t, err)

	clk.Advance(500 * time.Millisecond)
	_, err = e.UpdateColumn("col-todo", ColumnPatch{Color: &green})
	require.NoError(t, err)

	// The first change's timer was cancelled; nothing fires at its deadline.
	clk.Advance(700 * time.Millisecond)
	require.Equal(t, 0, gw.columnSaveCount())

	clk.Advance(300 * time.Millisecond)
	require.Equal(t, 1, gw.columnSaveCount())
	require.Equal(t, "green", columnByTitle(t, gw.lastColumnSave(), "To Do").Color)
}

func TestDebounceLanesAreIndependent(t *testing.T) {
	e, gw, clk, _ := newTestBoard(t, domain.Snapshot{
		Columns: testColumns(),
		Rules:   []domain.Rule{fieldRule("rule-1", "Inert", "Nope", "x", "col-done")},
	})

	color := "teal"
	_, err := e.UpdateColumn("col-todo", ColumnPatch{Color: &color})
	require.NoError(t, err)
	e.DeleteRule("rule-1")

	require.Equal(t, 0, gw.columnSaveCount())
	require.Equal(t, 0, gw.ruleSaveCount())

	clk.Advance(time.Second)
	require.Equal(t, 1, gw.columnSaveCount())
	require.Equal(t, 1, gw.ruleSaveCount())
}

func TestFlushFailureKeepsMemoryAuthoritative(t *testing.T) {
	e, gw, clk, notes := newTestBoard(t, domain.Snapshot{Columns: testColumns()})
	gw.mu.Lock()
	gw.columnsErr = errors.New("storage offline")
	gw.mu.Unlock()

	color := "teal"
	_, err := e.UpdateColumn("col-todo", ColumnPatch{Color: &color})
	require.NoError(t, err)
	clk.Advance(time.Second)

	require.Equal(t, []string{"save columns"}, notes.failedOps())
	require.Equal(t, "teal", columnByTitle(t, e.Columns(), "To Do").Color)
}

func TestRuleFlushFailureNotifies(t *testing.T) {
	e, gw, clk, notes := newTestBoard(t, domain.Snapshot{Columns: testColumns()})
	gw.mu.Lock()
	gw.rulesErr = errors.New("storage offline")
	gw.mu.Unlock()

	rules, err := e.AddRule(overdueRule("col-blocked"))
	require.NoError(t, err)
	require.Len(t, rules, 1)
	clk.Advance(time.Second)

	require.Equal(t, []string{"save rules"}, notes.failedOps())
	require.Len(t, e.Rules(), 1)
}

func TestCloseFlushesPendingLanes(t *testing.T) {
	e, gw, _, _ := newTestBoard(t, domain.Snapshot{Columns: testColumns()})

	color := "teal"
	_, err := e.UpdateColumn("col-todo", ColumnPatch{Color: &color})
	require.NoError(t, err)
	_, err = e.AddRule(overdueRule("col-blocked"))
	require.NoError(t, err)

	require.Equal(t, 0, gw.columnSaveCount())
	require.Equal(t, 0, gw.ruleSaveCount())

	e.Close()
	require.Equal(t, 1, gw.columnSaveCount())
	require.Equal(t, 1, gw.ruleSaveCount())
	require.Equal(t, "teal", columnByTitle(t, gw.lastColumnSave(), "To Do").Color)
}

func TestCloseWithoutPendingWritesIsQuiet(t *testing.T) {
	e, gw, _, _ := newTestBoard(t, domain.Snapshot{Columns: testColumns()})

	e.Close()
	require.Equal(t, 0, gw.columnSaveCount())
	require.Equal(t, 0, gw.ruleSaveCount())
}
