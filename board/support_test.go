package board

import (
	"context"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"flowmate/domain"
	"flowmate/storage"
)

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// fakeTimer is a pending callback registered with fakeClock.
type fakeTimer struct {
	clock   *fakeClock
	when    time.Time
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// fakeClock drives the engine's timers manually. Advance moves the current
// time forward and fires every due timer in schedule order, outside the
// clock's own lock so callbacks may re-arm freely.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, when: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	remaining := c.timers[:0]
	for _, t := range c.timers {
		if t.stopped {
			continue
		}
		if !t.when.After(c.now) {
			t.stopped = true
			due = append(due, t)
		} else {
			remaining = append(remaining, t)
		}
	}
	c.timers = remaining
	sort.SliceStable(due, func(a, b int) bool { return due[a].when.Before(due[b].when) })
	c.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

// stubGateway records every call so tests can assert on flush timing and
// payloads. Error fields make individual operations fail on demand.
type stubGateway struct {
	mu   sync.Mutex
	snap domain.Snapshot

	columnSaves [][]domain.Column
	ruleSaves   [][]domain.Rule
	imports     []domain.Snapshot
	clearCalls  int

	loadErr    error
	columnsErr error
	rulesErr   error
	importErr  error
	clearErr   error
}

var _ storage.Gateway = (*stubGateway)(nil)

func (g *stubGateway) LoadAll(context.Context) (domain.Snapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snap.Clone(), g.loadErr
}

func (g *stubGateway) ReplaceAllTasksAndColumns(_ context.Context, columns []domain.Column) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.columnsErr != nil {
		return g.columnsErr
	}
	g.columnSaves = append(g.columnSaves, domain.CloneColumns(columns))
	return nil
}

func (g *stubGateway) ReplaceAllRules(_ context.Context, rules []domain.Rule) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rulesErr != nil {
		return g.rulesErr
	}
	g.ruleSaves = append(g.ruleSaves, domain.CloneRules(rules))
	return nil
}

func (g *stubGateway) AddTask(context.Context, domain.Task) error    { return nil }
func (g *stubGateway) UpdateTask(context.Context, domain.Task) error { return nil }
func (g *stubGateway) DeleteTask(context.Context, string) error      { return nil }

func (g *stubGateway) ExportAll(context.Context) (domain.Snapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snap.Clone(), nil
}

func (g *stubGateway) ImportAll(_ context.Context, snap domain.Snapshot) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.importErr != nil {
		return g.importErr
	}
	g.snap = snap.Clone()
	g.imports = append(g.imports, snap.Clone())
	return nil
}

func (g *stubGateway) ClearTasks(context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.clearErr != nil {
		return g.clearErr
	}
	g.clearCalls++
	g.snap.Tasks = []domain.Task{}
	return nil
}

func (g *stubGateway) columnSaveCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.columnSaves)
}

func (g *stubGateway) lastColumnSave() []domain.Column {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.columnSaves) == 0 {
		return nil
	}
	return g.columnSaves[len(g.columnSaves)-1]
}

func (g *stubGateway) ruleSaveCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.ruleSaves)
}

func (g *stubGateway) importCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.imports)
}

type appliedNote struct {
	task   string
	column string
	rule   string
}

// recordNotifier captures notifications for assertions.
type recordNotifier struct {
	mu      sync.Mutex
	applied []appliedNote
	failed  []string
}

func (n *recordNotifier) RuleApplied(task domain.Task, columnTitle, ruleName string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.applied = append(n.applied, appliedNote{task: task.Title, column: columnTitle, rule: ruleName})
}

func (n *recordNotifier) PersistenceFailed(op string, _ error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, op)
}

func (n *recordNotifier) appliedNotes() []appliedNote {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]appliedNote, len(n.applied))
	copy(out, n.applied)
	return out
}

func (n *recordNotifier) failedOps() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.failed))
	copy(out, n.failed)
	return out
}

func testLogger() *log.Logger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testColumns() []domain.Column {
	return []domain.Column{
		{ID: "col-todo", Title: "To Do", Tasks: []domain.Task{}, Color: "blue"},
		{ID: "col-doing", Title: "In Progress", Tasks: []domain.Task{}, Color: "yellow"},
		{ID: "col-blocked", Title: "Blocked", Tasks: []domain.Task{}, Color: "red"},
		{ID: "col-done", Title: domain.CompletedColumnTitle, Tasks: []domain.Task{}, Color: "green"},
	}
}

func testTask(id, title, status string) domain.Task {
	return domain.Task{
		ID:           id,
		Title:        title,
		Status:       status,
		Subtasks:     []domain.Subtask{},
		CustomFields: []domain.CustomField{},
		CreatedAt:    baseTime.Add(-24 * time.Hour).Format(time.RFC3339),
	}
}

func overdueRule(target string) domain.Rule {
	return domain.Rule{
		ID:   "rule-overdue",
		Name: "Escalate overdue work",
		Condition: domain.Condition{
			Type:     domain.ConditionDueDate,
			Operator: domain.OperatorIsOverdue,
		},
		Action: domain.Action{
			Type:           domain.ActionMoveToColumn,
			TargetColumnID: target,
		},
		Enabled: true,
	}
}

// newTestBoard builds an initialized engine over a stub gateway with a
// deterministic clock. The snapshot is what the stub "persisted" before the
// engine started.
func newTestBoard(t *testing.T, snap domain.Snapshot) (*Engine, *stubGateway, *fakeClock, *recordNotifier) {
	t.Helper()
	gw := &stubGateway{snap: snap.Clone()}
	clk := newFakeClock(baseTime)
	notes := &recordNotifier{}

	e := New(gw, Config{
		DebounceInterval:    time.Second,
		ManualMoveWindow:    2 * time.Second,
		FlushTimeout:        5 * time.Second,
		MaxAutomationPasses: 4,
	}, testLogger())
	e.clock = clk
	e.SetNotifier(notes)
	require.NoError(t, e.Init(context.Background()))
	t.Cleanup(e.Close)
	return e, gw, clk, notes
}
