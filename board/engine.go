// Package board owns the in-memory task board: the column/task/rule state,
// the mutation operations that preserve its invariants, the automation
// engine that re-files matching tasks, and the autosave scheduler that
// flushes settled state to the persistence gateway.
package board

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"flowmate/domain"
	"flowmate/storage"
)

// Engine is the single owner of the board state. All mutations are
// serialized through it; automation, notifications, and persistence are
// driven off each settled mutation, never concurrently with one.
type Engine struct {
	cfg      Config
	gw       storage.Gateway
	logger   *log.Logger
	notifier Notifier
	clock    Clock

	mu          sync.Mutex
	columns     []domain.Column
	rules       []domain.Rule
	initialized bool

	dragPhase   dragPhase
	windowTimer Timer

	columnsTimer Timer
	rulesTimer   Timer
}

// New creates an engine backed by the given gateway. The notifier defaults
// to logging through the supplied logger and can be replaced with
// SetNotifier before Init.
func New(gw storage.Gateway, cfg Config, logger *log.Logger) *Engine {
	if gw == nil {
		panic("board.New: gateway is nil")
	}
	if logger == nil {
		logger = log.New()
	}
	return &Engine{
		cfg:      cfg.withDefaults(),
		gw:       gw,
		logger:   logger,
		notifier: LogNotifier{Logger: logger},
		clock:    systemClock{},
	}
}

// SetNotifier replaces the engine's notifier. Call before Init.
func (e *Engine) SetNotifier(n Notifier) {
	if n != nil {
		e.notifier = n
	}
}

// Init loads the persisted board, seeding defaults when the store is empty,
// and runs the first automation pass. It must be called exactly once before
// any mutation.
func (e *Engine) Init(ctx context.Context) error {
	snap, err := e.gw.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load board: %w", err)
	}

	seeded := false
	if len(snap.Columns) == 0 {
		snap = domain.Defaults(e.clock.Now())
		seeded = true
		e.logger.Info("empty store, seeding default board")
	}

	e.mu.Lock()
	e.columns = domain.Regroup(snap)
	e.rules = domain.CloneRules(snap.Rules)
	if e.rules == nil {
		e.rules = []domain.Rule{}
	}
	e.initialized = true
	e.mu.Unlock()

	if seeded {
		// First-run data is persisted right away so a session that ends
		// before the first debounce still finds its board next time.
		e.flushColumnsNow()
		e.flushRulesNow()
	}

	e.settle()
	return nil
}

// Columns returns a deep copy of the current column arrangement.
func (e *Engine) Columns() []domain.Column {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.CloneColumns(e.columns)
}

// Rules returns a deep copy of the current rule set.
func (e *Engine) Rules() []domain.Rule {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.CloneRules(e.rules)
}

// AddTask appends the task to the named column. Unknown columns make this a
// silent no-op. Creation bypasses the autosave debounce: the new task is
// flushed immediately so it cannot be lost to a quiet-period window.
func (e *Engine) AddTask(columnID string, task domain.Task) []domain.Column {
	if err := domain.ValidateTask(task, nil); err != nil {
		e.logger.WithError(err).Warn("rejected task")
		return e.Columns()
	}

	e.mu.Lock()
	idx := columnIndexByID(e.columns, columnID)
	if idx == -1 {
		e.mu.Unlock()
		e.logger.WithField("column", columnID).Debug("add task into unknown column ignored")
		return e.Columns()
	}
	cols := domain.CloneColumns(e.columns)
	t := task.Clone()
	t.Status = cols[idx].Title
	cols[idx].Tasks = append(cols[idx].Tasks, t)
	e.columns = cols
	e.mu.Unlock()

	e.settle()
	go e.flushColumnsNow()
	return e.Columns()
}

// UpdateTask replaces the task with a matching id wherever it currently
// lives. The owning column decides the status, and createdAt is immutable,
// so both survive whatever the caller sends. Unknown ids are a no-op.
func (e *Engine) UpdateTask(task domain.Task) []domain.Column {
	e.mu.Lock()
	ci, ti := locateTask(e.columns, task.ID)
	if ci == -1 {
		e.mu.Unlock()
		return e.Columns()
	}
	cols := domain.CloneColumns(e.columns)
	updated := task.Clone()
	updated.Status = cols[ci].Title
	updated.CreatedAt = cols[ci].Tasks[ti].CreatedAt
	cols[ci].Tasks[ti] = updated
	e.columns = cols
	e.mu.Unlock()

	e.settle()
	e.scheduleColumnsSave()
	return e.Columns()
}

// DeleteTask removes the task from whichever column holds it.
func (e *Engine) DeleteTask(taskID string) []domain.Column {
	e.mu.Lock()
	ci, ti := locateTask(e.columns, taskID)
	if ci == -1 {
		e.mu.Unlock()
		return e.Columns()
	}
	cols := domain.CloneColumns(e.columns)
	cols[ci].Tasks = append(cols[ci].Tasks[:ti], cols[ci].Tasks[ti+1:]...)
	e.columns = cols
	e.mu.Unlock()

	e.settle()
	e.scheduleColumnsSave()
	return e.Columns()
}

// MoveTask relocates a task between columns, or reorders it within one.
// toIndex is the insertion position with the task already removed, clamped
// to the destination's valid range.
func (e *Engine) MoveTask(taskID, fromColumnID, toColumnID string, toIndex int) ([]domain.Column, error) {
	e.mu.Lock()
	err := e.moveTaskLocked(taskID, fromColumnID, toColumnID, toIndex)
	e.mu.Unlock()
	if err != nil {
		return e.Columns(), err
	}

	e.settle()
	e.scheduleColumnsSave()
	return e.Columns(), nil
}

func (e *Engine) moveTaskLocked(taskID, fromColumnID, toColumnID string, toIndex int) error {
	fi := columnIndexByID(e.columns, fromColumnID)
	if fi == -1 {
		return fmt.Errorf("%w: %s", ErrColumnNotFound, fromColumnID)
	}
	ti := columnIndexByID(e.columns, toColumnID)
	if ti == -1 {
		return fmt.Errorf("%w: %s", ErrColumnNotFound, toColumnID)
	}
	from := e.columns[fi]
	taskIdx := from.TaskIndex(taskID)
	if taskIdx == -1 {
		return fmt.Errorf("%w: %s in column %s", ErrTaskNotFound, taskID, fromColumnID)
	}

	cols := domain.CloneColumns(e.columns)
	task := cols[fi].Tasks[taskIdx]
	cols[fi].Tasks = append(cols[fi].Tasks[:taskIdx], cols[fi].Tasks[taskIdx+1:]...)

	task.Status = cols[ti].Title
	dest := cols[ti].Tasks
	if toIndex < 0 {
		toIndex = 0
	}
	if toIndex > len(dest) {
		toIndex = len(dest)
	}
	dest = append(dest, domain.Task{})
	copy(dest[toIndex+1:], dest[toIndex:])
	dest[toIndex] = task
	cols[ti].Tasks = dest

	e.columns = cols
	return nil
}

// DuplicateTask copies the task under a fresh id with a " (Copy)" title
// suffix and a fresh creation time, appending it to targetColumnID or, when
// that is empty, to the task's current column. Unknown targets make this a
// silent no-op, matching AddTask.
func (e *Engine) DuplicateTask(task domain.Task, targetColumnID string) []domain.Column {
	e.mu.Lock()
	if targetColumnID == "" {
		ci, _ := locateTask(e.columns, task.ID)
		if ci == -1 {
			e.mu.Unlock()
			return e.Columns()
		}
		targetColumnID = e.columns[ci].ID
	}
	e.mu.Unlock()

	dup := task.Clone()
	dup.ID = domain.NewTaskID()
	dup.Title = task.Title + " (Copy)"
	dup.CreatedAt = e.clock.Now().Format(time.RFC3339)
	return e.AddTask(targetColumnID, dup)
}

// AddColumn appends a new empty column. Blank titles and titles already in
// use are rejected.
func (e *Engine) AddColumn(title string) ([]domain.Column, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return e.Columns(), ErrEmptyTitle
	}

	col := domain.Column{
		ID:    domain.NewColumnID(),
		Title: title,
		Tasks: []domain.Task{},
		Color: "gray",
	}

	e.mu.Lock()
	if err := domain.ValidateColumn(col, e.columns); err != nil {
		e.mu.Unlock()
		return e.Columns(), err
	}
	cols := domain.CloneColumns(e.columns)
	e.columns = append(cols, col)
	e.mu.Unlock()

	e.scheduleColumnsSave()
	return e.Columns(), nil
}

// ColumnPatch carries the column fields UpdateColumn may change. Nil fields
// are left untouched.
type ColumnPatch struct {
	Title *string
	Color *string
}

// UpdateColumn shallow-merges the patch into the column. Renaming a column
// also rewrites the status of every task it holds, keeping the
// status/column cross-reference intact.
func (e *Engine) UpdateColumn(columnID string, patch ColumnPatch) ([]domain.Column, error) {
	e.mu.Lock()
	idx := columnIndexByID(e.columns, columnID)
	if idx == -1 {
		e.mu.Unlock()
		return e.Columns(), fmt.Errorf("%w: %s", ErrColumnNotFound, columnID)
	}

	cols := domain.CloneColumns(e.columns)
	col := &cols[idx]
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			e.mu.Unlock()
			return e.Columns(), ErrEmptyTitle
		}
		probe := *col
		probe.Title = title
		if err := domain.ValidateColumn(probe, e.columns); err != nil {
			e.mu.Unlock()
			return e.Columns(), err
		}
		col.Title = title
		for i := range col.Tasks {
			col.Tasks[i].Status = title
		}
	}
	if patch.Color != nil {
		col.Color = *patch.Color
	}
	e.columns = cols
	e.mu.Unlock()

	e.settle()
	e.scheduleColumnsSave()
	return e.Columns(), nil
}

// DeleteColumn removes an empty column. Columns still holding tasks are
// refused with ErrColumnNotEmpty and the board is left unchanged.
func (e *Engine) DeleteColumn(columnID string) ([]domain.Column, error) {
	e.mu.Lock()
	idx := columnIndexByID(e.columns, columnID)
	if idx == -1 {
		e.mu.Unlock()
		return e.Columns(), fmt.Errorf("%w: %s", ErrColumnNotFound, columnID)
	}
	if len(e.columns[idx].Tasks) > 0 {
		e.mu.Unlock()
		return e.Columns(), fmt.Errorf("%w: %s", ErrColumnNotEmpty, e.columns[idx].Title)
	}
	cols := domain.CloneColumns(e.columns)
	e.columns = append(cols[:idx], cols[idx+1:]...)
	e.mu.Unlock()

	e.scheduleColumnsSave()
	return e.Columns(), nil
}

// AddRule validates and appends an automation rule, then re-evaluates the
// board since the new rule may match immediately.
func (e *Engine) AddRule(rule domain.Rule) ([]domain.Rule, error) {
	e.mu.Lock()
	if err := domain.ValidateRule(rule, e.columns); err != nil {
		e.mu.Unlock()
		return e.Rules(), err
	}
	e.rules = append(domain.CloneRules(e.rules), rule)
	e.mu.Unlock()

	e.settle()
	e.scheduleRulesSave()
	return e.Rules(), nil
}

// RulePatch carries the rule fields UpdateRule may change. Nil fields are
// left untouched.
type RulePatch struct {
	Name      *string
	Condition *domain.Condition
	Action    *domain.Action
	Enabled   *bool
}

// UpdateRule shallow-merges the patch into the rule with the matching id.
// Unknown ids are a no-op.
func (e *Engine) UpdateRule(ruleID string, patch RulePatch) ([]domain.Rule, error) {
	e.mu.Lock()
	idx := -1
	for i, r := range e.rules {
		if r.ID == ruleID {
			idx = i
			break
		}
	}
	if idx == -1 {
		e.mu.Unlock()
		return e.Rules(), nil
	}

	merged := e.rules[idx]
	if patch.Name != nil {
		merged.Name = *patch.Name
	}
	if patch.Condition != nil {
		merged.Condition = *patch.Condition
	}
	if patch.Action != nil {
		merged.Action = *patch.Action
	}
	if patch.Enabled != nil {
		merged.Enabled = *patch.Enabled
	}
	if err := domain.ValidateRule(merged, e.columns); err != nil {
		e.mu.Unlock()
		return e.Rules(), err
	}
	rules := domain.CloneRules(e.rules)
	rules[idx] = merged
	e.rules = rules
	e.mu.Unlock()

	e.settle()
	e.scheduleRulesSave()
	return e.Rules(), nil
}

// DeleteRule removes the rule with the matching id.
func (e *Engine) DeleteRule(ruleID string) []domain.Rule {
	e.mu.Lock()
	rules := domain.CloneRules(e.rules)
	for i, r := range rules {
		if r.ID == ruleID {
			rules = append(rules[:i], rules[i+1:]...)
			break
		}
	}
	e.rules = rules
	e.mu.Unlock()

	e.scheduleRulesSave()
	return e.Rules()
}

// Close stops pending timers, flushing any lane that still had a write
// queued so a quick shutdown does not drop the last change.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.windowTimer != nil {
		e.windowTimer.Stop()
		e.windowTimer = nil
		e.dragPhase = dragIdle
	}
	columnsPending := e.columnsTimer != nil
	rulesPending := e.rulesTimer != nil
	if columnsPending {
		e.columnsTimer.Stop()
		e.columnsTimer = nil
	}
	if rulesPending {
		e.rulesTimer.Stop()
		e.rulesTimer = nil
	}
	e.mu.Unlock()

	if columnsPending {
		e.flushColumnsNow()
	}
	if rulesPending {
		e.flushRulesNow()
	}
}

func columnIndexByID(columns []domain.Column, id string) int {
	for i, c := range columns {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func locateTask(columns []domain.Column, taskID string) (colIdx, taskIdx int) {
	for ci, c := range columns {
		if ti := c.TaskIndex(taskID); ti != -1 {
			return ci, ti
		}
	}
	return -1, -1
}
