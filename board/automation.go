package board

import (
	"context"
	"time"

	"flowmate/domain"
)

// pendingMove is one automation decision: relocate a task from its current
// column into a rule's target column.
type pendingMove struct {
	taskID         string
	sourceColumnID string
	targetColumnID string
}

type appliedMove struct {
	task        domain.Task
	columnTitle string
	ruleName    string
}

// settle runs the automation engine against the current state until it is
// quiescent, then persists if anything moved. It is a no-op before Init
// completes and while the manual-move window is open.
func (e *Engine) settle() {
	e.mu.Lock()
	if !e.initialized || e.dragPhase == dragManualWindow {
		e.mu.Unlock()
		return
	}

	metrics := newEvalMetrics(context.Background(), e.logger)
	var applied []appliedMove
	passes := 0
	for passes < e.cfg.MaxAutomationPasses {
		passes++
		now := e.clock.Now()
		moves := evaluateRules(e.columns, e.rules, now)
		metrics.ObservePass(len(moves))
		if len(moves) == 0 {
			break
		}
		applied = append(applied, e.applyMovesLocked(moves)...)
	}
	if passes == e.cfg.MaxAutomationPasses && len(evaluateRules(e.columns, e.rules, e.clock.Now())) > 0 {
		e.logger.Warn("automation did not settle, rules keep relocating the same tasks")
		metrics.SetCapped()
	}
	metrics.SetRulesEnabled(countEnabled(e.rules))
	metrics.SetTasksSeen(countTasks(e.columns))
	e.mu.Unlock()

	metrics.Done(passes, len(applied))

	for _, m := range applied {
		e.notifier.RuleApplied(m.task, m.columnTitle, m.ruleName)
	}
	if len(applied) > 0 {
		e.scheduleColumnsSave()
	}
}

// evaluateRules computes the batch of moves one automation pass would make
// against the given snapshot. At most one move survives per task: when
// several rules match, the last enqueued wins.
func evaluateRules(columns []domain.Column, rules []domain.Rule, now time.Time) []pendingMove {
	enabled := make([]domain.Rule, 0, len(rules))
	for _, r := range rules {
		if r.Enabled {
			enabled = append(enabled, r)
		}
	}
	if len(enabled) == 0 {
		return nil
	}

	var moves []pendingMove
	byTask := map[string]int{}
	for _, col := range columns {
		for _, task := range col.Tasks {
			for _, rule := range enabled {
				if rule.Action.Type != domain.ActionMoveToColumn {
					continue
				}
				if !rule.Matches(task, now) {
					continue
				}
				ti := columnIndexByID(columns, rule.Action.TargetColumnID)
				if ti == -1 {
					// Unresolvable target: the action is ignored, not fatal.
					continue
				}
				if columns[ti].Title == task.Status {
					continue
				}
				move := pendingMove{taskID: task.ID, sourceColumnID: col.ID, targetColumnID: rule.Action.TargetColumnID}
				if i, seen := byTask[task.ID]; seen {
					moves[i] = move
				} else {
					byTask[task.ID] = len(moves)
					moves = append(moves, move)
				}
			}
		}
	}
	return moves
}

// applyMovesLocked applies a batch atomically against the snapshot it was
// computed from: every source lookup uses pre-batch positions, and each
// moved task lands at the tail of its destination. Callers hold e.mu.
func (e *Engine) applyMovesLocked(moves []pendingMove) []appliedMove {
	cols := domain.CloneColumns(e.columns)
	var applied []appliedMove
	for _, m := range moves {
		si := columnIndexByID(cols, m.sourceColumnID)
		ti := columnIndexByID(cols, m.targetColumnID)
		if si == -1 || ti == -1 {
			continue
		}
		taskIdx := cols[si].TaskIndex(m.taskID)
		if taskIdx == -1 {
			continue
		}
		task := cols[si].Tasks[taskIdx]
		cols[si].Tasks = append(cols[si].Tasks[:taskIdx], cols[si].Tasks[taskIdx+1:]...)
		task.Status = cols[ti].Title
		cols[ti].Tasks = append(cols[ti].Tasks, task)

		applied = append(applied, appliedMove{
			task:        task.Clone(),
			columnTitle: cols[ti].Title,
			ruleName:    e.ruleNameForTargetLocked(m.targetColumnID),
		})
	}
	e.columns = cols
	return applied
}

// ruleNameForTargetLocked names the first rule, in rule order, whose action
// targets the given column. Ties are not disambiguated further.
func (e *Engine) ruleNameForTargetLocked(targetColumnID string) string {
	for _, r := range e.rules {
		if r.Action.Type == domain.ActionMoveToColumn && r.Action.TargetColumnID == targetColumnID {
			return r.Name
		}
	}
	return ""
}

func countEnabled(rules []domain.Rule) int {
	n := 0
	for _, r := range rules {
		if r.Enabled {
			n++
		}
	}
	return n
}

func countTasks(columns []domain.Column) int {
	n := 0
	for _, c := range columns {
		n += len(c.Tasks)
	}
	return n
}
