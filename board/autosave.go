package board

import (
	"context"

	"flowmate/domain"
)

// Autosave runs two independent debounce lanes, one for the column/task
// collection and one for the rules. Each state change cancels the lane's
// pending timer and arms a fresh one, so at most one flush is ever queued
// per lane; after DebounceInterval of quiet the full collection is written.
// Task creation bypasses the columns lane entirely (see AddTask).

func (e *Engine) scheduleColumnsSave() {
	e.mu.Lock()
	if !e.initialized {
		e.mu.Unlock()
		return
	}
	if e.columnsTimer != nil {
		e.columnsTimer.Stop()
	}
	e.columnsTimer = e.clock.AfterFunc(e.cfg.DebounceInterval, e.flushColumnsNow)
	e.mu.Unlock()
}

func (e *Engine) scheduleRulesSave() {
	e.mu.Lock()
	if !e.initialized {
		e.mu.Unlock()
		return
	}
	if e.rulesTimer != nil {
		e.rulesTimer.Stop()
	}
	e.rulesTimer = e.clock.AfterFunc(e.cfg.DebounceInterval, e.flushRulesNow)
	e.mu.Unlock()
}

// flushColumnsNow writes the current column/task state through the gateway,
// replacing whatever was stored. A failure is reported and otherwise
// ignored; the in-memory state stays authoritative.
func (e *Engine) flushColumnsNow() {
	e.mu.Lock()
	if e.columnsTimer != nil {
		e.columnsTimer.Stop()
		e.columnsTimer = nil
	}
	cols := domain.CloneColumns(e.columns)
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.FlushTimeout)
	defer cancel()
	if err := e.gw.ReplaceAllTasksAndColumns(ctx, cols); err != nil {
		e.logger.WithError(err).Error("column autosave failed")
		e.notifier.PersistenceFailed("save columns", err)
	}
}

func (e *Engine) flushRulesNow() {
	e.mu.Lock()
	if e.rulesTimer != nil {
		e.rulesTimer.Stop()
		e.rulesTimer = nil
	}
	rules := domain.CloneRules(e.rules)
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.FlushTimeout)
	defer cancel()
	if err := e.gw.ReplaceAllRules(ctx, rules); err != nil {
		e.logger.WithError(err).Error("rule autosave failed")
		e.notifier.PersistenceFailed("save rules", err)
	}
}
