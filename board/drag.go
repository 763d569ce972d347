package board

import "flowmate/domain"

// DropEvent is what the drag surface reports when the user releases a task.
// An empty DestColumnID means the drop landed outside any valid target.
type DropEvent struct {
	SourceColumnID string
	SourceIndex    int
	DestColumnID   string
	DestIndex      int
	TaskID         string
}

// dragPhase is the manual-move suppression state machine. There is exactly
// one source of truth for "is automation currently suppressed": the phase.
type dragPhase int

const (
	dragIdle dragPhase = iota
	dragManualWindow
)

// HandleDrop applies a drop event. Dropping outside a target, or back onto
// the source position, is a no-op that does not open the suppression
// window. A real drop opens (or restarts) the window before the move is
// applied, so automation cannot fight the user's placement; the window
// closes after ManualMoveWindow of quiet and triggers one re-evaluation.
func (e *Engine) HandleDrop(ev DropEvent) ([]domain.Column, error) {
	if ev.DestColumnID == "" {
		return e.Columns(), nil
	}
	if ev.DestColumnID == ev.SourceColumnID && ev.DestIndex == ev.SourceIndex {
		return e.Columns(), nil
	}

	e.mu.Lock()
	e.openManualWindowLocked()
	if err := e.moveTaskLocked(ev.TaskID, ev.SourceColumnID, ev.DestColumnID, ev.DestIndex); err != nil {
		// Nothing moved, so nothing needs protecting.
		e.closeManualWindowLocked()
		e.mu.Unlock()
		return e.Columns(), err
	}
	e.mu.Unlock()

	e.scheduleColumnsSave()
	return e.Columns(), nil
}

// openManualWindowLocked transitions to the suppression window, restarting
// the timer when one is already pending. Callers hold e.mu.
func (e *Engine) openManualWindowLocked() {
	if e.windowTimer != nil {
		e.windowTimer.Stop()
	}
	e.dragPhase = dragManualWindow
	e.windowTimer = e.clock.AfterFunc(e.cfg.ManualMoveWindow, e.onManualWindowExpired)
}

func (e *Engine) closeManualWindowLocked() {
	if e.windowTimer != nil {
		e.windowTimer.Stop()
		e.windowTimer = nil
	}
	e.dragPhase = dragIdle
}

func (e *Engine) onManualWindowExpired() {
	e.mu.Lock()
	e.dragPhase = dragIdle
	e.windowTimer = nil
	e.mu.Unlock()

	// The board may have drifted into a rule match while automation was
	// suppressed; evaluate once now that the window is over.
	e.settle()
}
