package board

import (
	log "github.com/sirupsen/logrus"

	"flowmate/domain"
)

// Notifier receives user-facing signals from the engine. Implementations
// must return quickly; calls happen on the mutating goroutine.
type Notifier interface {
	// RuleApplied fires once per automated move.
	RuleApplied(task domain.Task, columnTitle, ruleName string)
	// PersistenceFailed reports a gateway call that was lost. The in-memory
	// state is still authoritative when this fires.
	PersistenceFailed(op string, err error)
}

// LogNotifier routes notifications to a logrus logger.
type LogNotifier struct {
	Logger *log.Logger
}

func (n LogNotifier) RuleApplied(task domain.Task, columnTitle, ruleName string) {
	n.Logger.WithFields(log.Fields{
		"task":   task.Title,
		"column": columnTitle,
		"rule":   ruleName,
	}).Info("task moved automatically")
}

func (n LogNotifier) PersistenceFailed(op string, err error) {
	n.Logger.WithError(err).WithField("op", op).Error("failed to save changes")
}
