package domain

import (
	"fmt"
	"strings"
)

// ValidationError reports a recoverable integrity problem with an entity.
// Callers decide policy; nothing in this package panics on bad data.
type ValidationError struct {
	Entity string
	ID     string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s invalid: %s", e.Entity, e.Reason)
	}
	return fmt.Sprintf("%s %q invalid: %s", e.Entity, e.ID, e.Reason)
}

func invalid(entity, id, reason string) *ValidationError {
	return &ValidationError{Entity: entity, ID: id, Reason: reason}
}

// ValidateTask checks required fields and, when columns are supplied, that
// the task's status resolves to an existing column title.
func ValidateTask(t Task, columns []Column) error {
	if t.ID == "" {
		return invalid("task", "", "missing id")
	}
	if strings.TrimSpace(t.Title) == "" {
		return invalid("task", t.ID, "empty title")
	}
	if t.CreatedAt == "" {
		return invalid("task", t.ID, "missing createdAt")
	}
	if columns != nil && findColumnByTitle(columns, t.Status) == -1 {
		return invalid("task", t.ID, fmt.Sprintf("status %q matches no column", t.Status))
	}
	return nil
}

// ValidateColumn checks required fields and title uniqueness against the
// supplied siblings.
func ValidateColumn(c Column, siblings []Column) error {
	if c.ID == "" {
		return invalid("column", "", "missing id")
	}
	if strings.TrimSpace(c.Title) == "" {
		return invalid("column", c.ID, "empty title")
	}
	for _, other := range siblings {
		if other.ID != c.ID && other.Title == c.Title {
			return invalid("column", c.ID, fmt.Sprintf("duplicate title %q", c.Title))
		}
	}
	return nil
}

// ValidateRule checks required fields, that the condition and action carry
// known variants, and, when columns are supplied, that the action's target
// column exists.
func ValidateRule(r Rule, columns []Column) error {
	if r.ID == "" {
		return invalid("rule", "", "missing id")
	}
	if strings.TrimSpace(r.Name) == "" {
		return invalid("rule", r.ID, "empty name")
	}
	switch r.Condition.Type {
	case ConditionDueDate:
		if r.Condition.Operator != OperatorIsOverdue {
			return invalid("rule", r.ID, fmt.Sprintf("operator %q not valid for due-date", r.Condition.Operator))
		}
	case ConditionSubtasksCompleted:
		if r.Condition.Operator != OperatorAllCompleted {
			return invalid("rule", r.ID, fmt.Sprintf("operator %q not valid for subtasks-completed", r.Condition.Operator))
		}
	case ConditionCustomField:
		switch r.Condition.Operator {
		case OperatorEquals, OperatorNotEquals, OperatorContains:
		default:
			return invalid("rule", r.ID, fmt.Sprintf("operator %q not valid for custom-field", r.Condition.Operator))
		}
		if r.Condition.Field == "" {
			return invalid("rule", r.ID, "custom-field condition missing field name")
		}
	default:
		return invalid("rule", r.ID, fmt.Sprintf("unknown condition type %q", r.Condition.Type))
	}
	if r.Action.Type != ActionMoveToColumn {
		return invalid("rule", r.ID, fmt.Sprintf("unknown action type %q", r.Action.Type))
	}
	if r.Action.TargetColumnID == "" {
		return invalid("rule", r.ID, "action missing target column")
	}
	if columns != nil && findColumnByID(columns, r.Action.TargetColumnID) == -1 {
		return invalid("rule", r.ID, fmt.Sprintf("target column %q does not exist", r.Action.TargetColumnID))
	}
	return nil
}

func findColumnByID(columns []Column, id string) int {
	for i, c := range columns {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func findColumnByTitle(columns []Column, title string) int {
	for i, c := range columns {
		if c.Title == title {
			return i
		}
	}
	return -1
}
