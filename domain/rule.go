package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ConditionType discriminates the condition variants a rule may carry.
type ConditionType string

const (
	ConditionDueDate           ConditionType = "due-date"
	ConditionSubtasksCompleted ConditionType = "subtasks-completed"
	ConditionCustomField       ConditionType = "custom-field"
)

// Operator selects the comparison applied by a condition.
type Operator string

const (
	OperatorIsOverdue    Operator = "is-overdue"
	OperatorAllCompleted Operator = "all-completed"
	OperatorEquals       Operator = "equals"
	OperatorNotEquals    Operator = "not-equals"
	OperatorContains     Operator = "contains"
)

// ActionType discriminates rule actions. Move-to-column is currently the
// only variant.
type ActionType string

const ActionMoveToColumn ActionType = "move-to-column"

// Condition is the tagged predicate side of a rule. Field and Value are
// only meaningful for the custom-field variant.
type Condition struct {
	Type     ConditionType `json:"type"`
	Operator Operator      `json:"operator"`
	Field    string        `json:"field,omitempty"`
	Value    string        `json:"value,omitempty"`
}

// Action is the tagged effect side of a rule.
type Action struct {
	Type           ActionType `json:"type"`
	TargetColumnID string     `json:"targetColumnId"`
}

// Rule relocates tasks matching its condition into the action's target
// column.
type Rule struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Condition Condition `json:"condition"`
	Action    Action    `json:"action"`
	Enabled   bool      `json:"enabled"`
}

// NewRuleID returns a fresh rule identifier.
func NewRuleID() string { return "rule-" + uuid.NewString() }

// Matches evaluates the rule's condition against a task at the given
// moment. Unknown variants never match.
func (r Rule) Matches(t Task, now time.Time) bool {
	switch r.Condition.Type {
	case ConditionDueDate:
		return r.Condition.Operator == OperatorIsOverdue && t.Overdue(now)
	case ConditionSubtasksCompleted:
		return r.Condition.Operator == OperatorAllCompleted && t.AllSubtasksDone()
	case ConditionCustomField:
		field, ok := t.Field(r.Condition.Field)
		if !ok {
			return false
		}
		switch r.Condition.Operator {
		case OperatorEquals:
			return field.Value == r.Condition.Value
		case OperatorNotEquals:
			return field.Value != r.Condition.Value
		case OperatorContains:
			return strings.Contains(field.Value, r.Condition.Value)
		}
	}
	return false
}

// CloneRules copies a rule list.
func CloneRules(rules []Rule) []Rule {
	if rules == nil {
		return nil
	}
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}
