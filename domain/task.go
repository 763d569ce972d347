package domain

import (
	"time"

	"github.com/google/uuid"
)

// Task represents a single board item. Status always mirrors the title of
// the column whose task list currently holds it.
type Task struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description,omitempty"`
	Status       string        `json:"status"`
	DueDate      string        `json:"dueDate,omitempty"`
	Subtasks     []Subtask     `json:"subtasks"`
	CustomFields []CustomField `json:"customFields"`
	CreatedAt    string        `json:"createdAt"`
}

// Subtask is a checklist entry inside a task.
type Subtask struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// CustomField is a free-form name/value pair attached to a task. Names are
// not unique; lookups resolve to the first field with a matching name.
type CustomField struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewTaskID returns a fresh task identifier.
func NewTaskID() string { return "task-" + uuid.NewString() }

// NewSubtaskID returns a fresh subtask identifier.
func NewSubtaskID() string { return "subtask-" + uuid.NewString() }

// NewFieldID returns a fresh custom field identifier.
func NewFieldID() string { return "field-" + uuid.NewString() }

// Overdue reports whether the task's due date is set, parses, and lies
// strictly before now. Tasks already in the terminal Completed column are
// never overdue.
func (t Task) Overdue(now time.Time) bool {
	if t.DueDate == "" || t.Status == CompletedColumnTitle {
		return false
	}
	due, err := time.Parse(time.RFC3339, t.DueDate)
	if err != nil {
		return false
	}
	return due.Before(now)
}

// AllSubtasksDone reports whether the task has at least one subtask and all
// of them are completed. A task with no subtasks never qualifies.
func (t Task) AllSubtasksDone() bool {
	if len(t.Subtasks) == 0 {
		return false
	}
	for _, st := range t.Subtasks {
		if !st.Completed {
			return false
		}
	}
	return true
}

// Field returns the first custom field whose name matches.
func (t Task) Field(name string) (CustomField, bool) {
	for _, f := range t.CustomFields {
		if f.Name == name {
			return f, true
		}
	}
	return CustomField{}, false
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	out := t
	if t.Subtasks != nil {
		out.Subtasks = make([]Subtask, len(t.Subtasks))
		copy(out.Subtasks, t.Subtasks)
	}
	if t.CustomFields != nil {
		out.CustomFields = make([]CustomField, len(t.CustomFields))
		copy(out.CustomFields, t.CustomFields)
	}
	return out
}
