package domain

import "github.com/google/uuid"

// CompletedColumnTitle is the terminal workflow stage. Overdue detection
// skips tasks that already reached it.
const CompletedColumnTitle = "Completed"

// Column is a named, ordered bucket of tasks. Title doubles as the
// cross-reference key for Task.Status and must be unique across the board.
type Column struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Tasks []Task `json:"tasks"`
	Color string `json:"color,omitempty"`
}

// NewColumnID returns a fresh column identifier.
func NewColumnID() string { return "column-" + uuid.NewString() }

// TaskIndex returns the position of the task with the given id, or -1.
func (c Column) TaskIndex(taskID string) int {
	for i, t := range c.Tasks {
		if t.ID == taskID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the column and its tasks.
func (c Column) Clone() Column {
	out := c
	out.Tasks = CloneTasks(c.Tasks)
	return out
}

// CloneTasks deep-copies a task list.
func CloneTasks(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

// CloneColumns deep-copies a column list.
func CloneColumns(cols []Column) []Column {
	if cols == nil {
		return nil
	}
	out := make([]Column, len(cols))
	for i, c := range cols {
		out[i] = c.Clone()
	}
	return out
}
