package domain

import (
	"sort"
	"time"
)

// Snapshot is the flat persisted form of the board: tasks detached from
// their columns, columns carrying empty task lists. It is also the
// export/import wire shape.
type Snapshot struct {
	Tasks   []Task   `json:"tasks"`
	Columns []Column `json:"columns"`
	Rules   []Rule   `json:"rules"`
}

// Clone deep-copies the snapshot.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Tasks:   CloneTasks(s.Tasks),
		Columns: CloneColumns(s.Columns),
		Rules:   CloneRules(s.Rules),
	}
}

// Regroup rebuilds the nested column arrangement from a flat snapshot: each
// column receives the tasks whose status equals its title, ordered by
// creation time ascending. Tasks whose status matches no column are dropped;
// the loader cannot place them.
func Regroup(s Snapshot) []Column {
	columns := CloneColumns(s.Columns)
	for i := range columns {
		columns[i].Tasks = []Task{}
	}
	for _, t := range s.Tasks {
		if i := findColumnByTitle(columns, t.Status); i != -1 {
			columns[i].Tasks = append(columns[i].Tasks, t.Clone())
		}
	}
	for i := range columns {
		tasks := columns[i].Tasks
		sort.SliceStable(tasks, func(a, b int) bool {
			return createdAtOf(tasks[a]).Before(createdAtOf(tasks[b]))
		})
	}
	return columns
}

// Flatten is the inverse of Regroup: tasks are pulled out of their columns
// in board order and the columns are stripped to empty task lists.
func Flatten(columns []Column) Snapshot {
	snap := Snapshot{Tasks: []Task{}, Columns: make([]Column, 0, len(columns))}
	for _, c := range columns {
		for _, t := range c.Tasks {
			snap.Tasks = append(snap.Tasks, t.Clone())
		}
		stripped := c.Clone()
		stripped.Tasks = []Task{}
		snap.Columns = append(snap.Columns, stripped)
	}
	return snap
}

func createdAtOf(t Task) time.Time {
	ts, err := time.Parse(time.RFC3339, t.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return ts
}
