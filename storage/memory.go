package storage

import (
	"context"
	"sync"

	"flowmate/domain"
)

// Memory is a map-backed Gateway for embedding and tests. All reads and
// writes deep-copy so callers never share slices with the store.
type Memory struct {
	mu      sync.Mutex
	tasks   map[string]domain.Task
	order   []string
	columns []domain.Column
	rules   []domain.Rule
}

// NewMemory creates an empty in-memory gateway.
func NewMemory() *Memory {
	return &Memory{tasks: map[string]domain.Task{}}
}

func (m *Memory) LoadAll(ctx context.Context) (domain.Snapshot, error) {
	return m.ExportAll(ctx)
}

func (m *Memory) ReplaceAllTasksAndColumns(_ context.Context, columns []domain.Column) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := domain.Flatten(columns)
	m.tasks = map[string]domain.Task{}
	m.order = m.order[:0]
	for _, t := range snap.Tasks {
		m.tasks[t.ID] = t
		m.order = append(m.order, t.ID)
	}
	m.columns = snap.Columns
	return nil
}

func (m *Memory) ReplaceAllRules(_ context.Context, rules []domain.Rule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = domain.CloneRules(rules)
	return nil
}

func (m *Memory) AddTask(_ context.Context, task domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.tasks[task.ID]; !exists {
		m.order = append(m.order, task.ID)
	}
	m.tasks[task.ID] = task.Clone()
	return nil
}

func (m *Memory) UpdateTask(_ context.Context, task domain.Task) error {
	return m.AddTask(context.Background(), task)
}

func (m *Memory) DeleteTask(_ context.Context, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, taskID)
	for i, id := range m.order {
		if id == taskID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) ExportAll(_ context.Context) (domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := domain.Snapshot{
		Tasks:   make([]domain.Task, 0, len(m.order)),
		Columns: domain.CloneColumns(m.columns),
		Rules:   domain.CloneRules(m.rules),
	}
	if snap.Columns == nil {
		snap.Columns = []domain.Column{}
	}
	if snap.Rules == nil {
		snap.Rules = []domain.Rule{}
	}
	for _, id := range m.order {
		snap.Tasks = append(snap.Tasks, m.tasks[id].Clone())
	}
	return snap, nil
}

func (m *Memory) ImportAll(_ context.Context, snap domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tasks = map[string]domain.Task{}
	m.order = m.order[:0]
	for _, t := range snap.Tasks {
		m.tasks[t.ID] = t.Clone()
		m.order = append(m.order, t.ID)
	}
	m.columns = domain.CloneColumns(snap.Columns)
	m.rules = domain.CloneRules(snap.Rules)
	return nil
}

func (m *Memory) ClearTasks(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = map[string]domain.Task{}
	m.order = m.order[:0]
	return nil
}
