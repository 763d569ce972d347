package storage

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"flowmate/domain"
)

// boardPartition is the fixed partition key for every entity. The board is
// single-user, so one partition per table is enough.
const boardPartition = "board"

// Tables is an Azure Table Storage backed Gateway with one table per
// collection.
type Tables struct {
	taskTable   *aztables.Client
	columnTable *aztables.Client
	ruleTable   *aztables.Client
}

// NewTables creates a Tables gateway from the given connection string.
func NewTables(connStr, tasksTable, columnsTable, rulesTable string) (*Tables, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return &Tables{
		taskTable:   svc.NewClient(tasksTable),
		columnTable: svc.NewClient(columnsTable),
		ruleTable:   svc.NewClient(rulesTable),
	}, nil
}

// Table entities keep nested lists as JSON strings since Table Storage
// properties are flat.
type taskEntity struct {
	aztables.Entity
	Title        string `json:"Title"`
	Description  string `json:"Description"`
	Status       string `json:"Status"`
	DueDate      string `json:"DueDate"`
	Subtasks     string `json:"Subtasks"`
	CustomFields string `json:"CustomFields"`
	CreatedAt    string `json:"CreatedAt"`
}

type columnEntity struct {
	aztables.Entity
	Title string `json:"Title"`
	Color string `json:"Color"`
	Rank  int    `json:"Rank"`
}

type ruleEntity struct {
	aztables.Entity
	Name      string `json:"Name"`
	Condition string `json:"Condition"`
	Action    string `json:"Action"`
	Enabled   bool   `json:"Enabled"`
}

func encodeTask(t domain.Task) (taskEntity, error) {
	subs, err := json.Marshal(t.Subtasks)
	if err != nil {
		return taskEntity{}, err
	}
	fields, err := json.Marshal(t.CustomFields)
	if err != nil {
		return taskEntity{}, err
	}
	return taskEntity{
		Entity:       aztables.Entity{PartitionKey: boardPartition, RowKey: t.ID},
		Title:        t.Title,
		Description:  t.Description,
		Status:       t.Status,
		DueDate:      t.DueDate,
		Subtasks:     string(subs),
		CustomFields: string(fields),
		CreatedAt:    t.CreatedAt,
	}, nil
}

func decodeTask(data []byte) (domain.Task, error) {
	var ent taskEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Task{}, err
	}
	t := domain.Task{
		ID:           ent.RowKey,
		Title:        ent.Title,
		Description:  ent.Description,
		Status:       ent.Status,
		DueDate:      ent.DueDate,
		Subtasks:     []domain.Subtask{},
		CustomFields: []domain.CustomField{},
		CreatedAt:    ent.CreatedAt,
	}
	if ent.Subtasks != "" {
		if err := json.Unmarshal([]byte(ent.Subtasks), &t.Subtasks); err != nil {
			return domain.Task{}, err
		}
	}
	if ent.CustomFields != "" {
		if err := json.Unmarshal([]byte(ent.CustomFields), &t.CustomFields); err != nil {
			return domain.Task{}, err
		}
	}
	return t, nil
}

func encodeRule(r domain.Rule) (ruleEntity, error) {
	cond, err := json.Marshal(r.Condition)
	if err != nil {
		return ruleEntity{}, err
	}
	act, err := json.Marshal(r.Action)
	if err != nil {
		return ruleEntity{}, err
	}
	return ruleEntity{
		Entity:    aztables.Entity{PartitionKey: boardPartition, RowKey: r.ID},
		Name:      r.Name,
		Condition: string(cond),
		Action:    string(act),
		Enabled:   r.Enabled,
	}, nil
}

func decodeRule(data []byte) (domain.Rule, error) {
	var ent ruleEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Rule{}, err
	}
	r := domain.Rule{ID: ent.RowKey, Name: ent.Name, Enabled: ent.Enabled}
	if ent.Condition != "" {
		if err := json.Unmarshal([]byte(ent.Condition), &r.Condition); err != nil {
			return domain.Rule{}, err
		}
	}
	if ent.Action != "" {
		if err := json.Unmarshal([]byte(ent.Action), &r.Action); err != nil {
			return domain.Rule{}, err
		}
	}
	return r, nil
}

func (s *Tables) LoadAll(ctx context.Context) (domain.Snapshot, error) {
	return s.ExportAll(ctx)
}

func (s *Tables) ExportAll(ctx context.Context) (domain.Snapshot, error) {
	snap := domain.Snapshot{Tasks: []domain.Task{}, Columns: []domain.Column{}, Rules: []domain.Rule{}}

	if err := s.listEntities(ctx, s.taskTable, func(raw []byte) error {
		t, err := decodeTask(raw)
		if err != nil {
			return err
		}
		snap.Tasks = append(snap.Tasks, t)
		return nil
	}); err != nil {
		return domain.Snapshot{}, err
	}

	type rankedColumn struct {
		col  domain.Column
		rank int
	}
	ranked := []rankedColumn{}
	if err := s.listEntities(ctx, s.columnTable, func(raw []byte) error {
		var ent columnEntity
		if err := json.Unmarshal(raw, &ent); err != nil {
			return err
		}
		ranked = append(ranked, rankedColumn{
			col:  domain.Column{ID: ent.RowKey, Title: ent.Title, Color: ent.Color, Tasks: []domain.Task{}},
			rank: ent.Rank,
		})
		return nil
	}); err != nil {
		return domain.Snapshot{}, err
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].rank < ranked[j].rank })
	for _, rc := range ranked {
		snap.Columns = append(snap.Columns, rc.col)
	}

	if err := s.listEntities(ctx, s.ruleTable, func(raw []byte) error {
		r, err := decodeRule(raw)
		if err != nil {
			return err
		}
		snap.Rules = append(snap.Rules, r)
		return nil
	}); err != nil {
		return domain.Snapshot{}, err
	}
	return snap, nil
}

func (s *Tables) listEntities(ctx context.Context, client *aztables.Client, visit func([]byte) error) error {
	filter := "PartitionKey eq '" + boardPartition + "'"
	pager := client.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return err
		}
		for _, e := range resp.Entities {
			if err := visit(e); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Tables) AddTask(ctx context.Context, task domain.Task) error {
	return s.upsertTask(ctx, task)
}

func (s *Tables) UpdateTask(ctx context.Context, task domain.Task) error {
	return s.upsertTask(ctx, task)
}

func (s *Tables) upsertTask(ctx context.Context, task domain.Task) error {
	ent, err := encodeTask(task)
	if err != nil {
		return err
	}
	data, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	_, err = s.taskTable.UpsertEntity(ctx, data, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	return err
}

func (s *Tables) DeleteTask(ctx context.Context, taskID string) error {
	_, err := s.taskTable.DeleteEntity(ctx, boardPartition, taskID, nil)
	return err
}

func (s *Tables) ReplaceAllTasksAndColumns(ctx context.Context, columns []domain.Column) error {
	return s.writeTasksAndColumns(ctx, domain.Flatten(columns))
}

func (s *Tables) writeTasksAndColumns(ctx context.Context, snap domain.Snapshot) error {
	if err := s.clearTable(ctx, s.taskTable); err != nil {
		return err
	}
	if err := s.clearTable(ctx, s.columnTable); err != nil {
		return err
	}

	for rank, c := range snap.Columns {
		ent := columnEntity{
			Entity: aztables.Entity{PartitionKey: boardPartition, RowKey: c.ID},
			Title:  c.Title,
			Color:  c.Color,
			Rank:   rank,
		}
		data, err := json.Marshal(ent)
		if err != nil {
			return err
		}
		if _, err := s.columnTable.AddEntity(ctx, data, nil); err != nil {
			return err
		}
	}
	for _, t := range snap.Tasks {
		if err := s.upsertTask(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (s *Tables) ReplaceAllRules(ctx context.Context, rules []domain.Rule) error {
	if err := s.clearTable(ctx, s.ruleTable); err != nil {
		return err
	}
	for _, r := range rules {
		ent, err := encodeRule(r)
		if err != nil {
			return err
		}
		data, err := json.Marshal(ent)
		if err != nil {
			return err
		}
		if _, err := s.ruleTable.AddEntity(ctx, data, nil); err != nil {
			return err
		}
	}
	return nil
}

func (s *Tables) ImportAll(ctx context.Context, snap domain.Snapshot) error {
	if err := s.writeTasksAndColumns(ctx, snap); err != nil {
		return err
	}
	return s.ReplaceAllRules(ctx, snap.Rules)
}

func (s *Tables) ClearTasks(ctx context.Context) error {
	return s.clearTable(ctx, s.taskTable)
}

func (s *Tables) clearTable(ctx context.Context, client *aztables.Client) error {
	keys := []string{}
	if err := s.listEntities(ctx, client, func(raw []byte) error {
		var ent struct {
			RowKey string `json:"RowKey"`
		}
		if err := json.Unmarshal(raw, &ent); err != nil {
			return err
		}
		keys = append(keys, ent.RowKey)
		return nil
	}); err != nil {
		return err
	}
	for _, k := range keys {
		if _, err := client.DeleteEntity(ctx, boardPartition, k, nil); err != nil {
			return err
		}
	}
	return nil
}
