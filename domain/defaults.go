package domain

import "time"

// Defaults builds the first-run board: four workflow columns, two enabled
// automation rules wired to them, and sample tasks so a fresh board is not
// empty. Column ids are fixed so the seed rules can reference them.
func Defaults(now time.Time) Snapshot {
	date := func(daysFromNow int) string {
		return now.AddDate(0, 0, daysFromNow).Format(time.RFC3339)
	}

	columns := []Column{
		{ID: "column-1", Title: "To Do", Tasks: []Task{}, Color: "blue"},
		{ID: "column-2", Title: "In Progress", Tasks: []Task{}, Color: "yellow"},
		{ID: "column-3", Title: "Blocked", Tasks: []Task{}, Color: "red"},
		{ID: "column-4", Title: CompletedColumnTitle, Tasks: []Task{}, Color: "green"},
	}

	rules := []Rule{
		{
			ID:   NewRuleID(),
			Name: "Move overdue tasks to Blocked",
			Condition: Condition{
				Type:     ConditionDueDate,
				Operator: OperatorIsOverdue,
			},
			Action: Action{
				Type:           ActionMoveToColumn,
				TargetColumnID: "column-3",
			},
			Enabled: true,
		},
		{
			ID:   NewRuleID(),
			Name: "Move completed tasks when all subtasks done",
			Condition: Condition{
				Type:     ConditionSubtasksCompleted,
				Operator: OperatorAllCompleted,
			},
			Action: Action{
				Type:           ActionMoveToColumn,
				TargetColumnID: "column-4",
			},
			Enabled: true,
		},
	}

	tasks := []Task{
		{
			ID:          NewTaskID(),
			Title:       "Research competitor products",
			Description: "Analyze top competitor products and create a comparison report",
			Status:      "To Do",
			DueDate:     date(5),
			Subtasks: []Subtask{
				{ID: NewSubtaskID(), Title: "Identify top competitors"},
				{ID: NewSubtaskID(), Title: "Create comparison criteria"},
			},
			CustomFields: []CustomField{
				{ID: NewFieldID(), Name: "Priority", Value: "High"},
				{ID: NewFieldID(), Name: "Estimated Hours", Value: "8"},
			},
			CreatedAt: date(-2),
		},
		{
			ID:          NewTaskID(),
			Title:       "Update documentation",
			Description: "Update the user documentation with the latest features",
			Status:      "To Do",
			DueDate:     date(3),
			Subtasks:    []Subtask{},
			CustomFields: []CustomField{
				{ID: NewFieldID(), Name: "Priority", Value: "Low"},
			},
			CreatedAt: date(-3),
		},
		{
			ID:          NewTaskID(),
			Title:       "Implement authentication flow",
			Description: "Create login, registration, and password reset functionality",
			Status:      "In Progress",
			DueDate:     date(2),
			Subtasks: []Subtask{
				{ID: NewSubtaskID(), Title: "Design authentication screens", Completed: true},
				{ID: NewSubtaskID(), Title: "Implement login functionality", Completed: true},
				{ID: NewSubtaskID(), Title: "Implement registration"},
			},
			CustomFields: []CustomField{
				{ID: NewFieldID(), Name: "Priority", Value: "High"},
				{ID: NewFieldID(), Name: "Assigned To", Value: "Michael"},
			},
			CreatedAt: date(-5),
		},
		{
			ID:          NewTaskID(),
			Title:       "Fix payment integration",
			Description: "Resolve issues with the payment provider integration",
			Status:      "Blocked",
			DueDate:     date(-1),
			Subtasks: []Subtask{
				{ID: NewSubtaskID(), Title: "Investigate error logs", Completed: true},
				{ID: NewSubtaskID(), Title: "Update API integration"},
			},
			CustomFields: []CustomField{
				{ID: NewFieldID(), Name: "Priority", Value: "Critical"},
				{ID: NewFieldID(), Name: "Blocker", Value: "Waiting for API documentation"},
			},
			CreatedAt: date(-7),
		},
		{
			ID:          NewTaskID(),
			Title:       "Create project proposal",
			Description: "Draft and finalize the project proposal document",
			Status:      CompletedColumnTitle,
			DueDate:     date(-5),
			Subtasks: []Subtask{
				{ID: NewSubtaskID(), Title: "Research market needs", Completed: true},
				{ID: NewSubtaskID(), Title: "Define project scope", Completed: true},
			},
			CustomFields: []CustomField{
				{ID: NewFieldID(), Name: "Priority", Value: "High"},
			},
			CreatedAt: date(-10),
		},
		{
			ID:          NewTaskID(),
			Title:       "Set up development environment",
			Description: "Configure development, staging, and production environments",
			Status:      CompletedColumnTitle,
			DueDate:     date(-8),
			Subtasks: []Subtask{
				{ID: NewSubtaskID(), Title: "Set up local environment", Completed: true},
				{ID: NewSubtaskID(), Title: "Configure CI pipeline", Completed: true},
			},
			CustomFields: []CustomField{
				{ID: NewFieldID(), Name: "Priority", Value: "Medium"},
			},
			CreatedAt: date(-12),
		},
	}

	return Snapshot{Tasks: tasks, Columns: columns, Rules: rules}
}
