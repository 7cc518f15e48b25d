package task

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-playground/validator/v10"

	"github.com/attendix/attendix/core"
)

// Status labels
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// Task is one persisted occurrence of a task series.
type Task struct {
	ID                int            `json:"id"`
	EmployeeID        int            `json:"employee_id"`
	Title             string         `json:"title"`
	Description       string         `json:"description"`
	DueDate           civil.Date     `json:"due_date"`
	Attachment        string         `json:"attachment"`
	WorkspaceID       *int           `json:"workspace_id"`
	WorkspaceName     string         `json:"workspace_name"`
	RecurrenceType    RecurrenceType `json:"recurrence_type"`
	RecurrenceDays    string         `json:"recurrence_days"`
	RecurrenceEndDate *civil.Date    `json:"recurrence_end_date"`
	IsCompleted       bool           `json:"is_completed"`
	Status            string         `json:"status"`
	CreatedAt         time.Time      `json:"created_at"` // UTC
	UpdatedAt         time.Time      `json:"updated_at"` // UTC
}

// NewTask is the row inserted for one occurrence.
type NewTask struct {
	EmployeeID        int
	Title             string
	Description       string
	DueDate           civil.Date
	Attachment        string
	WorkspaceID       *int
	WorkspaceName     string
	RecurrenceType    RecurrenceType
	RecurrenceDays    string
	RecurrenceEndDate *civil.Date
	Status            string
	CreatedAt         time.Time
}

// series is the metadata shared by every occurrence generated from one request.
type series struct {
	employeeID    int
	title         string
	description   string
	attachment    string
	workspaceID   *int
	workspaceName string
	rule          Rule
}

func (s series) occurrence(due civil.Date, now time.Time) NewTask {
	nt := NewTask{
		EmployeeID:     s.employeeID,
		Title:          s.title,
		Description:    s.description,
		DueDate:        due,
		Attachment:     s.attachment,
		WorkspaceID:    s.workspaceID,
		WorkspaceName:  s.workspaceName,
		RecurrenceType: s.rule.Type,
		RecurrenceDays: s.rule.Days(),
		Status:         StatusPending,
		CreatedAt:      now,
	}
	if s.rule.HasEnd() {
		end := s.rule.End
		nt.RecurrenceEndDate = &end
	}
	return nt
}

// CreateTask contains the information needed by an employee to create tasks for themselves.
type CreateTask struct {
	Title       string `json:"title" validate:"required,notblank,max=255"`
	Description string `json:"description" validate:"max=5000"`
	Attachment  string `json:"attachment" validate:"max=2048"`
	RecurrenceRequest
}

func (ct *CreateTask) Validate(validate *validator.Validate) error {
	ct.Title = core.CleanString(ct.Title)
	ct.Description = core.CleanString(ct.Description)
	ct.Attachment = core.CleanString(ct.Attachment)
	return validate.Struct(ct)
}

// AssignTask contains the information needed by an admin to assign tasks to an employee.
type AssignTask struct {
	CreateTask
	EmployeeID    int    `json:"employee_id" validate:"required,gt=0"`
	WorkspaceID   *int   `json:"workspace_id" validate:"omitempty,gt=0"`
	WorkspaceName string `json:"workspace_name" validate:"max=255"`
}

func (at *AssignTask) Validate(validate *validator.Validate) error {
	at.Title = core.CleanString(at.Title)
	at.Description = core.CleanString(at.Description)
	at.Attachment = core.CleanString(at.Attachment)
	at.WorkspaceName = core.CleanString(at.WorkspaceName)
	return validate.Struct(at)
}

// StatusUpdate changes the completion of a task.
type StatusUpdate struct {
	TaskID      int    `json:"task_id" validate:"required,gt=0"`
	IsCompleted *bool  `json:"is_completed" validate:"required"`
	Status      string `json:"status" validate:"max=50"`
}

func (su *StatusUpdate) Validate(validate *validator.Validate) error {
	su.Status = core.CleanString(su.Status, true /* lower */)
	if err := validate.Struct(su); err != nil {
		return err
	}
	if su.Status == "" {
		su.Status = StatusPending
		if *su.IsCompleted {
			su.Status = StatusCompleted
		}
	}
	return nil
}

// Filter narrows the organization task listing.
type Filter struct {
	Status string `query:"status" validate:"omitempty,oneof=all completed pending"`
}

func (f *Filter) Validate(validate *validator.Validate) error {
	f.Status = core.CleanString(f.Status, true /* lower */)
	return validate.Struct(f)
}

// Completed returns the completion state to filter on, nil meaning any.
func (f Filter) Completed() *bool {
	var b bool
	switch f.Status {
	case StatusCompleted:
		b = true
	case StatusPending:
		b = false
	default:
		return nil
	}
	return &b
}

// EmployeeTask is a task joined with its owner.
type EmployeeTask struct {
	Task
	EmployeeName  string
	EmployeeEmail string
}

// TaskView decorates a task with a display date.
type TaskView struct {
	Task
	DueDateLabel string `json:"due_date_label"`
}

// EmployeeTasks groups the tasks of one employee.
type EmployeeTasks struct {
	EmployeeID    int        `json:"employee_id"`
	EmployeeName  string     `json:"employee_name"`
	EmployeeEmail string     `json:"employee_email"`
	Tasks         []TaskView `json:"tasks"`
}

// BatchResult is returned after a series of tasks has been created.
type BatchResult struct {
	Count int    `json:"count"`
	Tasks []Task `json:"data"`
}

// DeletedTask is the payload broadcast once a task is deleted.
type DeletedTask struct {
	TaskID      int  `json:"task_id"`
	WorkspaceID *int `json:"workspace_id"`
	EmployeeID  int  `json:"employee_id"`
}

func dueDateLabel(d civil.Date) string {
	return d.In(time.UTC).Format("2 January 2006")
}
