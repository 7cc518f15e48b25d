package pgrepos

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/attendix/attendix/core"
	"github.com/attendix/attendix/core/task"
)

var taskColumns = []string{
	"id", "employee_id", "title", "description", "due_date", "attachment", "workspace_id", "workspace_name",
	"recurrence_type", "recurrence_days", "recurrence_end_date", "is_completed", "status", "created_at", "updated_at",
}

func prefixed(alias string, cols []string) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		out = append(out, alias+"."+c)
	}
	return out
}

type taskRow struct {
	ID                int         `db:"id"`
	EmployeeID        int         `db:"employee_id"`
	Title             string      `db:"title"`
	Description       string      `db:"description"`
	DueDate           time.Time   `db:"due_date"`
	Attachment        string      `db:"attachment"`
	WorkspaceID       null.Int    `db:"workspace_id"`
	WorkspaceName     string      `db:"workspace_name"`
	RecurrenceType    string      `db:"recurrence_type"`
	RecurrenceDays    string      `db:"recurrence_days"`
	RecurrenceEndDate null.Time   `db:"recurrence_end_date"`
	IsCompleted       bool        `db:"is_completed"`
	Status            string      `db:"status"`
	CreatedAt         time.Time   `db:"created_at"`
	UpdatedAt         time.Time   `db:"updated_at"`
	EmployeeName      null.String `db:"employee_name"`
	EmployeeEmail     null.String `db:"employee_email"`
}

func (r taskRow) task() task.Task {
	t := task.Task{
		ID:             r.ID,
		EmployeeID:     r.EmployeeID,
		Title:          r.Title,
		Description:    r.Description,
		DueDate:        dateOf(r.DueDate),
		Attachment:     r.Attachment,
		WorkspaceID:    r.WorkspaceID.Ptr(),
		WorkspaceName:  r.WorkspaceName,
		RecurrenceType: task.RecurrenceType(r.RecurrenceType),
		RecurrenceDays: r.RecurrenceDays,
		IsCompleted:    r.IsCompleted,
		Status:         r.Status,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
	if r.RecurrenceEndDate.Valid {
		end := dateOf(r.RecurrenceEndDate.Time)
		t.RecurrenceEndDate = &end
	}
	return t
}

type taskRepository struct {
	db core.DB
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(db core.DB) task.Repository {
	return &taskRepository{db: db}
}

type taskTx struct {
	*sqlx.Tx
}

var _ task.Tx = (*taskTx)(nil)

func (repo *taskRepository) Begin(ctx context.Context) (task.Tx, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(connDone(err), "beginning transaction")
	}
	return &taskTx{Tx: tx}, nil
}

func (tx *taskTx) InsertTask(ctx context.Context, nt task.NewTask) (task.Task, error) {
	var end interface{}
	if nt.RecurrenceEndDate != nil {
		end = nt.RecurrenceEndDate.String()
	}
	b := psql.Insert("tasks").
		SetMap(map[string]interface{}{
			"employee_id":         nt.EmployeeID,
			"title":               nt.Title,
			"description":         nt.Description,
			"due_date":            nt.DueDate.String(),
			"attachment":          nt.Attachment,
			"workspace_id":        null.IntFromPtr(nt.WorkspaceID),
			"workspace_name":      nt.WorkspaceName,
			"recurrence_type":     string(nt.RecurrenceType),
			"recurrence_days":     nt.RecurrenceDays,
			"recurrence_end_date": end,
			"is_completed":        false,
			"status":              nt.Status,
			"created_at":          nt.CreatedAt.UTC(),
			"updated_at":          nt.CreatedAt.UTC(),
		}).
		Suffix("RETURNING " + strings.Join(taskColumns, ", "))

	var row taskRow
	if err := get(ctx, tx.Tx, &row, b); err != nil {
		return task.Task{}, errors.Wrap(err, "inserting task")
	}
	return row.task(), nil
}

func (repo *taskRepository) EmployeeInOrganization(ctx context.Context, employeeID, organizationID int) (bool, error) {
	return employeeInOrganization(ctx, repo.db, employeeID, organizationID)
}

func (repo *taskRepository) WorkspaceInOrganization(ctx context.Context, workspaceID, organizationID int) (bool, error) {
	var found bool
	b := psql.Select("1").
		Prefix("SELECT EXISTS (").
		From("workspaces").
		Where(sq.Eq{"id": workspaceID, "organization_id": organizationID}).
		Suffix(")")
	if err := get(ctx, repo.db, &found, b); err != nil {
		return false, errors.Wrap(err, "checking workspace organization")
	}
	return found, nil
}

func (repo *taskRepository) QueryByEmployee(ctx context.Context, employeeID int) ([]task.Task, error) {
	var rows []taskRow
	b := psql.Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"employee_id": employeeID}).
		OrderBy("due_date ASC", "id ASC")
	if err := selectAll(ctx, repo.db, &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying employee tasks")
	}
	tasks := make([]task.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.task())
	}
	return tasks, nil
}

func (repo *taskRepository) QueryByOrganization(ctx context.Context, organizationID int, completed *bool) ([]task.EmployeeTask, error) {
	b := psql.Select(append(prefixed("t", taskColumns), "e.name AS employee_name", "e.email AS employee_email")...).
		From("tasks t").
		Join("employees e ON e.id = t.employee_id").
		Where(sq.Eq{"e.organization_id": organizationID}).
		OrderBy("e.name ASC", "t.employee_id ASC", "t.due_date ASC", "t.id ASC")
	if completed != nil {
		b = b.Where(sq.Eq{"t.is_completed": *completed})
	}

	var rows []taskRow
	if err := selectAll(ctx, repo.db, &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying organization tasks")
	}
	tasks := make([]task.EmployeeTask, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, task.EmployeeTask{
			Task:          r.task(),
			EmployeeName:  r.EmployeeName.String,
			EmployeeEmail: r.EmployeeEmail.String,
		})
	}
	return tasks, nil
}

// scoped restricts a tasks statement to the tasks s allows.
func scoped(s task.Scope) sq.Sqlizer {
	cond := sq.And{sq.Expr("employee_id IN (SELECT id FROM employees WHERE organization_id = ?)", s.OrganizationID)}
	if !s.AllEmployees {
		cond = append(cond, sq.Eq{"employee_id": s.EmployeeID})
	}
	return cond
}

func (repo *taskRepository) UpdateStatus(ctx context.Context, scope task.Scope, upd task.StatusUpdate, now time.Time) (task.Task, error) {
	if !scope.AllEmployees && scope.EmployeeID == 0 {
		return task.Task{}, task.ErrNotFound
	}
	b := psql.Update("tasks").
		SetMap(map[string]interface{}{
			"is_completed": *upd.IsCompleted,
			"status":       upd.Status,
			"updated_at":   now.UTC(),
		}).
		Where(sq.Eq{"id": upd.TaskID}).
		Where(scoped(scope)).
		Suffix("RETURNING " + strings.Join(taskColumns, ", "))

	var row taskRow
	if err := get(ctx, repo.db, &row, b); err != nil {
		return task.Task{}, trapNoRows(err, task.ErrNotFound, "updating task status")
	}
	return row.task(), nil
}

func (repo *taskRepository) DeleteUpcoming(ctx context.Context, scope task.Scope, id int, today civil.Date) (task.Task, error) {
	if !scope.AllEmployees && scope.EmployeeID == 0 {
		return task.Task{}, task.ErrNotFound
	}
	b := psql.Delete("tasks").
		Where(sq.Eq{"id": id}).
		Where(sq.GtOrEq{"due_date": today.String()}).
		Where(scoped(scope)).
		Suffix("RETURNING " + strings.Join(taskColumns, ", "))

	var row taskRow
	if err := get(ctx, repo.db, &row, b); err != nil {
		return task.Task{}, trapNoRows(err, task.ErrNotFound, "deleting task")
	}
	return row.task(), nil
}
