package task

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/attendix/attendix/core"
)

// Events
const (
	EventTaskUpdated = "taskUpdated"
	EventTaskDeleted = "taskDeleted"
)

var (
	// errors
	ErrNotFound           = errors.New("task not found")
	ErrNotOwner           = errors.New("you are not authorized to update this task")
	ErrNotDeletable       = errors.New("only tasks due today or later can be deleted, and you must have permission")
	ErrEmployeeNotInOrg   = errors.New("employee not found in your organization")
	ErrWorkspaceNotInOrg  = errors.New("workspace not found in your organization")
	ErrNoEmployeeIdentity = errors.New("only employees can create their own tasks")
)

// TransactionAbortedError is returned when a batch of occurrences could not be stored.
// Nothing from the batch was persisted.
type TransactionAbortedError struct {
	Err error
}

func (e *TransactionAbortedError) Error() string {
	return "task batch aborted: " + e.Err.Error()
}

func (e *TransactionAbortedError) Unwrap() error { return e.Err }

type (
	// Tx is a unit of work inserting task occurrences.
	Tx interface {
		core.UnitOfWork

		InsertTask(ctx context.Context, nt NewTask) (Task, error)
	}

	Repository interface {
		Begin(ctx context.Context) (Tx, error)
		EmployeeInOrganization(ctx context.Context, employeeID, organizationID int) (bool, error)
		WorkspaceInOrganization(ctx context.Context, workspaceID, organizationID int) (bool, error)
		QueryByEmployee(ctx context.Context, employeeID int) ([]Task, error)
		// QueryByOrganization returns tasks ordered by employee name then due date.
		QueryByOrganization(ctx context.Context, organizationID int, completed *bool) ([]EmployeeTask, error)
		// UpdateStatus returns ErrNotFound when the task is outside scope.
		UpdateStatus(ctx context.Context, scope Scope, upd StatusUpdate, now time.Time) (Task, error)
		// DeleteUpcoming deletes a task due on or after today; ErrNotFound otherwise or when outside scope.
		DeleteUpcoming(ctx context.Context, scope Scope, id int, today civil.Date) (Task, error)
	}

	Service struct {
		repo        Repository
		broadcaster core.Broadcaster
		logger      core.Logger
		loc         *time.Location
	}
)

func NewService(repo Repository, broadcaster core.Broadcaster, logger core.Logger, conf *core.Config) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(broadcaster, "broadcaster"),
		vala.IsNotNil(logger, "logger"),
		vala.IsNotNil(conf, "conf"),
	).CheckAndPanic()

	return &Service{
		repo:        repo,
		broadcaster: broadcaster,
		logger:      logger,
		loc:         conf.Location(),
	}
}

// Create creates the occurrences of a task series owned by the acting employee.
func (svc *Service) Create(ctx context.Context, actor core.Actor, ct CreateTask) ([]Task, error) {
	if actor.EmployeeID == 0 {
		return nil, core.NewValidationError(ErrNoEmployeeIdentity)
	}
	s := series{
		employeeID:  actor.EmployeeID,
		title:       ct.Title,
		description: ct.Description,
		attachment:  ct.Attachment,
	}
	return svc.createSeries(ctx, s, ct.RecurrenceRequest)
}

// Assign creates the occurrences of a task series for an employee of the admin's organization.
func (svc *Service) Assign(ctx context.Context, actor core.Actor, at AssignTask) ([]Task, error) {
	if !actor.IsAdmin() {
		return nil, core.ErrForbidden
	}
	ok, err := svc.repo.EmployeeInOrganization(ctx, at.EmployeeID, actor.OrganizationID)
	if err != nil {
		return nil, errors.Wrap(err, "checking employee organization")
	}
	if !ok {
		return nil, core.NewFieldError("employee_id", ErrEmployeeNotInOrg)
	}
	if at.WorkspaceID != nil {
		ok, err = svc.repo.WorkspaceInOrganization(ctx, *at.WorkspaceID, actor.OrganizationID)
		if err != nil {
			return nil, errors.Wrap(err, "checking workspace organization")
		}
		if !ok {
			return nil, core.NewFieldError("workspace_id", ErrWorkspaceNotInOrg)
		}
	}
	s := series{
		employeeID:    at.EmployeeID,
		title:         at.Title,
		description:   at.Description,
		attachment:    at.Attachment,
		workspaceID:   at.WorkspaceID,
		workspaceName: at.WorkspaceName,
	}
	return svc.createSeries(ctx, s, at.RecurrenceRequest)
}

func (svc *Service) createSeries(ctx context.Context, s series, req RecurrenceRequest) ([]Task, error) {
	rule, err := Normalize(req)
	if err != nil {
		return nil, err
	}
	s.rule = rule
	return svc.instantiate(ctx, s, Expand(rule))
}

// instantiate inserts one row per date inside a single unit of work, all or nothing.
func (svc *Service) instantiate(ctx context.Context, s series, dates []civil.Date) ([]Task, error) {
	tx, err := svc.repo.Begin(ctx)
	if err != nil {
		return nil, &TransactionAbortedError{Err: errors.Wrap(err, "beginning transaction")}
	}

	now := core.NowFunc().UTC()
	created := make([]Task, 0, len(dates))
	for _, due := range dates {
		t, err := tx.InsertTask(ctx, s.occurrence(due, now))
		if err != nil {
			svc.rollback(tx)
			return nil, &TransactionAbortedError{Err: errors.Wrapf(err, "inserting occurrence %s", due)}
		}
		created = append(created, t)
	}

	if err := tx.Commit(); err != nil {
		svc.rollback(tx)
		return nil, &TransactionAbortedError{Err: errors.Wrap(err, "committing transaction")}
	}
	return created, nil
}

func (svc *Service) rollback(tx Tx) {
	if err := tx.Rollback(); err != nil {
		svc.logger.Warn("rolling back task batch", err)
	}
}

// ForEmployee returns the tasks of an employee ordered by due date.
func (svc *Service) ForEmployee(ctx context.Context, employeeID int) ([]Task, error) {
	tasks, err := svc.repo.QueryByEmployee(ctx, employeeID)
	if err != nil {
		return nil, errors.Wrap(err, "querying employee tasks")
	}
	return tasks, nil
}

// ForOrganization returns the tasks of the organization grouped by employee, in first-seen order.
func (svc *Service) ForOrganization(ctx context.Context, organizationID int, filter Filter) ([]EmployeeTasks, error) {
	rows, err := svc.repo.QueryByOrganization(ctx, organizationID, filter.Completed())
	if err != nil {
		return nil, errors.Wrap(err, "querying organization tasks")
	}

	groups := make([]EmployeeTasks, 0)
	index := make(map[int]int)
	for _, row := range rows {
		i, ok := index[row.EmployeeID]
		if !ok {
			i = len(groups)
			index[row.EmployeeID] = i
			groups = append(groups, EmployeeTasks{
				EmployeeID:    row.EmployeeID,
				EmployeeName:  row.EmployeeName,
				EmployeeEmail: row.EmployeeEmail,
			})
		}
		groups[i].Tasks = append(groups[i].Tasks, TaskView{Task: row.Task, DueDateLabel: dueDateLabel(row.DueDate)})
	}
	return groups, nil
}

// UpdateStatus changes the completion of a task the actor is allowed to manage.
func (svc *Service) UpdateStatus(ctx context.Context, actor core.Actor, upd StatusUpdate) (Task, error) {
	t, err := svc.repo.UpdateStatus(ctx, ScopeOf(actor), upd, core.NowFunc().UTC())
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			if actor.IsAdmin() {
				return Task{}, ErrNotFound
			}
			return Task{}, ErrNotOwner
		}
		return Task{}, errors.Wrap(err, "updating task status")
	}

	svc.broadcaster.Broadcast(core.Event{Name: EventTaskUpdated, OrganizationID: actor.OrganizationID, Payload: t})
	return t, nil
}

// Delete removes a task due today or later (business time zone).
func (svc *Service) Delete(ctx context.Context, actor core.Actor, id int) (Task, error) {
	t, err := svc.repo.DeleteUpcoming(ctx, ScopeOf(actor), id, core.Today(svc.loc))
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Task{}, core.NewValidationError(ErrNotDeletable)
		}
		return Task{}, errors.Wrap(err, "deleting task")
	}

	svc.broadcaster.Broadcast(core.Event{
		Name:           EventTaskDeleted,
		OrganizationID: actor.OrganizationID,
		Payload:        DeletedTask{TaskID: t.ID, WorkspaceID: t.WorkspaceID, EmployeeID: t.EmployeeID},
	})
	return t, nil
}
