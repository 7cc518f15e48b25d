package inmemdb

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/pkg/errors"

	"github.com/attendix/attendix/core/task"
)

var errTxDone = errors.New("transaction has already been committed or rolled back")

type taskRepository struct {
	db *DB
}

var _ task.Repository = (*taskRepository)(nil)

func NewTaskRepository(db *DB) task.Repository {
	return &taskRepository{db: db}
}

// taskTx stages inserted tasks until Commit.
type taskTx struct {
	db      *DB
	staged  []*task.Task
	inserts int
	done    bool
}

var _ task.Tx = (*taskTx)(nil)

func (repo *taskRepository) Begin(_ context.Context) (task.Tx, error) {
	return &taskTx{db: repo.db}, nil
}

func (tx *taskTx) InsertTask(_ context.Context, nt task.NewTask) (task.Task, error) {
	if tx.done {
		return task.Task{}, errTxDone
	}
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()

	tx.inserts++
	if f := tx.db.taskFaults; f.failAt > 0 && tx.inserts == f.failAt {
		return task.Task{}, f.err
	}
	if _, ok := tx.db.employees[nt.EmployeeID]; !ok {
		return task.Task{}, errors.Errorf("employee %d does not exist", nt.EmployeeID)
	}

	t := &task.Task{
		ID:                tx.db.nextPK(),
		EmployeeID:        nt.EmployeeID,
		Title:             nt.Title,
		Description:       nt.Description,
		DueDate:           nt.DueDate,
		Attachment:        nt.Attachment,
		WorkspaceID:       nt.WorkspaceID,
		WorkspaceName:     nt.WorkspaceName,
		RecurrenceType:    nt.RecurrenceType,
		RecurrenceDays:    nt.RecurrenceDays,
		RecurrenceEndDate: nt.RecurrenceEndDate,
		Status:            nt.Status,
		CreatedAt:         nt.CreatedAt,
		UpdatedAt:         nt.CreatedAt,
	}
	tx.staged = append(tx.staged, t)
	return *t, nil
}

func (tx *taskTx) Commit() error {
	if tx.done {
		return errTxDone
	}
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()

	if err := tx.db.taskFaults.commitErr; err != nil {
		return err
	}
	for _, t := range tx.staged {
		tx.db.tasks[t.ID] = t
	}
	tx.staged = nil
	tx.done = true
	return nil
}

func (tx *taskTx) Rollback() error {
	if tx.done {
		return errTxDone
	}
	tx.staged = nil
	tx.done = true
	return nil
}

func (repo *taskRepository) EmployeeInOrganization(_ context.Context, employeeID, organizationID int) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.db.employeeIn(employeeID, organizationID), nil
}

func (repo *taskRepository) WorkspaceInOrganization(_ context.Context, workspaceID, organizationID int) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	ws, ok := repo.db.workspaces[workspaceID]
	return ok && ws.OrganizationID == organizationID, nil
}

func sortByDueDate(tasks []task.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].DueDate == tasks[j].DueDate {
			return tasks[i].ID < tasks[j].ID
		}
		return tasks[i].DueDate.Before(tasks[j].DueDate)
	})
}

func (repo *taskRepository) QueryByEmployee(_ context.Context, employeeID int) ([]task.Task, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	tasks := make([]task.Task, 0)
	for _, t := range repo.db.tasks {
		if t.EmployeeID == employeeID {
			tasks = append(tasks, *t)
		}
	}
	sortByDueDate(tasks)
	return tasks, nil
}

func (repo *taskRepository) QueryByOrganization(_ context.Context, organizationID int, completed *bool) ([]task.EmployeeTask, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	tasks := make([]task.Task, 0)
	for _, t := range repo.db.tasks {
		if !repo.db.employeeIn(t.EmployeeID, organizationID) {
			continue
		}
		if completed != nil && t.IsCompleted != *completed {
			continue
		}
		tasks = append(tasks, *t)
	}
	sortByDueDate(tasks)

	out := make([]task.EmployeeTask, 0, len(tasks))
	for _, t := range tasks {
		emp := repo.db.employees[t.EmployeeID]
		out = append(out, task.EmployeeTask{Task: t, EmployeeName: emp.Name, EmployeeEmail: emp.Email})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].EmployeeName != out[j].EmployeeName {
			return out[i].EmployeeName < out[j].EmployeeName
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out, nil
}

// scoped returns the task if s allows it; must be called with the lock held.
func (repo *taskRepository) scoped(s task.Scope, id int) (*task.Task, bool) {
	t, ok := repo.db.tasks[id]
	if !ok {
		return nil, false
	}
	emp, ok := repo.db.employees[t.EmployeeID]
	if !ok || !s.Allows(t.EmployeeID, emp.OrganizationID) {
		return nil, false
	}
	return t, true
}

func (repo *taskRepository) UpdateStatus(_ context.Context, scope task.Scope, upd task.StatusUpdate, now time.Time) (task.Task, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	t, ok := repo.scoped(scope, upd.TaskID)
	if !ok {
		return task.Task{}, task.ErrNotFound
	}
	t.IsCompleted = *upd.IsCompleted
	t.Status = upd.Status
	t.UpdatedAt = now
	return *t, nil
}

func (repo *taskRepository) DeleteUpcoming(_ context.Context, scope task.Scope, id int, today civil.Date) (task.Task, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	t, ok := repo.scoped(scope, id)
	if !ok || t.DueDate.Before(today) {
		return task.Task{}, task.ErrNotFound
	}
	delete(repo.db.tasks, id)
	return *t, nil
}
