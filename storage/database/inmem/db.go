// Package inmemdb implements the repositories in memory, for tests and local runs.
package inmemdb

import (
	"sync"

	"github.com/attendix/attendix/core/attendance"
	"github.com/attendix/attendix/core/employee"
	"github.com/attendix/attendix/core/leave"
	"github.com/attendix/attendix/core/task"
	"github.com/attendix/attendix/core/user"
	"github.com/attendix/attendix/core/workspace"
)

type organization struct {
	ID   int
	Name string
}

// DB holds every table behind one lock.
type DB struct {
	mu    sync.RWMutex
	pkSeq int

	organizations map[int]*organization
	users         map[int]*user.User
	employees     map[int]*employee.Employee
	attendance    map[int]*attendance.Record
	leaves        map[int]*leave.Leave
	workspaces    map[int]*workspace.Workspace
	tasks         map[int]*task.Task

	taskFaults taskFaults
}

// taskFaults makes task insertions fail, for atomicity tests.
type taskFaults struct {
	failAt    int // 1-based index of the insert that fails within a transaction; 0 disables
	err       error
	commitErr error
}

func Open() *DB {
	db := &DB{}
	db.Reset()
	return db
}

// Reset empties every table.
func (db *DB) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.pkSeq = 0
	db.organizations = make(map[int]*organization)
	db.users = make(map[int]*user.User)
	db.employees = make(map[int]*employee.Employee)
	db.attendance = make(map[int]*attendance.Record)
	db.leaves = make(map[int]*leave.Leave)
	db.workspaces = make(map[int]*workspace.Workspace)
	db.tasks = make(map[int]*task.Task)
	db.taskFaults = taskFaults{}
}

// FailTaskInsertAt makes the n-th task insert of every transaction fail with err; n <= 0 disables it.
func (db *DB) FailTaskInsertAt(n int, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.taskFaults.failAt = n
	db.taskFaults.err = err
}

// FailTaskCommit makes task transactions fail to commit with err; nil disables it.
func (db *DB) FailTaskCommit(err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.taskFaults.commitErr = err
}

// nextPK must be called with the lock held.
func (db *DB) nextPK() int {
	db.pkSeq++
	return db.pkSeq
}

// employeeIn must be called with the lock held.
func (db *DB) employeeIn(employeeID, organizationID int) bool {
	emp, ok := db.employees[employeeID]
	return ok && emp.OrganizationID == organizationID
}

// TaskCount returns the number of stored tasks.
func (db *DB) TaskCount() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.tasks)
}
