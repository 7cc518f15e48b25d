package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/attendix/attendix/core"
	"github.com/attendix/attendix/core/leave"
	"github.com/attendix/attendix/core/user"
)

type leaveRepository struct {
	db *DB
}

var _ leave.Repository = (*leaveRepository)(nil)

func NewLeaveRepository(db *DB) leave.Repository {
	return &leaveRepository{db: db}
}

// withEmployee must be called with the lock held.
func (repo *leaveRepository) withEmployee(lv leave.Leave) leave.Leave {
	if emp, ok := repo.db.employees[lv.EmployeeID]; ok {
		lv.EmployeeName = emp.Name
	}
	return lv
}

// query returns the leaves matching keep, newest first; must be called with the lock held.
func (repo *leaveRepository) query(keep func(*leave.Leave) bool) []leave.Leave {
	leaves := make([]leave.Leave, 0)
	for _, lv := range repo.db.leaves {
		if keep(lv) {
			leaves = append(leaves, repo.withEmployee(*lv))
		}
	}
	sort.Slice(leaves, func(i, j int) bool {
		if leaves[i].CreatedAt.Equal(leaves[j].CreatedAt) {
			return leaves[i].ID > leaves[j].ID
		}
		return leaves[i].CreatedAt.After(leaves[j].CreatedAt)
	})
	return leaves
}

func (repo *leaveRepository) CreateLeave(_ context.Context, lv leave.Leave) (leave.Leave, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	lv.ID = repo.db.nextPK()
	repo.db.leaves[lv.ID] = &lv
	return repo.withEmployee(lv), nil
}

func (repo *leaveRepository) QueryByEmployee(_ context.Context, employeeID int) ([]leave.Leave, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.query(func(lv *leave.Leave) bool { return lv.EmployeeID == employeeID }), nil
}

func (repo *leaveRepository) QueryByOrganization(_ context.Context, organizationID int, status string) ([]leave.Leave, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.query(func(lv *leave.Leave) bool {
		return repo.db.employeeIn(lv.EmployeeID, organizationID) && (status == "" || lv.Status == status)
	}), nil
}

func (repo *leaveRepository) GetLeave(_ context.Context, organizationID, id int) (leave.Leave, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	lv, ok := repo.db.leaves[id]
	if !ok || !repo.db.employeeIn(lv.EmployeeID, organizationID) {
		return leave.Leave{}, leave.ErrNotFound
	}
	return repo.withEmployee(*lv), nil
}

func (repo *leaveRepository) UpdateStatus(_ context.Context, id int, status string, reviewerID int, now time.Time) (leave.Leave, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	lv, ok := repo.db.leaves[id]
	if !ok {
		return leave.Leave{}, leave.ErrNotFound
	}
	lv.Status = status
	lv.ReviewedBy = &reviewerID
	lv.UpdatedAt = now
	return repo.withEmployee(*lv), nil
}

func (repo *leaveRepository) GetContact(_ context.Context, employeeID int) (leave.Contact, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	emp, ok := repo.db.employees[employeeID]
	if !ok {
		return leave.Contact{}, leave.ErrNotFound
	}
	c := leave.Contact{EmployeeID: emp.ID, OrganizationID: emp.OrganizationID, Name: emp.Name, Email: emp.Email}
	if org, ok := repo.db.organizations[emp.OrganizationID]; ok {
		c.OrganizationName = org.Name
	}
	return c, nil
}

func (repo *leaveRepository) OrganizationAdmins(_ context.Context, organizationID int) ([]leave.Contact, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	admins := make([]leave.Contact, 0)
	for _, u := range repo.db.users {
		if u.OrganizationID != organizationID || u.Role != core.RoleAdmin || !u.IsActive ||
			u.LoginType != user.LoginEmail || u.Email == "" {
			continue
		}
		c := leave.Contact{EmployeeID: u.EmployeeID, OrganizationID: u.OrganizationID, Name: u.Name, Email: u.Email}
		if org, ok := repo.db.organizations[u.OrganizationID]; ok {
			c.OrganizationName = org.Name
		}
		admins = append(admins, c)
	}
	sort.Slice(admins, func(i, j int) bool { return admins[i].Email < admins[j].Email })
	return admins, nil
}
