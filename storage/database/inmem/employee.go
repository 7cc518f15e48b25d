package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/attendix/attendix/core"
	"github.com/attendix/attendix/core/attendance"
	"github.com/attendix/attendix/core/employee"
	"github.com/attendix/attendix/core/user"
)

type employeeRepository struct {
	db *DB
}

var _ employee.Repository = (*employeeRepository)(nil)

func NewEmployeeRepository(db *DB) employee.Repository {
	return &employeeRepository{db: db}
}

// checkUniqueness must be called with the lock held.
func (repo *employeeRepository) checkUniqueness(organizationID int, email, phone string, excludeID int) error {
	var phoneTaken bool
	for _, emp := range repo.db.employees {
		if emp.OrganizationID != organizationID || emp.ID == excludeID {
			continue
		}
		if email != "" && emp.Email == email {
			return employee.ErrEmailExists
		}
		if emp.Phone == phone {
			phoneTaken = true
		}
	}
	if phoneTaken {
		return employee.ErrPhoneExists
	}
	return nil
}

func (repo *employeeRepository) CheckUniqueness(_ context.Context, organizationID int, email, phone string, excludeID int) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.checkUniqueness(organizationID, email, phone, excludeID)
}

func (repo *employeeRepository) CreateEmployee(_ context.Context, emp employee.Employee) (employee.Employee, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.checkUniqueness(emp.OrganizationID, emp.Email, emp.Phone, 0); err != nil {
		return employee.Employee{}, err
	}
	emp.ID = repo.db.nextPK()
	repo.db.employees[emp.ID] = &emp

	login := user.User{
		ID:             repo.db.nextPK(),
		EmployeeID:     emp.ID,
		OrganizationID: emp.OrganizationID,
		Name:           emp.Name,
		Email:          emp.Email,
		Phone:          emp.Phone,
		LoginType:      user.LoginMobile,
		Role:           emp.Role,
		IsActive:       emp.Status == employee.StatusActive,
		CreatedAt:      emp.CreatedAt,
	}
	repo.db.users[login.ID] = &login
	return emp, nil
}

func (repo *employeeRepository) QueryEmployees(_ context.Context, organizationID int, ordering []core.DBOrdering) ([]employee.Employee, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	emps := make([]employee.Employee, 0)
	for _, emp := range repo.db.employees {
		if emp.OrganizationID == organizationID {
			emps = append(emps, *emp)
		}
	}
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "name", Ascending: true}}
	}
	sort.Slice(emps, func(i, j int) bool {
		for _, ord := range ordering {
			c := compareEmployees(emps[i], emps[j], ord.Field)
			if c == 0 {
				continue
			}
			return (c < 0) == ord.Ascending
		}
		return emps[i].ID < emps[j].ID
	})
	return emps, nil
}

func compareEmployees(a, b employee.Employee, field string) int {
	switch field {
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "email":
		return strings.Compare(a.Email, b.Email)
	case "role":
		return strings.Compare(a.Role, b.Role)
	case "status":
		return strings.Compare(a.Status, b.Status)
	case "created_at":
		switch {
		case a.CreatedAt.Before(b.CreatedAt):
			return -1
		case a.CreatedAt.After(b.CreatedAt):
			return 1
		}
	case "id":
		return a.ID - b.ID
	}
	return 0
}

func (repo *employeeRepository) GetEmployee(_ context.Context, organizationID, id int) (employee.Employee, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if !repo.db.employeeIn(id, organizationID) {
		return employee.Employee{}, employee.ErrNotFound
	}
	return *repo.db.employees[id], nil
}

func (repo *employeeRepository) UpdateEmployee(_ context.Context, emp employee.Employee) (employee.Employee, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if !repo.db.employeeIn(emp.ID, emp.OrganizationID) {
		return employee.Employee{}, employee.ErrNotFound
	}
	if err := repo.checkUniqueness(emp.OrganizationID, emp.Email, emp.Phone, emp.ID); err != nil {
		return employee.Employee{}, err
	}
	repo.db.employees[emp.ID] = &emp
	for _, u := range repo.db.users {
		if u.EmployeeID == emp.ID && u.LoginType == user.LoginMobile {
			u.Name = emp.Name
			u.Email = emp.Email
			u.Phone = emp.Phone
			u.Role = emp.Role
			u.IsActive = emp.Status == employee.StatusActive
		}
	}
	return emp, nil
}

func newest(acts []employee.Activity, limit int) []employee.Activity {
	sort.SliceStable(acts, func(i, j int) bool { return acts[i].OccurredAt.After(acts[j].OccurredAt) })
	if len(acts) > limit {
		acts = acts[:limit]
	}
	return acts
}

func (repo *employeeRepository) RecentPunches(_ context.Context, employeeID, limit int) ([]employee.Activity, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	acts := make([]employee.Activity, 0)
	for _, rec := range repo.db.attendance {
		if rec.EmployeeID == employeeID {
			acts = append(acts, employee.PunchActivity(rec.Type, rec.Address, rec.PunchedAt))
		}
	}
	return newest(acts, limit), nil
}

func (repo *employeeRepository) RecentLeaves(_ context.Context, employeeID, limit int) ([]employee.Activity, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	acts := make([]employee.Activity, 0)
	for _, lv := range repo.db.leaves {
		if lv.EmployeeID == employeeID {
			acts = append(acts, employee.LeaveActivity(lv.Type, lv.Status, lv.CreatedAt))
		}
	}
	return newest(acts, limit), nil
}

func (repo *employeeRepository) RecentTasks(_ context.Context, employeeID, limit int) ([]employee.Activity, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	acts := make([]employee.Activity, 0)
	for _, t := range repo.db.tasks {
		if t.EmployeeID == employeeID {
			acts = append(acts, employee.TaskActivity(t.Title, t.IsCompleted, t.UpdatedAt))
		}
	}
	return newest(acts, limit), nil
}

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

// records returns the records matching keep in [from, to), ordered by time; must be called with the lock held.
func (repo *attendanceRepository) records(from, to time.Time, keep func(*attendance.Record) bool) []attendance.Record {
	recs := make([]attendance.Record, 0)
	for _, rec := range repo.db.attendance {
		if rec.PunchedAt.Before(from) || !rec.PunchedAt.Before(to) || !keep(rec) {
			continue
		}
		recs = append(recs, *rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].PunchedAt.Equal(recs[j].PunchedAt) {
			return recs[i].ID < recs[j].ID
		}
		return recs[i].PunchedAt.Before(recs[j].PunchedAt)
	})
	return recs
}

func (repo *attendanceRepository) LastPunch(_ context.Context, employeeID int, from, to time.Time) (attendance.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	recs := repo.records(from, to, func(r *attendance.Record) bool { return r.EmployeeID == employeeID })
	if len(recs) == 0 {
		return attendance.Record{}, attendance.ErrNotFound
	}
	return recs[len(recs)-1], nil
}

func (repo *attendanceRepository) CreatePunch(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	rec.ID = repo.db.nextPK()
	repo.db.attendance[rec.ID] = &rec
	return rec, nil
}

func (repo *attendanceRepository) QueryByEmployee(_ context.Context, employeeID int, from, to time.Time) ([]attendance.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.records(from, to, func(r *attendance.Record) bool { return r.EmployeeID == employeeID }), nil
}

func (repo *attendanceRepository) QueryByOrganization(_ context.Context, organizationID, employeeID int, from, to time.Time) ([]attendance.EmployeeRecord, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	recs := repo.records(from, to, func(r *attendance.Record) bool {
		return repo.db.employeeIn(r.EmployeeID, organizationID) && (employeeID == 0 || r.EmployeeID == employeeID)
	})
	out := make([]attendance.EmployeeRecord, 0, len(recs))
	for _, rec := range recs {
		out = append(out, attendance.EmployeeRecord{Record: rec, EmployeeName: repo.db.employees[rec.EmployeeID].Name})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].EmployeeName != out[j].EmployeeName {
			return out[i].EmployeeName < out[j].EmployeeName
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out, nil
}

func (repo *attendanceRepository) EmployeeInOrganization(_ context.Context, employeeID, organizationID int) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.db.employeeIn(employeeID, organizationID), nil
}
