package pgrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/attendix/attendix/core"
	"github.com/attendix/attendix/core/employee"
	"github.com/attendix/attendix/core/user"
)

var (
	employeeColumns = []string{"id", "organization_id", "name", "email", "phone", "role", "status", "created_at", "updated_at"}

	// orderable employee columns
	employeeOrdering = map[string]bool{"id": true, "name": true, "email": true, "role": true, "status": true, "created_at": true}
)

type employeeRow struct {
	ID             int         `db:"id"`
	OrganizationID int         `db:"organization_id"`
	Name           string      `db:"name"`
	Email          null.String `db:"email"`
	Phone          string      `db:"phone"`
	Role           string      `db:"role"`
	Status         string      `db:"status"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

func (r employeeRow) employee() employee.Employee {
	return employee.Employee{
		ID:             r.ID,
		OrganizationID: r.OrganizationID,
		Name:           r.Name,
		Email:          r.Email.String,
		Phone:          r.Phone,
		Role:           r.Role,
		Status:         r.Status,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}

type employeeRepository struct {
	db core.DB
}

var _ employee.Repository = (*employeeRepository)(nil) // interface compliance check

func NewEmployeeRepository(db core.DB) employee.Repository {
	return &employeeRepository{db: db}
}

// trapUniqueErr maps the unique constraints of employees to the employee errors.
func (repo *employeeRepository) trapUniqueErr(err error, msg string) error {
	if constraint, ok := uniqueConstraint(err); ok {
		if strings.Contains(constraint, "email") {
			return employee.ErrEmailExists
		}
		return employee.ErrPhoneExists
	}
	return errors.Wrap(err, msg)
}

func (repo *employeeRepository) CheckUniqueness(ctx context.Context, organizationID int, email, phone string, excludeID int) error {
	or := sq.Or{sq.Eq{"phone": phone}}
	if email != "" {
		or = append(or, sq.Eq{"email": email})
	}
	b := psql.Select("email", "phone").
		From("employees").
		Where(sq.Eq{"organization_id": organizationID}).
		Where(or)
	if excludeID != 0 {
		b = b.Where(sq.NotEq{"id": excludeID})
	}

	var rows []struct {
		Email null.String `db:"email"`
		Phone string      `db:"phone"`
	}
	if err := selectAll(ctx, repo.db, &rows, b); err != nil {
		return errors.Wrap(err, "checking employee uniqueness")
	}
	for _, r := range rows {
		if email != "" && r.Email.String == email {
			return employee.ErrEmailExists
		}
	}
	if len(rows) > 0 {
		return employee.ErrPhoneExists
	}
	return nil
}

func (repo *employeeRepository) CreateEmployee(ctx context.Context, emp employee.Employee) (employee.Employee, error) {
	err := inTx(ctx, repo.db, func(tx core.DBTransactor) error {
		b := psql.Insert("employees").
			SetMap(map[string]interface{}{
				"organization_id": emp.OrganizationID,
				"name":            emp.Name,
				"email":           null.NewString(emp.Email, emp.Email != ""),
				"phone":           emp.Phone,
				"role":            emp.Role,
				"status":          emp.Status,
				"created_at":      emp.CreatedAt.UTC(),
				"updated_at":      emp.UpdatedAt.UTC(),
			}).
			Suffix("RETURNING id")
		if err := get(ctx, tx, &emp.ID, b); err != nil {
			return repo.trapUniqueErr(err, "inserting employee")
		}

		login := psql.Insert("users").
			SetMap(map[string]interface{}{
				"employee_id":     emp.ID,
				"organization_id": emp.OrganizationID,
				"name":            emp.Name,
				"email":           null.NewString(emp.Email, emp.Email != ""),
				"phone":           emp.Phone,
				"login_type":      user.LoginMobile,
				"role":            emp.Role,
				"is_active":       emp.Status == employee.StatusActive,
				"created_at":      emp.CreatedAt.UTC(),
			})
		if _, err := execute(ctx, tx, login); err != nil {
			return errors.Wrap(err, "inserting employee login")
		}
		return nil
	})
	if err != nil {
		return employee.Employee{}, err
	}
	return emp, nil
}

func (repo *employeeRepository) QueryEmployees(ctx context.Context, organizationID int, ordering []core.DBOrdering) ([]employee.Employee, error) {
	b := psql.Select(employeeColumns...).
		From("employees").
		Where(sq.Eq{"organization_id": organizationID})

	orderBy := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		if employeeOrdering[ord.Field] {
			orderBy = append(orderBy, ord.String())
		}
	}
	if len(orderBy) == 0 {
		orderBy = append(orderBy, "name ASC")
	}
	b = b.OrderBy(append(orderBy, "id ASC")...)

	var rows []employeeRow
	if err := selectAll(ctx, repo.db, &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying employees")
	}
	emps := make([]employee.Employee, 0, len(rows))
	for _, r := range rows {
		emps = append(emps, r.employee())
	}
	return emps, nil
}

func (repo *employeeRepository) GetEmployee(ctx context.Context, organizationID, id int) (employee.Employee, error) {
	var row employeeRow
	b := psql.Select(employeeColumns...).
		From("employees").
		Where(sq.Eq{"id": id, "organization_id": organizationID})
	if err := get(ctx, repo.db, &row, b); err != nil {
		return employee.Employee{}, trapNoRows(err, employee.ErrNotFound, "finding employee")
	}
	return row.employee(), nil
}

func (repo *employeeRepository) UpdateEmployee(ctx context.Context, emp employee.Employee) (employee.Employee, error) {
	err := inTx(ctx, repo.db, func(tx core.DBTransactor) error {
		b := psql.Update("employees").
			SetMap(map[string]interface{}{
				"name":       emp.Name,
				"email":      null.NewString(emp.Email, emp.Email != ""),
				"phone":      emp.Phone,
				"role":       emp.Role,
				"status":     emp.Status,
				"updated_at": emp.UpdatedAt.UTC(),
			}).
			Where(sq.Eq{"id": emp.ID, "organization_id": emp.OrganizationID})
		res, err := execute(ctx, tx, b)
		if err != nil {
			return repo.trapUniqueErr(err, "updating employee")
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return employee.ErrNotFound
		}

		login := psql.Update("users").
			SetMap(map[string]interface{}{
				"name":      emp.Name,
				"email":     null.NewString(emp.Email, emp.Email != ""),
				"phone":     emp.Phone,
				"role":      emp.Role,
				"is_active": emp.Status == employee.StatusActive,
			}).
			Where(sq.Eq{"employee_id": emp.ID, "login_type": user.LoginMobile})
		if _, err := execute(ctx, tx, login); err != nil {
			return errors.Wrap(err, "updating employee login")
		}
		return nil
	})
	if err != nil {
		return employee.Employee{}, err
	}
	return emp, nil
}

func (repo *employeeRepository) RecentPunches(ctx context.Context, employeeID, limit int) ([]employee.Activity, error) {
	var rows []struct {
		Type      string    `db:"type"`
		PunchedAt time.Time `db:"punched_at"`
		Address   string    `db:"address"`
	}
	b := psql.Select("type", "punched_at", "address").
		From("attendance").
		Where(sq.Eq{"employee_id": employeeID}).
		OrderBy("punched_at DESC").
		Limit(uint64(limit))
	if err := selectAll(ctx, repo.db, &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying recent punches")
	}
	acts := make([]employee.Activity, 0, len(rows))
	for _, r := range rows {
		acts = append(acts, employee.PunchActivity(r.Type, r.Address, r.PunchedAt.UTC()))
	}
	return acts, nil
}

func (repo *employeeRepository) RecentLeaves(ctx context.Context, employeeID, limit int) ([]employee.Activity, error) {
	var rows []struct {
		Type      string    `db:"type"`
		Status    string    `db:"status"`
		CreatedAt time.Time `db:"created_at"`
	}
	b := psql.Select("type", "status", "created_at").
		From("leave_requests").
		Where(sq.Eq{"employee_id": employeeID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit))
	if err := selectAll(ctx, repo.db, &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying recent leave requests")
	}
	acts := make([]employee.Activity, 0, len(rows))
	for _, r := range rows {
		acts = append(acts, employee.LeaveActivity(r.Type, r.Status, r.CreatedAt.UTC()))
	}
	return acts, nil
}

func (repo *employeeRepository) RecentTasks(ctx context.Context, employeeID, limit int) ([]employee.Activity, error) {
	var rows []struct {
		Title       string    `db:"title"`
		IsCompleted bool      `db:"is_completed"`
		UpdatedAt   time.Time `db:"updated_at"`
	}
	b := psql.Select("title", "is_completed", "updated_at").
		From("tasks").
		Where(sq.Eq{"employee_id": employeeID}).
		OrderBy("updated_at DESC").
		Limit(uint64(limit))
	if err := selectAll(ctx, repo.db, &rows, b); err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("querying recent tasks of employee %d", employeeID))
	}
	acts := make([]employee.Activity, 0, len(rows))
	for _, r := range rows {
		acts = append(acts, employee.TaskActivity(r.Title, r.IsCompleted, r.UpdatedAt.UTC()))
	}
	return acts, nil
}
