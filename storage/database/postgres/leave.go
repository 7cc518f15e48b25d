package pgrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/attendix/attendix/core"
	"github.com/attendix/attendix/core/leave"
	"github.com/attendix/attendix/core/user"
)

var leaveColumns = []string{
	"l.id", "l.employee_id", "e.name AS employee_name", "l.type", "l.start_date", "l.end_date",
	"l.reason", "l.status", "l.reviewed_by", "l.created_at", "l.updated_at",
}

type leaveRow struct {
	ID           int       `db:"id"`
	EmployeeID   int       `db:"employee_id"`
	EmployeeName string    `db:"employee_name"`
	Type         string    `db:"type"`
	StartDate    time.Time `db:"start_date"`
	EndDate      time.Time `db:"end_date"`
	Reason       string    `db:"reason"`
	Status       string    `db:"status"`
	ReviewedBy   null.Int  `db:"reviewed_by"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r leaveRow) leave() leave.Leave {
	return leave.Leave{
		ID:           r.ID,
		EmployeeID:   r.EmployeeID,
		EmployeeName: r.EmployeeName,
		Type:         r.Type,
		StartDate:    dateOf(r.StartDate),
		EndDate:      dateOf(r.EndDate),
		Reason:       r.Reason,
		Status:       r.Status,
		ReviewedBy:   r.ReviewedBy.Ptr(),
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

func leavesOf(rows []leaveRow) []leave.Leave {
	leaves := make([]leave.Leave, 0, len(rows))
	for _, r := range rows {
		leaves = append(leaves, r.leave())
	}
	return leaves
}

type leaveRepository struct {
	db core.DB
}

var _ leave.Repository = (*leaveRepository)(nil) // interface compliance check

func NewLeaveRepository(db core.DB) leave.Repository {
	return &leaveRepository{db: db}
}

func (repo *leaveRepository) selectLeaves() sq.SelectBuilder {
	return psql.Select(leaveColumns...).
		From("leave_requests l").
		Join("employees e ON e.id = l.employee_id")
}

func (repo *leaveRepository) getLeave(ctx context.Context, where sq.Sqlizer) (leave.Leave, error) {
	var row leaveRow
	if err := get(ctx, repo.db, &row, repo.selectLeaves().Where(where)); err != nil {
		return leave.Leave{}, trapNoRows(err, leave.ErrNotFound, "finding leave request")
	}
	return row.leave(), nil
}

func (repo *leaveRepository) CreateLeave(ctx context.Context, lv leave.Leave) (leave.Leave, error) {
	b := psql.Insert("leave_requests").
		SetMap(map[string]interface{}{
			"employee_id": lv.EmployeeID,
			"type":        lv.Type,
			"start_date":  lv.StartDate.String(),
			"end_date":    lv.EndDate.String(),
			"reason":      lv.Reason,
			"status":      lv.Status,
			"created_at":  lv.CreatedAt.UTC(),
			"updated_at":  lv.UpdatedAt.UTC(),
		}).
		Suffix("RETURNING id")
	var id int
	if err := get(ctx, repo.db, &id, b); err != nil {
		return leave.Leave{}, errors.Wrap(err, "inserting leave request")
	}
	return repo.getLeave(ctx, sq.Eq{"l.id": id})
}

func (repo *leaveRepository) QueryByEmployee(ctx context.Context, employeeID int) ([]leave.Leave, error) {
	var rows []leaveRow
	b := repo.selectLeaves().
		Where(sq.Eq{"l.employee_id": employeeID}).
		OrderBy("l.created_at DESC", "l.id DESC")
	if err := selectAll(ctx, repo.db, &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying employee leaves")
	}
	return leavesOf(rows), nil
}

func (repo *leaveRepository) QueryByOrganization(ctx context.Context, organizationID int, status string) ([]leave.Leave, error) {
	b := repo.selectLeaves().
		Where(sq.Eq{"e.organization_id": organizationID}).
		OrderBy("l.created_at DESC", "l.id DESC")
	if status != "" {
		b = b.Where(sq.Eq{"l.status": status})
	}
	var rows []leaveRow
	if err := selectAll(ctx, repo.db, &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying organization leaves")
	}
	return leavesOf(rows), nil
}

func (repo *leaveRepository) GetLeave(ctx context.Context, organizationID, id int) (leave.Leave, error) {
	return repo.getLeave(ctx, sq.Eq{"l.id": id, "e.organization_id": organizationID})
}

func (repo *leaveRepository) UpdateStatus(ctx context.Context, id int, status string, reviewerID int, now time.Time) (leave.Leave, error) {
	b := psql.Update("leave_requests").
		SetMap(map[string]interface{}{
			"status":      status,
			"reviewed_by": null.NewInt(reviewerID, reviewerID != 0),
			"updated_at":  now.UTC(),
		}).
		Where(sq.Eq{"id": id})
	res, err := execute(ctx, repo.db, b)
	if err != nil {
		return leave.Leave{}, errors.Wrap(err, "updating leave status")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return leave.Leave{}, leave.ErrNotFound
	}
	return repo.getLeave(ctx, sq.Eq{"l.id": id})
}

type contactRow struct {
	EmployeeID       null.Int    `db:"employee_id"`
	OrganizationID   int         `db:"organization_id"`
	OrganizationName string      `db:"organization_name"`
	Name             string      `db:"name"`
	Email            null.String `db:"email"`
}

func (r contactRow) contact() leave.Contact {
	return leave.Contact{
		EmployeeID:       r.EmployeeID.Int,
		OrganizationID:   r.OrganizationID,
		OrganizationName: r.OrganizationName,
		Name:             r.Name,
		Email:            r.Email.String,
	}
}

func (repo *leaveRepository) GetContact(ctx context.Context, employeeID int) (leave.Contact, error) {
	var row contactRow
	b := psql.Select("e.id AS employee_id", "e.organization_id", "o.name AS organization_name", "e.name", "e.email").
		From("employees e").
		Join("organizations o ON o.id = e.organization_id").
		Where(sq.Eq{"e.id": employeeID})
	if err := get(ctx, repo.db, &row, b); err != nil {
		return leave.Contact{}, trapNoRows(err, leave.ErrNotFound, "finding employee contact")
	}
	return row.contact(), nil
}

func (repo *leaveRepository) OrganizationAdmins(ctx context.Context, organizationID int) ([]leave.Contact, error) {
	var rows []contactRow
	b := psql.Select("u.employee_id", "u.organization_id", "o.name AS organization_name", "u.name", "u.email").
		From("users u").
		Join("organizations o ON o.id = u.organization_id").
		Where(sq.Eq{"u.organization_id": organizationID, "u.role": core.RoleAdmin, "u.is_active": true, "u.login_type": user.LoginEmail}).
		Where(sq.NotEq{"u.email": nil}).
		OrderBy("u.id ASC")
	if err := selectAll(ctx, repo.db, &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying organization admins")
	}
	contacts := make([]leave.Contact, 0, len(rows))
	for _, r := range rows {
		contacts = append(contacts, r.contact())
	}
	return contacts, nil
}
