package pgrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/attendix/attendix/core"
	"github.com/attendix/attendix/core/attendance"
)

var attendanceColumns = []string{"a.id", "a.employee_id", "a.type", "a.punched_at", "a.latitude", "a.longitude", "a.address"}

type recordRow struct {
	ID           int       `db:"id"`
	EmployeeID   int       `db:"employee_id"`
	Type         string    `db:"type"`
	PunchedAt    time.Time `db:"punched_at"`
	Latitude     float64   `db:"latitude"`
	Longitude    float64   `db:"longitude"`
	Address      string    `db:"address"`
	EmployeeName string    `db:"employee_name"`
}

func (r recordRow) record() attendance.Record {
	return attendance.Record{
		ID:         r.ID,
		EmployeeID: r.EmployeeID,
		Type:       r.Type,
		PunchedAt:  r.PunchedAt.UTC(),
		Latitude:   r.Latitude,
		Longitude:  r.Longitude,
		Address:    r.Address,
	}
}

type attendanceRepository struct {
	db core.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db core.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func inRange(from, to time.Time) sq.And {
	return sq.And{sq.GtOrEq{"a.punched_at": from.UTC()}, sq.Lt{"a.punched_at": to.UTC()}}
}

func (repo *attendanceRepository) LastPunch(ctx context.Context, employeeID int, from, to time.Time) (attendance.Record, error) {
	var row recordRow
	b := psql.Select(attendanceColumns...).
		From("attendance a").
		Where(sq.Eq{"a.employee_id": employeeID}).
		Where(inRange(from, to)).
		OrderBy("a.punched_at DESC", "a.id DESC").
		Limit(1)
	if err := get(ctx, repo.db, &row, b); err != nil {
		return attendance.Record{}, trapNoRows(err, attendance.ErrNotFound, "finding last punch")
	}
	return row.record(), nil
}

func (repo *attendanceRepository) CreatePunch(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	b := psql.Insert("attendance").
		SetMap(map[string]interface{}{
			"employee_id": rec.EmployeeID,
			"type":        rec.Type,
			"punched_at":  rec.PunchedAt.UTC(),
			"latitude":    rec.Latitude,
			"longitude":   rec.Longitude,
			"address":     rec.Address,
		}).
		Suffix("RETURNING id")
	if err := get(ctx, repo.db, &rec.ID, b); err != nil {
		return attendance.Record{}, errors.Wrap(err, "inserting punch")
	}
	return rec, nil
}

func (repo *attendanceRepository) QueryByEmployee(ctx context.Context, employeeID int, from, to time.Time) ([]attendance.Record, error) {
	var rows []recordRow
	b := psql.Select(attendanceColumns...).
		From("attendance a").
		Where(sq.Eq{"a.employee_id": employeeID}).
		Where(inRange(from, to)).
		OrderBy("a.punched_at ASC", "a.id ASC")
	if err := selectAll(ctx, repo.db, &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying employee attendance")
	}
	records := make([]attendance.Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.record())
	}
	return records, nil
}

func (repo *attendanceRepository) QueryByOrganization(ctx context.Context, organizationID, employeeID int, from, to time.Time) ([]attendance.EmployeeRecord, error) {
	b := psql.Select(append(attendanceColumns, "e.name AS employee_name")...).
		From("attendance a").
		Join("employees e ON e.id = a.employee_id").
		Where(sq.Eq{"e.organization_id": organizationID}).
		Where(inRange(from, to)).
		OrderBy("e.name ASC", "a.employee_id ASC", "a.punched_at ASC")
	if employeeID != 0 {
		b = b.Where(sq.Eq{"a.employee_id": employeeID})
	}

	var rows []recordRow
	if err := selectAll(ctx, repo.db, &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying organization attendance")
	}
	records := make([]attendance.EmployeeRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, attendance.EmployeeRecord{Record: r.record(), EmployeeName: r.EmployeeName})
	}
	return records, nil
}

func (repo *attendanceRepository) EmployeeInOrganization(ctx context.Context, employeeID, organizationID int) (bool, error) {
	return employeeInOrganization(ctx, repo.db, employeeID, organizationID)
}
