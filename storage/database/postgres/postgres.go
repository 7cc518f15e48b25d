// Package pgrepos implements the repositories on PostgreSQL with sqlx and squirrel.
package pgrepos

import (
	"context"
	"database/sql"
	"time"

	"cloud.google.com/go/civil"
	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/attendix/attendix/core"
)

const uniqueViolation = "23505"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// uniqueConstraint returns the violated unique constraint of err, if any.
func uniqueConstraint(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}

// trapNoRows maps "no rows" to notFound.
func trapNoRows(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// connDone turns a closed connection into a shutdown error so the server stops.
func connDone(err error) error {
	if errors.Is(err, sql.ErrConnDone) {
		return core.NewShutdownError("database connection closed")
	}
	return err
}

// dateOf reads a DATE column scanned by lib/pq.
func dateOf(t time.Time) civil.Date {
	return civil.Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func get(ctx context.Context, exec core.DBExecutor, dest interface{}, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return connDone(exec.GetContext(ctx, dest, query, args...))
}

func selectAll(ctx context.Context, exec core.DBExecutor, dest interface{}, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return connDone(exec.SelectContext(ctx, dest, query, args...))
}

func execute(ctx context.Context, exec core.DBExecutor, b sq.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	res, err := exec.ExecContext(ctx, query, args...)
	return res, connDone(err)
}

// inTx runs fn inside a transaction, rolling back when it fails.
func inTx(ctx context.Context, db core.DB, fn func(tx core.DBTransactor) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(connDone(err), "beginning transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func employeeInOrganization(ctx context.Context, exec core.DBExecutor, employeeID, organizationID int) (bool, error) {
	var found bool
	query := "SELECT EXISTS (SELECT 1 FROM employees WHERE id = $1 AND organization_id = $2)"
	if err := exec.GetContext(ctx, &found, query, employeeID, organizationID); err != nil {
		return false, errors.Wrap(err, "checking employee organization")
	}
	return found, nil
}
