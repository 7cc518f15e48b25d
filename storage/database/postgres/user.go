package pgrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/attendix/attendix/core"
	"github.com/attendix/attendix/core/user"
)

var userColumns = []string{
	"u.id", "u.employee_id", "u.organization_id", "o.name AS organization_name", "u.name", "u.email",
	"u.phone", "u.login_type", "u.role", "u.is_active", "u.password_hash", "u.created_at", "u.last_login",
}

type userRow struct {
	ID               int         `db:"id"`
	EmployeeID       null.Int    `db:"employee_id"`
	OrganizationID   int         `db:"organization_id"`
	OrganizationName string      `db:"organization_name"`
	Name             string      `db:"name"`
	Email            null.String `db:"email"`
	Phone            null.String `db:"phone"`
	LoginType        string      `db:"login_type"`
	Role             string      `db:"role"`
	IsActive         bool        `db:"is_active"`
	PasswordHash     null.Bytes  `db:"password_hash"`
	CreatedAt        time.Time   `db:"created_at"`
	LastLogin        null.Time   `db:"last_login"`
}

func (r userRow) user() user.User {
	return user.User{
		ID:               r.ID,
		EmployeeID:       r.EmployeeID.Int,
		OrganizationID:   r.OrganizationID,
		OrganizationName: r.OrganizationName,
		Name:             r.Name,
		Email:            r.Email.String,
		Phone:            r.Phone.String,
		LoginType:        r.LoginType,
		Role:             r.Role,
		IsActive:         r.IsActive,
		PasswordHash:     r.PasswordHash.Bytes,
		CreatedAt:        r.CreatedAt.UTC(),
		LastLogin:        r.LastLogin.Time.UTC(),
	}
}

type userRepository struct {
	db core.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db core.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) selectUsers() sq.SelectBuilder {
	return psql.Select(userColumns...).
		From("users u").
		Join("organizations o ON o.id = u.organization_id")
}

func (repo *userRepository) GetOrCreateOrganization(ctx context.Context, name string) (user.Organization, error) {
	var org struct {
		ID   int    `db:"id"`
		Name string `db:"name"`
	}
	b := psql.Insert("organizations").
		Columns("name").
		Values(name).
		Suffix("ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id, name")
	if err := get(ctx, repo.db, &org, b); err != nil {
		return user.Organization{}, errors.Wrap(err, "upserting organization")
	}
	return user.Organization{ID: org.ID, Name: org.Name}, nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	b := psql.Insert("users").
		SetMap(map[string]interface{}{
			"employee_id":     null.NewInt(usr.EmployeeID, usr.EmployeeID != 0),
			"organization_id": usr.OrganizationID,
			"name":            usr.Name,
			"email":           null.NewString(usr.Email, usr.Email != ""),
			"phone":           null.NewString(usr.Phone, usr.Phone != ""),
			"login_type":      usr.LoginType,
			"role":            usr.Role,
			"is_active":       usr.IsActive,
			"password_hash":   null.BytesFrom(usr.PasswordHash),
			"created_at":      usr.CreatedAt.UTC(),
		}).
		Suffix("RETURNING id")
	if err := get(ctx, repo.db, &usr.ID, b); err != nil {
		if _, ok := uniqueConstraint(err); ok {
			return user.User{}, core.NewFieldError("email", user.ErrEmailExists)
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	where := sq.Eq{}
	switch {
	case filter.ID != 0:
		where["u.id"] = filter.ID
	case filter.Email != "":
		where["u.email"] = filter.Email
		where["u.login_type"] = user.LoginEmail
	case filter.Phone != "":
		where["u.phone"] = filter.Phone
		where["u.login_type"] = user.LoginMobile
	default:
		return user.User{}, user.ErrNotFound
	}
	if filter.OrganizationID != 0 {
		where["u.organization_id"] = filter.OrganizationID
	}

	var row userRow
	if err := get(ctx, repo.db, &row, repo.selectUsers().Where(where).Limit(1)); err != nil {
		return user.User{}, trapNoRows(err, user.ErrNotFound, "finding user")
	}
	return row.user(), nil
}

func (repo *userRepository) QueryMobileUsers(ctx context.Context, phone string) ([]user.User, error) {
	var rows []userRow
	b := repo.selectUsers().
		Where(sq.Eq{"u.phone": phone, "u.login_type": user.LoginMobile}).
		OrderBy("o.name ASC", "u.id ASC")
	if err := selectAll(ctx, repo.db, &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying mobile users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.user())
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	b := psql.Update("users").
		SetMap(map[string]interface{}{
			"name":          usr.Name,
			"email":         null.NewString(usr.Email, usr.Email != ""),
			"phone":         null.NewString(usr.Phone, usr.Phone != ""),
			"role":          usr.Role,
			"is_active":     usr.IsActive,
			"password_hash": null.BytesFrom(usr.PasswordHash),
			"last_login":    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
		}).
		Where(sq.Eq{"id": usr.ID})
	res, err := execute(ctx, repo.db, b)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}
