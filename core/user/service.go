package user

import (
	"context"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/attendix/attendix/core"
)

var (
	// errors
	ErrNotFound             = errors.New("user not found")
	ErrEmailExists          = errors.New("a user with this email already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAccountDeactivated   = errors.New("account deactivated")
	ErrOrganizationRequired = errors.New("this phone number belongs to several organizations, organization_id is required")
)

type (
	Repository interface {
		GetOrCreateOrganization(ctx context.Context, name string) (Organization, error)
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		// QueryMobileUsers returns the active and inactive mobile logins of a phone number.
		QueryMobileUsers(ctx context.Context, phone string) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
	).CheckAndPanic()

	return &Service{repo: repo}
}

// LoginAdmin authenticates an administrator by email and password.
func (svc *Service) LoginAdmin(ctx context.Context, al AdminLogin) (User, error) {
	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: al.Email})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if err := usr.CheckPassword(al.Password); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return svc.markLogin(ctx, usr)
}

// LoginEmployee authenticates an employee by phone number.
// The one-time password has been verified by the client before this call.
func (svc *Service) LoginEmployee(ctx context.Context, el EmployeeLogin) (User, error) {
	users, err := svc.repo.QueryMobileUsers(ctx, el.Phone)
	if err != nil {
		return User{}, errors.Wrap(err, "finding users by phone")
	}

	var candidates []User
	for _, u := range users {
		if el.OrganizationID == 0 || u.OrganizationID == el.OrganizationID {
			candidates = append(candidates, u)
		}
	}
	switch len(candidates) {
	case 0:
		return User{}, ErrNotFound
	case 1:
		return svc.markLogin(ctx, candidates[0])
	default:
		return User{}, core.NewFieldError("organization_id", ErrOrganizationRequired)
	}
}

func (svc *Service) markLogin(ctx context.Context, usr User) (User, error) {
	if !usr.IsActive {
		return User{}, ErrAccountDeactivated
	}
	usr.LastLogin = core.NowFunc().UTC()
	usr, err := svc.repo.UpdateUser(ctx, usr)
	if err != nil {
		return User{}, errors.Wrap(err, "setting lastLogin")
	}
	return usr, nil
}

// OrganizationsByPhone lists the organizations a phone number can sign into.
func (svc *Service) OrganizationsByPhone(ctx context.Context, phone string) ([]Organization, error) {
	users, err := svc.repo.QueryMobileUsers(ctx, phone)
	if err != nil {
		return nil, errors.Wrap(err, "finding users by phone")
	}
	orgs := make([]Organization, 0, len(users))
	seen := make(map[int]bool, len(users))
	for _, u := range users {
		if !u.IsActive || seen[u.OrganizationID] {
			continue
		}
		seen[u.OrganizationID] = true
		orgs = append(orgs, Organization{ID: u.OrganizationID, Name: u.OrganizationName})
	}
	return orgs, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

// AddAdmin creates or updates an organization administrator, creating the organization when needed.
func (svc *Service) AddAdmin(ctx context.Context, na NewAdmin) (User, error) {
	org, err := svc.repo.GetOrCreateOrganization(ctx, na.OrganizationName)
	if err != nil {
		return User{}, errors.Wrap(err, "getting organization")
	}

	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: na.Email})
	switch {
	case err == nil:
		if usr.OrganizationID != org.ID {
			return User{}, core.NewFieldError("email", ErrEmailExists)
		}
		usr.Name = na.Name
		usr.Role = core.RoleAdmin
		usr.IsActive = true
		if err := usr.SetPassword(na.Password); err != nil {
			return User{}, err
		}
		return svc.repo.UpdateUser(ctx, usr)
	case errors.Cause(err) != ErrNotFound:
		return User{}, errors.Wrap(err, "finding user by email")
	}

	usr = User{
		OrganizationID:   org.ID,
		OrganizationName: org.Name,
		Name:             na.Name,
		Email:            na.Email,
		LoginType:        LoginEmail,
		Role:             core.RoleAdmin,
		IsActive:         true,
		CreatedAt:        core.NowFunc().UTC(),
	}
	if err := usr.SetPassword(na.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}

// ResetPassword sets a new password for an email login.
func (svc *Service) ResetPassword(ctx context.Context, rp ResetPassword) error {
	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: rp.Email})
	if err != nil {
		return err
	}
	if err := usr.SetPassword(rp.Password); err != nil {
		return err
	}
	_, err = svc.repo.UpdateUser(ctx, usr)
	return err
}
