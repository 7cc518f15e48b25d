package leave

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/attendix/attendix/core"
)

var (
	// errors
	ErrNotFound         = errors.New("leave request not found")
	ErrEndBeforeStart   = errors.New("endDate cannot be before startDate")
	ErrNoEmployee       = errors.New("only employees can request leaves")
	ErrEmployeeNotInOrg = errors.New("employee not found in your organization")

	errInvalidDate = errors.New("must be a valid date (YYYY-MM-DD)")
)

type (
	Repository interface {
		CreateLeave(ctx context.Context, lv Leave) (Leave, error)
		QueryByEmployee(ctx context.Context, employeeID int) ([]Leave, error)
		// QueryByOrganization lists leaves of an organization, newest first; empty status means any.
		QueryByOrganization(ctx context.Context, organizationID int, status string) ([]Leave, error)
		GetLeave(ctx context.Context, organizationID, id int) (Leave, error)
		UpdateStatus(ctx context.Context, id int, status string, reviewerID int, now time.Time) (Leave, error)
		GetContact(ctx context.Context, employeeID int) (Contact, error)
		// OrganizationAdmins returns the admins of an organization having an email address.
		OrganizationAdmins(ctx context.Context, organizationID int) ([]Contact, error)
	}

	Service struct {
		repo       Repository
		mailSvc    core.EmailService
		logger     core.Logger
		adminEmail string
	}
)

func NewService(repo Repository, mailSvc core.EmailService, logger core.Logger, conf *core.Config) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(mailSvc, "mailSvc"),
		vala.IsNotNil(logger, "logger"),
		vala.IsNotNil(conf, "conf"),
	).CheckAndPanic()

	return &Service{
		repo:       repo,
		mailSvc:    mailSvc,
		logger:     logger,
		adminEmail: conf.Email.AdminEmail,
	}
}

// Create records a leave request of the acting employee and notifies the organization admins.
func (svc *Service) Create(ctx context.Context, actor core.Actor, nl NewLeave) (Leave, error) {
	if actor.EmployeeID == 0 {
		return Leave{}, core.NewValidationError(ErrNoEmployee)
	}
	rng, err := nl.Dates()
	if err != nil {
		return Leave{}, err
	}

	now := core.NowFunc().UTC()
	lv, err := svc.repo.CreateLeave(ctx, Leave{
		EmployeeID: actor.EmployeeID,
		Type:       nl.Type,
		StartDate:  rng.From,
		EndDate:    rng.To,
		Reason:     nl.Reason,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return Leave{}, errors.Wrap(err, "creating leave request")
	}

	svc.notifyAdmins(ctx, actor, lv)
	return lv, nil
}

// notifyAdmins never fails the request: lookup errors are logged.
func (svc *Service) notifyAdmins(ctx context.Context, actor core.Actor, lv Leave) {
	from, err := svc.repo.GetContact(ctx, lv.EmployeeID)
	if err != nil {
		svc.logger.Error("finding leave requester", err, actor)
		return
	}
	admins, err := svc.repo.OrganizationAdmins(ctx, from.OrganizationID)
	if err != nil {
		svc.logger.Error("finding organization admins", err, actor)
		return
	}
	if len(admins) == 0 && svc.adminEmail != "" {
		admins = append(admins, Contact{Email: svc.adminEmail})
	}

	msgs := make([]*core.EmailMessage, 0, len(admins))
	for _, admin := range admins {
		msgs = append(msgs, newRequestMessage(admin, from, lv))
	}
	if len(msgs) > 0 {
		svc.mailSvc.SendMessages(msgs...)
	}
}

func (svc *Service) ForEmployee(ctx context.Context, employeeID int) ([]Leave, error) {
	return svc.repo.QueryByEmployee(ctx, employeeID)
}

// ForOrganizationEmployee lists the leaves of an employee, checking they belong to the organization.
func (svc *Service) ForOrganizationEmployee(ctx context.Context, organizationID, employeeID int) ([]Leave, error) {
	contact, err := svc.repo.GetContact(ctx, employeeID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return nil, core.NewValidationError(ErrEmployeeNotInOrg)
		}
		return nil, errors.Wrap(err, "finding employee")
	}
	if contact.OrganizationID != organizationID {
		return nil, core.NewValidationError(ErrEmployeeNotInOrg)
	}
	return svc.repo.QueryByEmployee(ctx, employeeID)
}

func (svc *Service) ForOrganization(ctx context.Context, organizationID int) ([]Leave, error) {
	return svc.repo.QueryByOrganization(ctx, organizationID, "")
}

func (svc *Service) Pending(ctx context.Context, organizationID int) ([]Leave, error) {
	return svc.repo.QueryByOrganization(ctx, organizationID, StatusPending)
}

// UpdateStatus approves or rejects a leave request of the admin's organization and notifies the employee.
func (svc *Service) UpdateStatus(ctx context.Context, actor core.Actor, id int, su StatusUpdate) (Leave, error) {
	if !actor.IsAdmin() {
		return Leave{}, core.ErrForbidden
	}
	if _, err := svc.repo.GetLeave(ctx, actor.OrganizationID, id); err != nil {
		return Leave{}, err
	}

	lv, err := svc.repo.UpdateStatus(ctx, id, su.Status, actor.UserID, core.NowFunc().UTC())
	if err != nil {
		return Leave{}, errors.Wrap(err, "updating leave status")
	}

	to, err := svc.repo.GetContact(ctx, lv.EmployeeID)
	if err != nil {
		svc.logger.Error("finding leave requester", err, actor)
		return lv, nil
	}
	if to.Email != "" {
		svc.mailSvc.SendMessages(statusMessage(to, lv))
	}
	return lv, nil
}
