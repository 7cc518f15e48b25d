package employee

import (
	"context"
	"sort"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/attendix/attendix/core"
)

const activityFeedLen = 10

var (
	// errors
	ErrNotFound    = errors.New("employee not found")
	ErrEmailExists = errors.New("an employee with this email already exists in this organization")
	ErrPhoneExists = errors.New("an employee with this phone number already exists in this organization")
)

type (
	Repository interface {
		// CheckUniqueness returns ErrEmailExists or ErrPhoneExists; excludeID is ignored when 0.
		CheckUniqueness(ctx context.Context, organizationID int, email, phone string, excludeID int) error
		// CreateEmployee stores the employee together with its mobile login, atomically.
		CreateEmployee(ctx context.Context, emp Employee) (Employee, error)
		QueryEmployees(ctx context.Context, organizationID int, ordering []core.DBOrdering) ([]Employee, error)
		GetEmployee(ctx context.Context, organizationID, id int) (Employee, error)
		// UpdateEmployee also mirrors name, email, phone, role and status on the mobile login.
		UpdateEmployee(ctx context.Context, emp Employee) (Employee, error)
		RecentPunches(ctx context.Context, employeeID, limit int) ([]Activity, error)
		RecentLeaves(ctx context.Context, employeeID, limit int) ([]Activity, error)
		RecentTasks(ctx context.Context, employeeID, limit int) ([]Activity, error)
	}

	Service struct {
		repo Repository
		loc  *time.Location
	}
)

func NewService(repo Repository, conf *core.Config) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(conf, "conf"),
	).CheckAndPanic()

	return &Service{repo: repo, loc: conf.Location()}
}

func (svc *Service) checkUniqueness(ctx context.Context, orgID int, email, phone string, excludeID int) error {
	if err := svc.repo.CheckUniqueness(ctx, orgID, email, phone, excludeID); err != nil {
		switch errors.Cause(err) {
		case ErrEmailExists, ErrPhoneExists:
			return core.NewConflictError(errors.Cause(err))
		default:
			return errors.Wrap(err, "checking uniqueness")
		}
	}
	return nil
}

func (svc *Service) List(ctx context.Context, organizationID int, ordering []core.DBOrdering) ([]Employee, error) {
	return svc.repo.QueryEmployees(ctx, organizationID, ordering)
}

// Add creates an employee of the admin's organization.
func (svc *Service) Add(ctx context.Context, actor core.Actor, ne NewEmployee) (Employee, error) {
	if !actor.IsAdmin() {
		return Employee{}, core.ErrForbidden
	}
	if err := svc.checkUniqueness(ctx, actor.OrganizationID, ne.Email, ne.Phone, 0); err != nil {
		return Employee{}, err
	}

	now := core.NowFunc().UTC()
	emp := Employee{
		OrganizationID: actor.OrganizationID,
		Name:           ne.Name,
		Email:          ne.Email,
		Phone:          ne.Phone,
		Role:           ne.Role,
		Status:         StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return svc.repo.CreateEmployee(ctx, emp)
}

func (svc *Service) Get(ctx context.Context, organizationID, id int) (Employee, error) {
	return svc.repo.GetEmployee(ctx, organizationID, id)
}

// Update modifies an employee; ue must have been validated against orig.
func (svc *Service) Update(ctx context.Context, orig Employee, ue UpdateEmployee) (Employee, error) {
	if err := svc.checkUniqueness(ctx, orig.OrganizationID, ue.Email, ue.Phone, orig.ID); err != nil {
		return Employee{}, err
	}
	emp := orig
	emp.Name = ue.Name
	emp.Email = ue.Email
	emp.Phone = ue.Phone
	emp.Role = ue.Role
	emp.Status = ue.Status
	emp.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.UpdateEmployee(ctx, emp)
}

// LatestActivity merges the most recent punches, leave requests and tasks of an employee, newest first.
func (svc *Service) LatestActivity(ctx context.Context, employeeID int) ([]Activity, error) {
	var punches, leaves, tasks []Activity

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		punches, err = svc.repo.RecentPunches(gctx, employeeID, activityFeedLen)
		return errors.Wrap(err, "querying punches")
	})
	g.Go(func() (err error) {
		leaves, err = svc.repo.RecentLeaves(gctx, employeeID, activityFeedLen)
		return errors.Wrap(err, "querying leave requests")
	})
	g.Go(func() (err error) {
		tasks, err = svc.repo.RecentTasks(gctx, employeeID, activityFeedLen)
		return errors.Wrap(err, "querying tasks")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	feed := make([]Activity, 0, len(punches)+len(leaves)+len(tasks))
	feed = append(feed, punches...)
	feed = append(feed, leaves...)
	feed = append(feed, tasks...)
	sort.SliceStable(feed, func(i, j int) bool { return feed[i].OccurredAt.After(feed[j].OccurredAt) })
	if len(feed) > activityFeedLen {
		feed = feed[:activityFeedLen]
	}
	for i := range feed {
		local := feed[i].OccurredAt.In(svc.loc)
		feed[i].Time = local.Format("3:04 PM")
		feed[i].Date = local.Format("Jan 2")
	}
	return feed, nil
}
