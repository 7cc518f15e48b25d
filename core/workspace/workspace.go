package workspace

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/attendix/attendix/core"
)

var (
	// errors
	ErrNameExists = errors.New("workspace name already exists in this organization")
)

type Workspace struct {
	ID             int       `json:"id"`
	OrganizationID int       `json:"organization_id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"` // UTC
}

// NewWorkspace contains information needed to create a Workspace.
type NewWorkspace struct {
	Name string `json:"name" validate:"required,notblank,max=255"`
}

func (nw *NewWorkspace) Validate(validate *validator.Validate) error {
	nw.Name = core.CleanString(nw.Name)
	return validate.Struct(nw)
}

type (
	Repository interface {
		QueryWorkspaces(ctx context.Context, organizationID int) ([]Workspace, error)
		// CreateWorkspace returns ErrNameExists when the name is taken in the organization.
		CreateWorkspace(ctx context.Context, ws Workspace) (Workspace, error)
		// QueryEmployeeWorkspaces returns the workspaces holding at least one task of the employee.
		QueryEmployeeWorkspaces(ctx context.Context, employeeID, organizationID int) ([]Workspace, error)
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

func (svc *Service) List(ctx context.Context, organizationID int) ([]Workspace, error) {
	return svc.repo.QueryWorkspaces(ctx, organizationID)
}

func (svc *Service) Create(ctx context.Context, actor core.Actor, nw NewWorkspace) (Workspace, error) {
	if !actor.IsAdmin() {
		return Workspace{}, core.ErrForbidden
	}
	ws, err := svc.repo.CreateWorkspace(ctx, Workspace{
		OrganizationID: actor.OrganizationID,
		Name:           nw.Name,
		CreatedAt:      core.NowFunc().UTC(),
	})
	if err != nil {
		if errors.Cause(err) == ErrNameExists {
			return Workspace{}, core.NewConflictError(ErrNameExists)
		}
		return Workspace{}, errors.Wrap(err, "creating workspace")
	}
	return ws, nil
}

func (svc *Service) ForEmployee(ctx context.Context, employeeID, organizationID int) ([]Workspace, error) {
	return svc.repo.QueryEmployeeWorkspaces(ctx, employeeID, organizationID)
}
