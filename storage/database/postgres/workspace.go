package pgrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/attendix/attendix/core"
	"github.com/attendix/attendix/core/workspace"
)

type workspaceRow struct {
	ID             int       `db:"id"`
	OrganizationID int       `db:"organization_id"`
	Name           string    `db:"name"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r workspaceRow) workspace() workspace.Workspace {
	return workspace.Workspace{ID: r.ID, OrganizationID: r.OrganizationID, Name: r.Name, CreatedAt: r.CreatedAt.UTC()}
}

type workspaceRepository struct {
	db core.DB
}

var _ workspace.Repository = (*workspaceRepository)(nil) // interface compliance check

func NewWorkspaceRepository(db core.DB) workspace.Repository {
	return &workspaceRepository{db: db}
}

func (repo *workspaceRepository) query(ctx context.Context, b sq.SelectBuilder) ([]workspace.Workspace, error) {
	var rows []workspaceRow
	if err := selectAll(ctx, repo.db, &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying workspaces")
	}
	wss := make([]workspace.Workspace, 0, len(rows))
	for _, r := range rows {
		wss = append(wss, r.workspace())
	}
	return wss, nil
}

func (repo *workspaceRepository) QueryWorkspaces(ctx context.Context, organizationID int) ([]workspace.Workspace, error) {
	return repo.query(ctx, psql.Select("id", "organization_id", "name", "created_at").
		From("workspaces").
		Where(sq.Eq{"organization_id": organizationID}).
		OrderBy("created_at DESC", "id DESC"))
}

func (repo *workspaceRepository) CreateWorkspace(ctx context.Context, ws workspace.Workspace) (workspace.Workspace, error) {
	b := psql.Insert("workspaces").
		Columns("organization_id", "name", "created_at").
		Values(ws.OrganizationID, ws.Name, ws.CreatedAt.UTC()).
		Suffix("RETURNING id")
	if err := get(ctx, repo.db, &ws.ID, b); err != nil {
		if _, ok := uniqueConstraint(err); ok {
			return workspace.Workspace{}, workspace.ErrNameExists
		}
		return workspace.Workspace{}, errors.Wrap(err, "inserting workspace")
	}
	return ws, nil
}

func (repo *workspaceRepository) QueryEmployeeWorkspaces(ctx context.Context, employeeID, organizationID int) ([]workspace.Workspace, error) {
	return repo.query(ctx, psql.Select("w.id", "w.organization_id", "w.name", "w.created_at").
		From("workspaces w").
		Where(sq.Eq{"w.organization_id": organizationID}).
		Where(sq.Expr("EXISTS (SELECT 1 FROM tasks t WHERE t.workspace_id = w.id AND t.employee_id = ?)", employeeID)).
		OrderBy("w.name ASC"))
}
