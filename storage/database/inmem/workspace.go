package inmemdb

import (
	"context"
	"sort"

	"github.com/attendix/attendix/core/workspace"
)

type workspaceRepository struct {
	db *DB
}

var _ workspace.Repository = (*workspaceRepository)(nil)

func NewWorkspaceRepository(db *DB) workspace.Repository {
	return &workspaceRepository{db: db}
}

func (repo *workspaceRepository) QueryWorkspaces(_ context.Context, organizationID int) ([]workspace.Workspace, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	wss := make([]workspace.Workspace, 0)
	for _, ws := range repo.db.workspaces {
		if ws.OrganizationID == organizationID {
			wss = append(wss, *ws)
		}
	}
	sort.Slice(wss, func(i, j int) bool { return wss[i].ID > wss[j].ID })
	return wss, nil
}

func (repo *workspaceRepository) CreateWorkspace(_ context.Context, ws workspace.Workspace) (workspace.Workspace, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, w := range repo.db.workspaces {
		if w.OrganizationID == ws.OrganizationID && w.Name == ws.Name {
			return workspace.Workspace{}, workspace.ErrNameExists
		}
	}
	ws.ID = repo.db.nextPK()
	repo.db.workspaces[ws.ID] = &ws
	return ws, nil
}

func (repo *workspaceRepository) QueryEmployeeWorkspaces(_ context.Context, employeeID, organizationID int) ([]workspace.Workspace, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	used := make(map[int]bool)
	for _, t := range repo.db.tasks {
		if t.EmployeeID == employeeID && t.WorkspaceID != nil {
			used[*t.WorkspaceID] = true
		}
	}
	wss := make([]workspace.Workspace, 0, len(used))
	for id := range used {
		if ws, ok := repo.db.workspaces[id]; ok && ws.OrganizationID == organizationID {
			wss = append(wss, *ws)
		}
	}
	sort.Slice(wss, func(i, j int) bool { return wss[i].Name < wss[j].Name })
	return wss, nil
}
