package workspace_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendix/attendix/core"
	"github.com/attendix/attendix/core/task"
	"github.com/attendix/attendix/core/workspace"
	"github.com/attendix/attendix/storage/database/inmem"
	"github.com/attendix/attendix/testutil"
)

func TestService(t *testing.T) {
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	empRepo := inmemdb.NewEmployeeRepository(db)
	svc := workspace.NewService(inmemdb.NewWorkspaceRepository(db))
	ctx := context.Background()

	admin := testutil.CreateAdmin(t, usrRepo, "Acme", "Ada", "ada@acme.test", "").Actor()
	_, eve := testutil.CreateEmployee(t, empRepo, usrRepo, admin.OrganizationID, "Eve", "", "+911234567890")

	_, err := svc.Create(ctx, eve.Actor(), workspace.NewWorkspace{Name: "Garden"})
	assert.Equal(t, core.ErrForbidden, err)

	garden, err := svc.Create(ctx, admin, workspace.NewWorkspace{Name: "Garden"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin, workspace.NewWorkspace{Name: "Kitchen"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, admin, workspace.NewWorkspace{Name: "Garden"})
	var cerr *core.ConflictError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, workspace.ErrNameExists, cerr.Err)

	wss, err := svc.List(ctx, admin.OrganizationID)
	require.NoError(t, err)
	require.Len(t, wss, 2)
	assert.Equal(t, "Kitchen", wss[0].Name)

	wss, err = svc.List(ctx, admin.OrganizationID+1)
	require.NoError(t, err)
	assert.Empty(t, wss)

	taskSvc := task.NewService(inmemdb.NewTaskRepository(db), &testutil.Broadcaster{}, &testutil.NopLogger{}, core.NewTestConfig())
	_, err = taskSvc.Assign(ctx, admin, task.AssignTask{
		CreateTask: task.CreateTask{
			Title:             "Water the plants",
			RecurrenceRequest: task.RecurrenceRequest{RecurrenceType: "none", DueDate: "2025-06-12"},
		},
		EmployeeID:    eve.EmployeeID,
		WorkspaceID:   &garden.ID,
		WorkspaceName: garden.Name,
	})
	require.NoError(t, err)

	wss, err = svc.ForEmployee(ctx, eve.EmployeeID, admin.OrganizationID)
	require.NoError(t, err)
	require.Len(t, wss, 1)
	assert.Equal(t, garden.ID, wss[0].ID)
}
