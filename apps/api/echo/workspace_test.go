package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/attendix/attendix/core/workspace"
)

func Test_workspaceApi(t *testing.T) {
	f := setup(t)

	tests := []httpTest{
		{name: "Auth required", method: http.MethodGet, path: "/v1/workspaces", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Empty", method: http.MethodGet, path: "/v1/workspaces", token: f.adminToken, wantCode: http.StatusOK, wantData: []byte(`[]`)},
		{
			name: "Admin required", method: http.MethodPost, path: "/v1/workspaces", token: f.eveToken, body: []byte(`{"name":"Ops"}`),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Name required", method: http.MethodPost, path: "/v1/workspaces", token: f.adminToken, body: []byte(`{"name":""}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"name": "this field is required"}),
		},
		{name: "Created", method: http.MethodPost, path: "/v1/workspaces", token: f.adminToken, body: []byte(`{"name":"Ops"}`), wantCode: http.StatusCreated},
		{
			name: "Name taken", method: http.MethodPost, path: "/v1/workspaces", token: f.adminToken, body: []byte(`{"name":"Ops"}`),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: workspace.ErrNameExists.Error()}),
		},
		{
			name: "No workspace without tasks", method: http.MethodGet, path: "/v1/workspaces/mine", token: f.eveToken,
			wantCode: http.StatusOK, wantData: []byte(`[]`),
		},
		{
			name: "Admins have no workspaces of their own", method: http.MethodGet, path: "/v1/workspaces/mine", token: f.adminToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
	}
	runTests(t, f, tests)

	var wss []workspace.Workspace
	rec := f.do(httpTest{method: http.MethodGet, path: "/v1/workspaces", token: f.eveToken})
	assert.Equal(t, http.StatusOK, rec.Code)
	unmarshall(t, rec, &wss)
	if !assert.Len(t, wss, 1) {
		return
	}
	ops := wss[0]
	assert.Equal(t, f.admin.OrganizationID, ops.OrganizationID)

	rec = f.do(httpTest{
		method: http.MethodPost,
		path:   "/v1/tasks/assign",
		token:  f.adminToken,
		body: marchallObj(t, map[string]interface{}{
			"title":          "Rotate keys",
			"due_date":       "2099-03-01",
			"employee_id":    f.eve.EmployeeID,
			"workspace_id":   ops.ID,
			"workspace_name": ops.Name,
		}),
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, []workspace.Workspace{ops})},
		f.do(httpTest{method: http.MethodGet, path: "/v1/workspaces/mine", token: f.eveToken}))

	// the other organization does not see it
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`[]`)},
		f.do(httpTest{method: http.MethodGet, path: "/v1/workspaces/mine", token: f.outsiderToken}))
}
