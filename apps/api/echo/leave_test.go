package echoapi_test

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/attendix/attendix/core/leave"
)

func Test_leaveApi(t *testing.T) {
	f := setup(t)

	tests := []httpTest{
		{name: "Auth required", method: http.MethodPost, path: "/v1/leave", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Employee required", method: http.MethodPost, path: "/v1/leave", token: f.adminToken,
			body:     []byte(`{"type":"Sick","startDate":"2025-06-12","endDate":"2025-06-13"}`),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Missing fields", method: http.MethodPost, path: "/v1/leave", token: f.eveToken, body: []byte(`{"type":" "}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"type":      "this field is required",
				"startDate": "this field is required",
				"endDate":   "this field is required",
			}),
		},
		{
			name: "Reversed dates", method: http.MethodPost, path: "/v1/leave", token: f.eveToken,
			body:     []byte(`{"type":"Sick","startDate":"2025-06-13","endDate":"2025-06-12"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"endDate": "endDate cannot be before startDate"}),
		},
		{
			name: "Requested", method: http.MethodPost, path: "/v1/leave", token: f.eveToken,
			body:     []byte(`{"type":"Sick","startDate":"2025-06-12","endDate":"2025-06-13","reason":"flu"}`),
			wantCode: http.StatusCreated,
		},
		{
			name: "Admin required", method: http.MethodGet, path: "/v1/leave/pending", token: f.eveToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Employee of another organization", method: http.MethodGet, path: "/v1/leave/employee/" + strconv.Itoa(f.outsider.EmployeeID),
			token:    f.adminToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "employee not found in your organization"}),
		},
	}
	runTests(t, f, tests)

	sent := f.mailSvc.SentMessages()
	if assert.Len(t, sent, 1) {
		assert.Equal(t, "ada@acme.test", sent[0].To[0].Address)
		assert.Equal(t, "New leave request from Eve", sent[0].Subject)
	}
	f.mailSvc.Reset()

	var pending []leave.Leave
	rec := f.do(httpTest{method: http.MethodGet, path: "/v1/leave/pending", token: f.adminToken})
	assert.Equal(t, http.StatusOK, rec.Code)
	unmarshall(t, rec, &pending)
	if !assert.Len(t, pending, 1) {
		return
	}
	lv := pending[0]
	assert.Equal(t, "Eve", lv.EmployeeName)
	assert.Equal(t, leave.StatusPending, lv.Status)

	statusPath := "/v1/leave/" + strconv.Itoa(lv.ID) + "/status"
	runTests(t, f, []httpTest{
		{
			name: "Employees cannot review", method: http.MethodPut, path: statusPath, token: f.eveToken, body: []byte(`{"status":"approved"}`),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Invalid status", method: http.MethodPut, path: statusPath, token: f.adminToken, body: []byte(`{"status":"pending"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"status": "must be one of: approved, rejected"}),
		},
		{
			name: "Unknown leave", method: http.MethodPut, path: "/v1/leave/999999/status", token: f.adminToken, body: []byte(`{"status":"approved"}`),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "leave request not found"}),
		},
		{name: "Approved", method: http.MethodPut, path: statusPath, token: f.adminToken, body: []byte(`{"status":"Approved"}`), wantCode: http.StatusOK},
		{name: "No more pending", method: http.MethodGet, path: "/v1/leave/pending", token: f.adminToken, wantCode: http.StatusOK, wantData: []byte(`[]`)},
	})

	sent = f.mailSvc.SentMessages()
	if assert.Len(t, sent, 1) {
		assert.Equal(t, "eve@acme.test", sent[0].To[0].Address)
		assert.Equal(t, "Your leave request has been approved", sent[0].Subject)
	}

	var mine []leave.Leave
	rec = f.do(httpTest{method: http.MethodGet, path: "/v1/leave/my", token: f.eveToken})
	assert.Equal(t, http.StatusOK, rec.Code)
	unmarshall(t, rec, &mine)
	if assert.Len(t, mine, 1) {
		assert.Equal(t, leave.StatusApproved, mine[0].Status)
		if assert.NotNil(t, mine[0].ReviewedBy) {
			assert.Equal(t, f.admin.ID, *mine[0].ReviewedBy)
		}
	}
}
