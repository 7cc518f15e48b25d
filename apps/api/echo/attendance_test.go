package echoapi_test

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/attendix/attendix/core/attendance"
)

func Test_attendanceApi_punch(t *testing.T) {
	f := setup(t)

	point := []byte(`{"latitude":12.9716,"longitude":77.5946}`)
	tests := []httpTest{
		{name: "Auth required", path: "/v1/attendance/clock-in", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Employee required", path: "/v1/attendance/clock-in", token: f.adminToken, body: point,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Coordinates required", path: "/v1/attendance/clock-in", token: f.eveToken, body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"latitude":  "this field is required",
				"longitude": "this field is required",
			}),
		},
		{
			name: "Invalid coordinates", path: "/v1/attendance/clock-in", token: f.eveToken, body: []byte(`{"latitude":95,"longitude":0}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"latitude": "latitude must contain valid latitude coordinates"}),
		},
		{
			name: "Clock out before clock in", path: "/v1/attendance/clock-out", token: f.eveToken, body: point,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "you must clock in before clocking out"}),
		},
		{name: "Clock in", path: "/v1/attendance/clock-in", token: f.eveToken, body: point, wantCode: http.StatusCreated},
		{
			name: "Clock in twice", path: "/v1/attendance/clock-in", token: f.eveToken, body: point,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "you are already clocked in"}),
		},
		{name: "Clock out", path: "/v1/attendance/clock-out", token: f.eveToken, body: point, wantCode: http.StatusCreated},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
	}
	runTests(t, f, tests)

	rec := f.do(httpTest{method: http.MethodGet, path: "/v1/attendance/my", token: f.eveToken})
	if !assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String()) {
		return
	}
	var views []attendance.RecordView
	unmarshall(t, rec, &views)
	if assert.Len(t, views, 2) {
		assert.Equal(t, attendance.PunchIn, views[0].Type)
		assert.Equal(t, attendance.PunchOut, views[1].Type)
		assert.Equal(t, "MG Road", views[0].Address)
		assert.NotEmpty(t, views[0].Time)
	}
}

func Test_attendanceApi_admin(t *testing.T) {
	f := setup(t)

	point := []byte(`{"latitude":12.9716,"longitude":77.5946}`)
	for _, tt := range []httpTest{
		{method: http.MethodPost, path: "/v1/attendance/clock-in", token: f.eveToken, body: point},
		{method: http.MethodPost, path: "/v1/attendance/clock-in", token: f.outsiderToken, body: point},
	} {
		if rec := f.do(tt); rec.Code != http.StatusCreated {
			t.Fatalf("clock-in failed: %d %s", rec.Code, rec.Body.String())
		}
	}

	tests := []httpTest{
		{
			name: "Admin required", path: "/v1/attendance/employee?employeeId=" + strconv.Itoa(f.eve.EmployeeID), token: f.eveToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Employee required", path: "/v1/attendance/employee", token: f.adminToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"employeeId": "employeeId is required"}),
		},
		{
			name: "Employee of another organization", path: "/v1/attendance/employee?employeeId=" + strconv.Itoa(f.outsider.EmployeeID),
			token:    f.adminToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"employeeId": "employee not found in your organization"}),
		},
		{
			name: "Invalid employee filter", path: "/v1/attendance?employeeId=eve", token: f.adminToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"employeeId": `must be an employee id or "all"`}),
		},
		{
			name: "Invalid date", path: "/v1/attendance?startDate=10-06-2025", token: f.adminToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"startDate": "must be a valid date (YYYY-MM-DD)"}),
		},
		{
			name: "Reversed range", path: "/v1/attendance?startDate=2025-06-10&endDate=2025-06-01", token: f.adminToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"endDate": "endDate cannot be before startDate"}),
		},
		{
			name: "Empty range", path: "/v1/attendance?startDate=2001-01-01&endDate=2001-01-31", token: f.adminToken,
			wantCode: http.StatusOK, wantData: []byte(`[]`),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodGet
	}
	runTests(t, f, tests)

	t.Run("Employee records", func(t *testing.T) {
		rec := f.do(httpTest{method: http.MethodGet, path: "/v1/attendance/employee?employeeId=" + strconv.Itoa(f.eve.EmployeeID), token: f.adminToken})
		if !assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String()) {
			return
		}
		var views []attendance.RecordView
		unmarshall(t, rec, &views)
		assert.Len(t, views, 1)
	})

	t.Run("Combined", func(t *testing.T) {
		rec := f.do(httpTest{method: http.MethodGet, path: "/v1/attendance?employeeId=all", token: f.adminToken})
		if !assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String()) {
			return
		}
		var summaries []attendance.DailySummary
		unmarshall(t, rec, &summaries)
		if assert.Len(t, summaries, 1, "only the admin's organization") {
			assert.Equal(t, f.eve.EmployeeID, summaries[0].EmployeeID)
			assert.Equal(t, "Eve", summaries[0].EmployeeName)
			assert.NotEmpty(t, summaries[0].ClockIn)
			assert.Empty(t, summaries[0].ClockOut)
			assert.Equal(t, attendance.WorkedTime(nil, nil), summaries[0].WorkedTime)
		}
	})
}
