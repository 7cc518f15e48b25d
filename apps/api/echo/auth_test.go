package echoapi_test

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	echoapi "github.com/attendix/attendix/apps/api/echo"
	"github.com/attendix/attendix/core"
	"github.com/attendix/attendix/core/user"
)

func TestServer_home(t *testing.T) {
	f := setup(t)

	rec := f.do(httpTest{method: http.MethodGet, path: "/"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Attendix API!", rec.Body.String())
}

func Test_authApi_adminLogin(t *testing.T) {
	f := setup(t)

	tests := []httpTest{
		{
			name:     "Invalid payload",
			body:     marchallObj(t, user.AdminLogin{Email: "nope"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"email":    "email must be a valid email address",
				"password": "this field is required",
			}),
		},
		{
			name:     "Unknown email",
			body:     marchallObj(t, user.AdminLogin{Email: "who@acme.test", Password: adminPwd}),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "invalid credentials"}),
		},
		{
			name:     "Wrong password",
			body:     marchallObj(t, user.AdminLogin{Email: f.admin.Email, Password: "wr0ng!Pass"}),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "invalid credentials"}),
		},
		{
			name:     "Email is case insensitive",
			body:     marchallObj(t, user.AdminLogin{Email: "ADA@acme.test", Password: adminPwd}),
			wantCode: http.StatusOK,
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/v1/auth/admin-login"
	}
	runTests(t, f, tests)

	t.Run("Token issued", func(t *testing.T) {
		rec := f.do(httpTest{
			method: http.MethodPost,
			path:   "/v1/auth/admin-login",
			body:   marchallObj(t, user.AdminLogin{Email: f.admin.Email, Password: adminPwd}),
		})
		if !assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String()) {
			return
		}
		var resp echoapi.LoginResponse
		unmarshall(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, f.admin.ID, resp.User.ID)
		assert.Equal(t, core.RoleAdmin, resp.User.Role)
		assert.False(t, resp.User.LastLogin.IsZero())

		// the token opens admin endpoints
		rec = f.do(httpTest{method: http.MethodGet, path: "/v1/employees", token: resp.Token})
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func Test_authApi_employeeLogin(t *testing.T) {
	f := setup(t)

	tests := []httpTest{
		{
			name:     "Invalid phone",
			body:     []byte(`{"phone_number":"12ab"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"phone_number": "must be a valid phone number"}),
		},
		{
			name:     "Unknown phone",
			body:     []byte(`{"phone_number":"+919999999999"}`),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "user not found"}),
		},
		{
			name:     "Wrong organization",
			body:     marchallObj(t, map[string]interface{}{"phone_number": f.eve.Phone, "organization_id": f.outsider.OrganizationID}),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "user not found"}),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/v1/auth/employee-login"
	}
	runTests(t, f, tests)

	t.Run("Token issued", func(t *testing.T) {
		rec := f.do(httpTest{
			method: http.MethodPost,
			path:   "/v1/auth/employee-login",
			body:   marchallObj(t, map[string]string{"phone_number": f.eve.Phone}),
		})
		if !assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String()) {
			return
		}
		var resp echoapi.LoginResponse
		unmarshall(t, rec, &resp)
		assert.Equal(t, f.eve.ID, resp.User.ID)
		assert.Equal(t, f.eve.EmployeeID, resp.User.EmployeeID)

		// employees cannot reach admin endpoints
		rec = f.do(httpTest{method: http.MethodGet, path: "/v1/employees", token: resp.Token})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func Test_authApi_organizationsByPhone(t *testing.T) {
	f := setup(t)

	tests := []httpTest{
		{
			name:     "Phone required",
			path:     "/v1/auth/organizations-by-phone",
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"phone_number": "this field is required"}),
		},
		{
			name:     "Unknown phone",
			path:     "/v1/auth/organizations-by-phone?phone_number=%2B919999999999",
			wantCode: http.StatusOK,
			wantData: []byte(`[]`),
		},
		{
			name:     "Known phone",
			path:     "/v1/auth/organizations-by-phone?phone_number=%2B911234567890",
			wantCode: http.StatusOK,
			wantData: marchallObj(t, []user.Organization{{ID: f.admin.OrganizationID, Name: "Acme"}}),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodGet
	}
	runTests(t, f, tests)
}

func Test_authApi_refreshToken(t *testing.T) {
	f := setup(t)

	now := time.Now()
	staleClaims := echoapi.GetUserClaims(f.conf, f.admin, now.Add(-2*f.conf.JWTRefreshExpirationDelta).Unix())
	staleToken, err := echoapi.GenerateToken(f.conf, staleClaims)
	if err != nil {
		t.Fatalf("GenerateToken(): %v", err)
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Refresh period expired", token: staleToken, wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		},
		{name: "Admin token refreshed", token: f.adminToken, wantCode: http.StatusOK},
		{name: "Employee token refreshed", token: f.eveToken, wantCode: http.StatusOK},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/v1/auth/token-refresh"
	}
	runTests(t, f, tests)

	t.Run("Deactivated account", func(t *testing.T) {
		rec := f.do(httpTest{
			method: http.MethodPut,
			path:   "/v1/employees/" + strconv.Itoa(f.eve.EmployeeID),
			token:  f.adminToken,
			body:   []byte(`{"status":"inactive"}`),
		})
		if !assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String()) {
			return
		}

		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		}, f.do(httpTest{method: http.MethodPost, path: "/v1/auth/token-refresh", token: f.eveToken}))
	})
}

func Test_authApi_rateLimit(t *testing.T) {
	f := setup(t, func(conf *core.Config) {
		conf.RateLimit.AuthLimit = 2
		conf.RateLimit.AuthPeriod = time.Hour
	})

	login := httpTest{
		method: http.MethodPost,
		path:   "/v1/auth/admin-login",
		body:   marchallObj(t, user.AdminLogin{Email: f.admin.Email, Password: adminPwd}),
	}
	for i := 0; i < 2; i++ {
		rec := f.do(login)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Remaining"))
	}

	checkCodeAndData(t, httpTest{
		wantCode: http.StatusTooManyRequests,
		wantData: marchallObj(t, httpErr{Error: "too many requests, please try again later"}),
	}, f.do(login))

	// authenticated endpoints are not limited
	rec := f.do(httpTest{method: http.MethodGet, path: "/v1/employees", token: f.adminToken})
	assert.Equal(t, http.StatusOK, rec.Code)
}
