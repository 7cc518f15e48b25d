package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	echoapi "github.com/attendix/attendix/apps/api/echo"
	"github.com/attendix/attendix/core"
	"github.com/attendix/attendix/core/attendance"
	"github.com/attendix/attendix/core/employee"
	"github.com/attendix/attendix/core/leave"
	"github.com/attendix/attendix/core/task"
	"github.com/attendix/attendix/core/user"
	"github.com/attendix/attendix/core/workspace"
	emailsvc "github.com/attendix/attendix/services/email"
	"github.com/attendix/attendix/services/realtime"
	"github.com/attendix/attendix/storage/database/inmem"
	"github.com/attendix/attendix/testutil"
)

const adminPwd = "C0mpl3x!Pass"

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type fixture struct {
	app     *echoapi.Server
	conf    *core.Config
	db      *inmemdb.DB
	mailSvc *emailsvc.ConsoleServiceMock
	hub     *realtime.Hub

	admin, eve, outsider, globex                     user.User
	adminToken, eveToken, outsiderToken, globexToken string
}

func setup(t *testing.T, opts ...func(*core.Config)) *fixture {
	conf := core.NewTestConfig()
	for _, opt := range opts {
		opt(conf)
	}
	logger := &testutil.NopLogger{}

	// set up DB & repos
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	empRepo := inmemdb.NewEmployeeRepository(db)

	// set up services
	translator := core.NewTranslator()
	validate := core.NewValidate(translator)
	user.InitValidators(validate, translator)
	mailSvc := emailsvc.NewConsoleServiceMock(logger, conf)
	hub := realtime.NewHub(logger, conf)
	t.Cleanup(hub.Close)

	f := &fixture{conf: conf, db: db, mailSvc: mailSvc, hub: hub}
	f.app = echoapi.NewServer(echoapi.ServerDeps{
		Conf:          conf,
		Logger:        logger,
		Validate:      validate,
		Translator:    translator,
		Hub:           hub,
		UserSvc:       user.NewService(usrRepo),
		EmployeeSvc:   employee.NewService(empRepo, conf),
		AttendanceSvc: attendance.NewService(inmemdb.NewAttendanceRepository(db), &testutil.Geocoder{Address: "MG Road"}, logger, conf),
		LeaveSvc:      leave.NewService(inmemdb.NewLeaveRepository(db), mailSvc, logger, conf),
		TaskSvc:       task.NewService(inmemdb.NewTaskRepository(db), hub, logger, conf),
		WorkspaceSvc:  workspace.NewService(inmemdb.NewWorkspaceRepository(db)),
	})

	// set up users
	f.admin = testutil.CreateAdmin(t, usrRepo, "Acme", "Ada", "ada@acme.test", adminPwd)
	_, f.eve = testutil.CreateEmployee(t, empRepo, usrRepo, f.admin.OrganizationID, "Eve", "eve@acme.test", "+911234567890")
	f.globex = testutil.CreateAdmin(t, usrRepo, "Globex", "Olga", "olga@globex.test", adminPwd)
	_, f.outsider = testutil.CreateEmployee(t, empRepo, usrRepo, f.globex.OrganizationID, "Otto", "", "+911234567899")

	f.adminToken = getToken(t, conf, f.admin)
	f.eveToken = getToken(t, conf, f.eve)
	f.outsiderToken = getToken(t, conf, f.outsider)
	f.globexToken = getToken(t, conf, f.globex)
	return f
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// do serves tt and returns the recorded response.
func (f *fixture) do(tt httpTest) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	f.app.ServeHTTP(rec, req)
	return rec
}

func getToken(t *testing.T, conf *core.Config, usr user.User) string {
	token, err := echoapi.GenerateToken(conf, echoapi.GetUserClaims(conf, usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func unmarshall(t *testing.T, rec *httptest.ResponseRecorder, obj interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), obj); err != nil {
		t.Fatalf("unmarshall() failed: %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runTests(t *testing.T, f *fixture, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, f.do(tt))
		})
	}
}
