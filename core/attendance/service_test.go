package attendance_test

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendix/attendix/core"
	"github.com/attendix/attendix/core/attendance"
	"github.com/attendix/attendix/storage/database/inmem"
	"github.com/attendix/attendix/testutil"
)

func ptr(f float64) *float64 { return &f }

func newService(t *testing.T, geo core.Geocoder) (*attendance.Service, core.Actor, core.Actor, core.Actor) {
	t.Helper()
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	empRepo := inmemdb.NewEmployeeRepository(db)

	admin := testutil.CreateAdmin(t, usrRepo, "Acme", "Ada", "ada@acme.test", "")
	_, emp := testutil.CreateEmployee(t, empRepo, usrRepo, admin.OrganizationID, "Eve", "eve@acme.test", "+911234567890")
	other := testutil.CreateAdmin(t, usrRepo, "Globex", "Olga", "olga@globex.test", "")
	_, out := testutil.CreateEmployee(t, empRepo, usrRepo, other.OrganizationID, "Otto", "", "+911234567892")

	svc := attendance.NewService(inmemdb.NewAttendanceRepository(db), geo, &testutil.NopLogger{}, core.NewTestConfig())
	return svc, admin.Actor(), emp.Actor(), out.Actor()
}

func TestService_ClockInOut(t *testing.T) {
	svc, admin, emp, _ := newService(t, &testutil.Geocoder{Address: "MG Road, Bengaluru"})
	ctx := context.Background()
	p := attendance.Punch{Latitude: ptr(12.97), Longitude: ptr(77.59)}

	// 09:00 IST
	testutil.FreezeTime(t, time.Date(2025, time.June, 10, 3, 30, 0, 0, time.UTC))

	_, err := svc.ClockIn(ctx, admin, p)
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, attendance.ErrNoEmployee, verr.Err)

	_, err = svc.ClockOut(ctx, emp, p)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, attendance.ErrNotClockedIn, verr.Err)

	in, err := svc.ClockIn(ctx, emp, p)
	require.NoError(t, err)
	assert.Equal(t, attendance.PunchIn, in.Type)
	assert.Equal(t, "MG Road, Bengaluru", in.Address)
	assert.Equal(t, 12.97, in.Latitude)

	_, err = svc.ClockIn(ctx, emp, p)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, attendance.ErrAlreadyClockedIn, verr.Err)

	// 18:15 IST
	testutil.FreezeTime(t, time.Date(2025, time.June, 10, 12, 45, 0, 0, time.UTC))
	out, err := svc.ClockOut(ctx, emp, p)
	require.NoError(t, err)
	assert.Equal(t, attendance.PunchOut, out.Type)

	views, err := svc.ForEmployee(ctx, emp.EmployeeID, svc.Today())
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "2025-06-10", views[0].Date)
	assert.Equal(t, "9:00 AM", views[0].Time)
	assert.Equal(t, "6:15 PM", views[1].Time)
}

func TestService_ClockInNextDay(t *testing.T) {
	svc, _, emp, _ := newService(t, &testutil.Geocoder{Address: "here"})
	ctx := context.Background()
	p := attendance.Punch{Latitude: ptr(1), Longitude: ptr(2)}

	testutil.FreezeTime(t, time.Date(2025, time.June, 10, 3, 30, 0, 0, time.UTC))
	_, err := svc.ClockIn(ctx, emp, p)
	require.NoError(t, err)

	// an open session of a previous day does not block a new clock-in
	testutil.FreezeTime(t, time.Date(2025, time.June, 11, 3, 30, 0, 0, time.UTC))
	_, err = svc.ClockIn(ctx, emp, p)
	require.NoError(t, err)
}

func TestService_GeocoderFallbacks(t *testing.T) {
	p := attendance.Punch{Latitude: ptr(1), Longitude: ptr(2)}

	svc, _, emp, _ := newService(t, &testutil.Geocoder{Err: errors.New("quota exceeded")})
	rec, err := svc.ClockIn(context.Background(), emp, p)
	require.NoError(t, err)
	assert.Equal(t, core.AddressError, rec.Address)

	svc, _, emp, _ = newService(t, &testutil.Geocoder{})
	rec, err = svc.ClockIn(context.Background(), emp, p)
	require.NoError(t, err)
	assert.Equal(t, core.AddressNotFound, rec.Address)
}

func TestService_Combined(t *testing.T) {
	svc, admin, emp, outsider := newService(t, &testutil.Geocoder{Address: "Office"})
	ctx := context.Background()
	p := attendance.Punch{Latitude: ptr(1), Longitude: ptr(2)}

	punch := func(at time.Time, actor core.Actor, in bool) {
		t.Helper()
		testutil.FreezeTime(t, at)
		var err error
		if in {
			_, err = svc.ClockIn(ctx, actor, p)
		} else {
			_, err = svc.ClockOut(ctx, actor, p)
		}
		require.NoError(t, err)
	}
	// day 1 (IST): 09:00 in, 13:00 out, 14:00 in, 18:30 out
	punch(time.Date(2025, time.June, 9, 3, 30, 0, 0, time.UTC), emp, true)
	punch(time.Date(2025, time.June, 9, 7, 30, 0, 0, time.UTC), emp, false)
	punch(time.Date(2025, time.June, 9, 8, 30, 0, 0, time.UTC), emp, true)
	punch(time.Date(2025, time.June, 9, 13, 0, 0, 0, time.UTC), emp, false)
	// day 2: no clock out
	punch(time.Date(2025, time.June, 10, 4, 0, 0, 0, time.UTC), emp, true)
	// another organization
	punch(time.Date(2025, time.June, 10, 4, 0, 0, 0, time.UTC), outsider, true)

	rng := core.DateRange{From: civil.Date{Year: 2025, Month: time.June, Day: 1}, To: civil.Date{Year: 2025, Month: time.June, Day: 10}}
	summaries, err := svc.Combined(ctx, admin.OrganizationID, 0, rng)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, attendance.DailySummary{
		EmployeeID:      emp.EmployeeID,
		EmployeeName:    "Eve",
		Date:            civil.Date{Year: 2025, Month: time.June, Day: 9},
		ClockIn:         "09:00 AM",
		ClockOut:        "06:30 PM",
		ClockInAddress:  "Office",
		ClockOutAddress: "Office",
		WorkedTime:      "9h 30m",
	}, summaries[0])
	assert.Equal(t, "09:30 AM", summaries[1].ClockIn)
	assert.Equal(t, "", summaries[1].ClockOut)
	assert.Equal(t, attendance.WorkedMissingOut, summaries[1].WorkedTime)

	_, err = svc.ForOrganizationEmployee(ctx, admin.OrganizationID, outsider.EmployeeID, rng)
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, attendance.ErrEmployeeNotInOrg, verr.Err)
}

func TestWorkedTime(t *testing.T) {
	at := func(h, m int) *time.Time {
		tm := time.Date(2025, time.June, 9, h, m, 0, 0, time.UTC)
		return &tm
	}
	assert.Equal(t, "8h 5m", attendance.WorkedTime(at(9, 0), at(17, 5)))
	assert.Equal(t, "0h 1m", attendance.WorkedTime(at(9, 0), at(9, 1)))
	assert.Equal(t, attendance.WorkedOutBeforeIn, attendance.WorkedTime(at(9, 0), at(8, 0)))
	assert.Equal(t, attendance.WorkedOutBeforeIn, attendance.WorkedTime(at(9, 0), at(9, 0)))
	assert.Equal(t, attendance.WorkedMissingOut, attendance.WorkedTime(at(9, 0), nil))
	assert.Equal(t, attendance.WorkedMissingOut, attendance.WorkedTime(nil, at(9, 0)))
}

func TestRangeQuery(t *testing.T) {
	fallback := core.DateRange{From: civil.Date{Year: 2025, Month: time.June, Day: 1}, To: civil.Date{Year: 2025, Month: time.June, Day: 10}}

	rng, err := attendance.RangeQuery{}.Range(fallback)
	require.NoError(t, err)
	assert.Equal(t, fallback, rng)

	rng, err = attendance.RangeQuery{StartDate: "2025-05-01", EndDate: "2025-05-31T00:00:00Z"}.Range(fallback)
	require.NoError(t, err)
	assert.Equal(t, "2025-05-01", rng.From.String())
	assert.Equal(t, "2025-05-31", rng.To.String())

	_, err = attendance.RangeQuery{StartDate: "tomorrow"}.Range(fallback)
	assert.Error(t, err)

	_, err = attendance.RangeQuery{StartDate: "2025-06-10", EndDate: "2025-06-01"}.Range(fallback)
	assert.Error(t, err)
}

func TestParseEmployeeID(t *testing.T) {
	for in, want := range map[string]int{"": 0, "all": 0, " ALL ": 0, "0": 0, "17": 17} {
		got, err := attendance.ParseEmployeeID(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := attendance.ParseEmployeeID("-3")
	assert.Error(t, err)
	_, err = attendance.ParseEmployeeID("eve")
	assert.Error(t, err)
}
