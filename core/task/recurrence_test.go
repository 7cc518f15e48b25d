package task

import (
	"encoding/json"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendix/attendix/core"
)

func date(s string) civil.Date {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		req       RecurrenceRequest
		want      Rule
		wantErr   error
		wantField string
	}{
		{
			name: "type defaults to none",
			req:  RecurrenceRequest{DueDate: "2025-03-10"},
			want: Rule{Type: RecurrenceNone, Anchor: date("2025-03-10")},
		},
		{
			name: "none ignores an invalid end date",
			req:  RecurrenceRequest{RecurrenceType: "none", DueDate: "2025-03-10", RecurrenceEndDate: "nope"},
			want: Rule{Type: RecurrenceNone, Anchor: date("2025-03-10")},
		},
		{
			name: "type is case insensitive and datetime is truncated",
			req:  RecurrenceRequest{RecurrenceType: " Daily ", DueDate: "2025-03-10T18:30:00.000Z", RecurrenceEndDate: "2025-03-12"},
			want: Rule{Type: RecurrenceDaily, Anchor: date("2025-03-10"), End: date("2025-03-12")},
		},
		{
			name: "unpadded dates",
			req:  RecurrenceRequest{RecurrenceType: "daily", DueDate: "2025-3-9", RecurrenceEndDate: "2025-3-12"},
			want: Rule{Type: RecurrenceDaily, Anchor: date("2025-03-09"), End: date("2025-03-12")},
		},
		{
			name:      "unknown type",
			req:       RecurrenceRequest{RecurrenceType: "yearly", DueDate: "2025-03-10"},
			wantErr:   ErrInvalidRecurrenceType,
			wantField: "recurrence_type",
		},
		{
			name:      "invalid due date",
			req:       RecurrenceRequest{DueDate: "10/03/2025"},
			wantErr:   ErrInvalidDueDate,
			wantField: "due_date",
		},
		{
			name:      "impossible due date",
			req:       RecurrenceRequest{DueDate: "2025-02-30"},
			wantErr:   ErrInvalidDueDate,
			wantField: "due_date",
		},
		{
			name: "weekly days are cleaned and deduplicated",
			req: RecurrenceRequest{
				RecurrenceType: "weekly", DueDate: "2025-06-02", RecurrenceEndDate: "2025-06-13",
				RecurrenceDays: DaySelector{" WED", "mon", "", "wed"},
			},
			want: Rule{Type: RecurrenceWeekly, Anchor: date("2025-06-02"), End: date("2025-06-13"), Weekdays: []string{"wed", "mon"}},
		},
		{
			name:      "weekly without days",
			req:       RecurrenceRequest{RecurrenceType: "weekly", DueDate: "2025-06-02", RecurrenceEndDate: "2025-06-13", RecurrenceDays: DaySelector{}},
			wantErr:   ErrMissingWeekdays,
			wantField: "recurrence_days",
		},
		{
			name:      "weekly with blank days only",
			req:       RecurrenceRequest{RecurrenceType: "weekly", DueDate: "2025-06-02", RecurrenceEndDate: "2025-06-13", RecurrenceDays: DaySelector{" ", ""}},
			wantErr:   ErrMissingWeekdays,
			wantField: "recurrence_days",
		},
		{
			name:      "weekly with an unknown day",
			req:       RecurrenceRequest{RecurrenceType: "weekly", DueDate: "2025-06-02", RecurrenceEndDate: "2025-06-13", RecurrenceDays: DaySelector{"mon", "funday"}},
			wantErr:   ErrInvalidWeekday,
			wantField: "recurrence_days",
		},
		{
			name: "monthly day defaults to the anchor day",
			req:  RecurrenceRequest{RecurrenceType: "monthly", DueDate: "2025-01-31", RecurrenceEndDate: "2025-04-30"},
			want: Rule{Type: RecurrenceMonthly, Anchor: date("2025-01-31"), End: date("2025-04-30"), MonthDay: 31},
		},
		{
			name: "monthly day given as a float",
			req:  RecurrenceRequest{RecurrenceType: "monthly", DueDate: "2025-01-01", RecurrenceEndDate: "2025-04-30", MonthlyDay: "15.0"},
			want: Rule{Type: RecurrenceMonthly, Anchor: date("2025-01-01"), End: date("2025-04-30"), MonthDay: 15},
		},
		{
			name:      "monthly day out of range",
			req:       RecurrenceRequest{RecurrenceType: "monthly", DueDate: "2025-01-01", RecurrenceEndDate: "2025-04-30", MonthlyDay: "32"},
			wantErr:   ErrInvalidMonthDay,
			wantField: "monthly_day",
		},
		{
			name:      "monthly day zero",
			req:       RecurrenceRequest{RecurrenceType: "monthly", DueDate: "2025-01-01", RecurrenceEndDate: "2025-04-30", MonthlyDay: "0"},
			wantErr:   ErrInvalidMonthDay,
			wantField: "monthly_day",
		},
		{
			name:      "monthly day fractional",
			req:       RecurrenceRequest{RecurrenceType: "monthly", DueDate: "2025-01-01", RecurrenceEndDate: "2025-04-30", MonthlyDay: "2.5"},
			wantErr:   ErrInvalidMonthDay,
			wantField: "monthly_day",
		},
		{
			name:      "recurring without end date",
			req:       RecurrenceRequest{RecurrenceType: "daily", DueDate: "2025-01-01"},
			wantErr:   ErrMissingEndDate,
			wantField: "recurrence_end_date",
		},
		{
			name:      "unparsable end date counts as missing",
			req:       RecurrenceRequest{RecurrenceType: "daily", DueDate: "2025-01-01", RecurrenceEndDate: "soon"},
			wantErr:   ErrMissingEndDate,
			wantField: "recurrence_end_date",
		},
		{
			name:      "end before start",
			req:       RecurrenceRequest{RecurrenceType: "daily", DueDate: "2025-01-10", RecurrenceEndDate: "2025-01-09"},
			wantErr:   ErrEndBeforeStart,
			wantField: "recurrence_end_date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.req)
			if tt.wantErr != nil {
				require.Error(t, err)
				var verr *core.ValidationError
				require.True(t, errors.As(err, &verr), "want a *core.ValidationError, got %T", err)
				assert.Equal(t, tt.wantErr, verr.Err)
				require.Len(t, verr.Fields, 1)
				assert.Equal(t, tt.wantField, verr.Fields[0].Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	reqs := []RecurrenceRequest{
		{DueDate: "2025-03-10"},
		{RecurrenceType: "DAILY", DueDate: "2025-03-10T00:00:00Z", RecurrenceEndDate: "2025-03-20"},
		{RecurrenceType: "weekly", DueDate: "2025-03-10", RecurrenceEndDate: "2025-05-01", RecurrenceDays: DaySelector{"fri", "Mon", "fri"}},
		{RecurrenceType: "monthly", DueDate: "2025-03-10", RecurrenceEndDate: "2025-12-31", MonthlyDay: "31"},
		{RecurrenceType: "monthly", DueDate: "2025-03-10", RecurrenceEndDate: "2025-12-31"},
	}
	for _, req := range reqs {
		rule, err := Normalize(req)
		require.NoError(t, err)
		again, err := Normalize(rule.Request())
		require.NoError(t, err)
		assert.Equal(t, rule, again)
	}
}

func TestRecurrenceRequestDecoding(t *testing.T) {
	tests := []struct {
		name string
		body string
		want RecurrenceRequest
	}{
		{
			name: "array of days and numeric monthly day",
			body: `{"recurrence_type":"weekly","due_date":"2025-06-02","recurrence_days":["mon","wed"],"monthly_day":15}`,
			want: RecurrenceRequest{RecurrenceType: "weekly", DueDate: "2025-06-02", RecurrenceDays: DaySelector{"mon", "wed"}, MonthlyDay: "15"},
		},
		{
			name: "comma separated days",
			body: `{"recurrence_days":"mon, wed,,fri","monthly_day":"7"}`,
			want: RecurrenceRequest{RecurrenceDays: DaySelector{"mon", " wed", "", "fri"}, MonthlyDay: "7"},
		},
		{
			name: "nulls",
			body: `{"recurrence_days":null,"monthly_day":null}`,
			want: RecurrenceRequest{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got RecurrenceRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRuleDays(t *testing.T) {
	assert.Equal(t, "", Rule{Type: RecurrenceDaily}.Days())
	assert.Equal(t, "wed,mon", Rule{Type: RecurrenceWeekly, Weekdays: []string{"wed", "mon"}}.Days())
	assert.Equal(t, "31", Rule{Type: RecurrenceMonthly, MonthDay: 31}.Days())
}
