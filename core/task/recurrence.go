package task

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/pkg/errors"

	"github.com/attendix/attendix/core"
)

type RecurrenceType string

const (
	RecurrenceNone    RecurrenceType = "none"
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
)

var (
	ErrInvalidRecurrenceType = errors.New("recurrence_type must be one of: none, daily, weekly, monthly")
	ErrInvalidDueDate        = errors.New("due_date must be a valid date (YYYY-MM-DD)")
	ErrMissingWeekdays       = errors.New("select at least one weekday for weekly recurrence")
	ErrInvalidWeekday        = errors.New("recurrence_days must only contain sun, mon, tue, wed, thu, fri, sat")
	ErrInvalidMonthDay       = errors.New("monthly_day must be a whole number between 1 and 31")
	ErrMissingEndDate        = errors.New("recurrence_end_date is required for recurring tasks")
	ErrEndBeforeStart        = errors.New("recurrence_end_date cannot be before due_date")
)

var weekdaySymbols = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// DaySelector is the weekly day list. It decodes from a JSON array or from a comma separated string.
type DaySelector []string

func (ds *DaySelector) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*ds = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var items []interface{}
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make(DaySelector, 0, len(items))
		for _, it := range items {
			if it == nil {
				continue
			}
			out = append(out, fmt.Sprint(it))
		}
		*ds = out
		return nil
	}
	var s LooseString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	*ds = strings.Split(string(s), ",")
	return nil
}

// LooseString decodes a JSON string or number into its textual form.
type LooseString string

func (ls *LooseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*ls = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*ls = LooseString(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return errors.Errorf("expected a string or a number, got %s", data)
		}
		*ls = LooseString(n.String())
	}
	return nil
}

// RecurrenceRequest holds the recurrence fields of a task creation payload, as submitted.
type RecurrenceRequest struct {
	RecurrenceType    string      `json:"recurrence_type"`
	DueDate           string      `json:"due_date"`
	RecurrenceDays    DaySelector `json:"recurrence_days"`
	RecurrenceEndDate string      `json:"recurrence_end_date"`
	MonthlyDay        LooseString `json:"monthly_day"`
}

// Rule is a validated recurrence rule. Weekdays is only set for weekly rules and MonthDay for monthly ones.
type Rule struct {
	Type     RecurrenceType
	Anchor   civil.Date
	End      civil.Date // zero when absent; always set unless Type is none
	Weekdays []string   // canonical symbols, first-seen order
	MonthDay int
}

// HasEnd reports whether the rule carries an end date.
func (r Rule) HasEnd() bool { return r.End != (civil.Date{}) }

// Days returns the canonical day selector persisted with every instance.
func (r Rule) Days() string {
	switch r.Type {
	case RecurrenceWeekly:
		return strings.Join(r.Weekdays, ",")
	case RecurrenceMonthly:
		return strconv.Itoa(r.MonthDay)
	default:
		return ""
	}
}

// Request renders r back into its canonical request form.
func (r Rule) Request() RecurrenceRequest {
	req := RecurrenceRequest{
		RecurrenceType: string(r.Type),
		DueDate:        r.Anchor.String(),
	}
	if r.HasEnd() {
		req.RecurrenceEndDate = r.End.String()
	}
	switch r.Type {
	case RecurrenceWeekly:
		req.RecurrenceDays = append(DaySelector(nil), r.Weekdays...)
	case RecurrenceMonthly:
		req.MonthlyDay = LooseString(strconv.Itoa(r.MonthDay))
	}
	return req
}

// Normalize validates a recurrence request and turns it into a Rule.
// Errors are *core.ValidationError values naming the offending field; no storage is touched.
func Normalize(req RecurrenceRequest) (Rule, error) {
	typ := RecurrenceType(core.CleanString(req.RecurrenceType, true /* lower */))
	if typ == "" {
		typ = RecurrenceNone
	}
	switch typ {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
	default:
		return Rule{}, core.NewFieldError("recurrence_type", ErrInvalidRecurrenceType)
	}

	anchor, err := core.ParseDate(req.DueDate)
	if err != nil {
		return Rule{}, core.NewFieldError("due_date", ErrInvalidDueDate)
	}
	rule := Rule{Type: typ, Anchor: anchor}

	// an unparsable end date counts as a missing one
	if end, err := core.ParseDate(req.RecurrenceEndDate); err == nil {
		rule.End = end
	}

	switch typ {
	case RecurrenceWeekly:
		days, err := normalizeWeekdays(req.RecurrenceDays)
		if err != nil {
			return Rule{}, core.NewFieldError("recurrence_days", err)
		}
		rule.Weekdays = days
	case RecurrenceMonthly:
		day, err := normalizeMonthDay(string(req.MonthlyDay), anchor)
		if err != nil {
			return Rule{}, core.NewFieldError("monthly_day", err)
		}
		rule.MonthDay = day
	}

	if typ != RecurrenceNone {
		if !rule.HasEnd() {
			return Rule{}, core.NewFieldError("recurrence_end_date", ErrMissingEndDate)
		}
		if rule.End.Before(rule.Anchor) {
			return Rule{}, core.NewFieldError("recurrence_end_date", ErrEndBeforeStart)
		}
	}
	return rule, nil
}

func normalizeWeekdays(raw DaySelector) ([]string, error) {
	days := make([]string, 0, len(raw))
	for _, d := range raw {
		if d = core.CleanString(d, true /* lower */); d != "" {
			days = append(days, d)
		}
	}
	if len(days) == 0 {
		return nil, ErrMissingWeekdays
	}

	seen := make(map[string]bool, len(days))
	unique := make([]string, 0, len(days))
	for _, d := range days {
		if _, ok := weekdaySymbols[d]; !ok {
			return nil, ErrInvalidWeekday
		}
		if !seen[d] {
			seen[d] = true
			unique = append(unique, d)
		}
	}
	return unique, nil
}

func normalizeMonthDay(raw string, anchor civil.Date) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return anchor.Day, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || f < 1 || f > 31 {
		return 0, ErrInvalidMonthDay
	}
	return int(f), nil
}
