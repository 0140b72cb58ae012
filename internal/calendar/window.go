package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Errors for requests that cannot be sent to Google.
var (
	ErrInvalidTime    = errors.New("invalid timestamp")
	ErrEndBeforeStart = errors.New("end time must be after start time")
	ErrUnknownPeriod  = errors.New("either provide start/end times or use period='current_month'")
	ErrMissingTitle   = errors.New("event title is required")
)

// PeriodCurrentMonth selects the calendar month containing now, in UTC.
const PeriodCurrentMonth = "current_month"

// NaiveLayout is the timestamp form the agent is instructed to produce.
const NaiveLayout = "2006-01-02T15:04:05"

// Window is a half-open listing range. A zero bound is unbounded.
type Window struct {
	Start time.Time
	End   time.Time
}

// ParseTimestamp parses RFC 3339 or NaiveLayout. Naive timestamps are UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(NaiveLayout, s, time.UTC); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w %q: use YYYY-MM-DDTHH:MM:SS", ErrInvalidTime, s)
}

// ResolveWindow turns a query into concrete bounds. Explicit bounds are used
// as given. Without them the period must be current_month, which resolves to
// the first instant through the last second of now's UTC month.
func ResolveWindow(now time.Time, q ListQuery) (Window, error) {
	if strings.TrimSpace(q.TimeMin) != "" || strings.TrimSpace(q.TimeMax) != "" {
		var w Window
		var err error
		if strings.TrimSpace(q.TimeMin) != "" {
			if w.Start, err = ParseTimestamp(q.TimeMin); err != nil {
				return Window{}, err
			}
		}
		if strings.TrimSpace(q.TimeMax) != "" {
			if w.End, err = ParseTimestamp(q.TimeMax); err != nil {
				return Window{}, err
			}
		}
		if !w.Start.IsZero() && !w.End.IsZero() && !w.End.After(w.Start) {
			return Window{}, ErrEndBeforeStart
		}
		return w, nil
	}

	if normalizePeriod(q.Period) != PeriodCurrentMonth {
		return Window{}, ErrUnknownPeriod
	}

	now = now.UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Window{
		Start: first,
		End:   first.AddDate(0, 1, 0).Add(-time.Second),
	}, nil
}

func normalizePeriod(p string) string {
	return strings.ToLower(strings.Join(strings.Fields(p), "_"))
}
