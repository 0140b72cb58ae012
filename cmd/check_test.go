package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calchat/internal/calendar"
)

type fakeCalendar struct {
	id        string
	calendars []calendar.CalendarInfo
	events    []calendar.EventSummary
	err       error
	queries   []calendar.ListQuery
	upcoming  int
}

func (f *fakeCalendar) CalendarID() string {
	if f.id == "" {
		return "primary"
	}
	return f.id
}

func (f *fakeCalendar) ListCalendars(context.Context) ([]calendar.CalendarInfo, error) {
	return f.calendars, f.err
}

func (f *fakeCalendar) UpcomingEvents(_ context.Context, n int) ([]calendar.EventSummary, error) {
	f.upcoming = n
	return f.events, f.err
}

func (f *fakeCalendar) ListEvents(_ context.Context, q calendar.ListQuery) ([]calendar.EventSummary, error) {
	f.queries = append(f.queries, q)
	return f.events, f.err
}

func TestRunCheck(t *testing.T) {
	cal := &fakeCalendar{
		id: "team@group.calendar.google.com",
		calendars: []calendar.CalendarInfo{
			{ID: "me@example.com", Summary: "Me", Primary: true},
			{ID: "team@group.calendar.google.com", Summary: "Team"},
		},
		events: []calendar.EventSummary{
			{Title: "Standup", Start: "2024-03-15T10:00:00Z"},
			{Title: "Holiday", Start: "2024-03-20", AllDay: true},
		},
	}
	var out bytes.Buffer

	require.NoError(t, runCheck(context.Background(), &out, cal))

	assert.Equal(t, checkEventCount, cal.upcoming)
	assert.Contains(t, out.String(), "Found 2 calendar(s):")
	assert.Contains(t, out.String(), "Me (primary) [me@example.com]")
	assert.Contains(t, out.String(), "Next 2 event(s) in team@group.calendar.google.com:")
	assert.Contains(t, out.String(), "2024-03-15T10:00:00Z  Standup")
}

func TestRunCheck_NoEvents(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runCheck(context.Background(), &out, &fakeCalendar{}))
	assert.Contains(t, out.String(), "No upcoming events found in primary.")
}

func TestRunCheck_Error(t *testing.T) {
	var out bytes.Buffer
	err := runCheck(context.Background(), &out, &fakeCalendar{err: errors.New("forbidden")})
	assert.ErrorContains(t, err, "forbidden")
}

func TestRunExport(t *testing.T) {
	cal := &fakeCalendar{events: []calendar.EventSummary{
		{ID: "evt1", Title: "Standup", Start: "2024-03-15T10:00:00Z", End: "2024-03-15T10:15:00Z"},
	}}
	var out bytes.Buffer

	q := calendar.ListQuery{Period: calendar.PeriodCurrentMonth}
	require.NoError(t, runExport(context.Background(), &out, cal, q))

	assert.Equal(t, []calendar.ListQuery{q}, cal.queries)
	assert.Contains(t, out.String(), "BEGIN:VCALENDAR")
	assert.Contains(t, out.String(), "SUMMARY:Standup")
	assert.Contains(t, out.String(), "UID:evt1")
}

func TestRunExport_NoEvents(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runExport(context.Background(), &out, &fakeCalendar{}, calendar.ListQuery{}))
	assert.Contains(t, out.String(), "BEGIN:VCALENDAR")
	assert.Contains(t, out.String(), "END:VCALENDAR")
	assert.NotContains(t, out.String(), "BEGIN:VEVENT")
}
