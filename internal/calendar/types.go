package calendar

import (
	calendar "google.golang.org/api/calendar/v3"
)

// EventInput describes an event to create.
type EventInput struct {
	Title     string
	Start     string
	End       string
	Attendees []string
}

// ListQuery selects events to list. An explicit TimeMin or TimeMax wins over Period.
type ListQuery struct {
	TimeMin    string
	TimeMax    string
	Period     string
	MaxResults int
}

// EventSummary is a normalized event as returned by ListEvents.
type EventSummary struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Start     string         `json:"start"`
	End       string         `json:"end"`
	AllDay    bool           `json:"all_day,omitempty"`
	Location  string         `json:"location,omitempty"`
	Status    string         `json:"status,omitempty"`
	HTMLLink  string         `json:"html_link,omitempty"`
	Attendees []AttendeeInfo `json:"attendees,omitempty"`
}

// AttendeeInfo is the part of an attendee worth showing back to the user.
type AttendeeInfo struct {
	Email          string `json:"email"`
	ResponseStatus string `json:"response_status,omitempty"` // "needsAction", "declined", "tentative", "accepted"
}

// CalendarInfo describes one of the user's calendars.
type CalendarInfo struct {
	ID       string `json:"id"`
	Summary  string `json:"summary"`
	TimeZone string `json:"time_zone,omitempty"`
	Primary  bool   `json:"primary,omitempty"`
}

// toEventSummary normalizes a Google event, preferring dateTime over date.
func toEventSummary(event *calendar.Event) EventSummary {
	if event == nil {
		return EventSummary{}
	}

	summary := EventSummary{
		ID:       event.Id,
		Title:    event.Summary,
		Location: event.Location,
		Status:   event.Status,
		HTMLLink: event.HtmlLink,
	}

	summary.Start, summary.AllDay = eventTime(event.Start)
	summary.End, _ = eventTime(event.End)

	for _, att := range event.Attendees {
		if att == nil {
			continue
		}
		summary.Attendees = append(summary.Attendees, AttendeeInfo{
			Email:          att.Email,
			ResponseStatus: att.ResponseStatus,
		})
	}

	return summary
}

func eventTime(t *calendar.EventDateTime) (string, bool) {
	if t == nil {
		return "", false
	}
	if t.DateTime != "" {
		return t.DateTime, false
	}
	return t.Date, t.Date != ""
}

func toCalendarInfo(entry *calendar.CalendarListEntry) CalendarInfo {
	if entry == nil {
		return CalendarInfo{}
	}
	return CalendarInfo{
		ID:       entry.Id,
		Summary:  entry.Summary,
		TimeZone: entry.TimeZone,
		Primary:  entry.Primary,
	}
}
