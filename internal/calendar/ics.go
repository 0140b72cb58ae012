package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

const icsProductID = "-//calchat//calendar export//EN"

// WriteICS encodes events as a VCALENDAR document. stamp is written as each
// event's DTSTAMP. No events yield a calendar without components.
func WriteICS(w io.Writer, events []EventSummary, stamp time.Time) error {
	if len(events) == 0 {
		return writeEmptyICS(w)
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, icsProductID)

	for _, event := range events {
		ve, err := toVEvent(event, stamp)
		if err != nil {
			return err
		}
		cal.Children = append(cal.Children, ve)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode events to iCal format: %w", err)
	}
	return nil
}

// writeEmptyICS writes the VCALENDAR envelope in the encoder's layout. The
// encoder rejects calendars without components.
func writeEmptyICS(w io.Writer) error {
	doc := "BEGIN:" + ical.CompCalendar + "\r\n" +
		ical.PropProductID + ":" + icsProductID + "\r\n" +
		ical.PropVersion + ":2.0\r\n" +
		"END:" + ical.CompCalendar + "\r\n"
	if _, err := io.WriteString(w, doc); err != nil {
		return fmt.Errorf("failed to write empty calendar: %w", err)
	}
	return nil
}

func toVEvent(event EventSummary, stamp time.Time) (*ical.Component, error) {
	uid := event.ID
	if uid == "" {
		uid = uuid.NewString()
	}

	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, uid)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	ve.Props.SetText(ical.PropSummary, event.Title)

	if err := setEventTime(ve, ical.PropDateTimeStart, event.Start, event.AllDay); err != nil {
		return nil, fmt.Errorf("event %s start: %w", uid, err)
	}
	if event.End != "" {
		if err := setEventTime(ve, ical.PropDateTimeEnd, event.End, event.AllDay); err != nil {
			return nil, fmt.Errorf("event %s end: %w", uid, err)
		}
	}

	if event.Location != "" {
		ve.Props.SetText(ical.PropLocation, event.Location)
	}
	if event.HTMLLink != "" {
		ve.Props.SetText(ical.PropDescription, event.HTMLLink)
	}
	if status := strings.ToUpper(event.Status); status != "" {
		ve.Props.SetText(ical.PropStatus, status)
	}
	for _, attendee := range event.Attendees {
		p := ical.NewProp(ical.PropAttendee)
		p.Value = "mailto:" + attendee.Email
		ve.Props.Add(p)
	}
	return ve, nil
}

func setEventTime(ve *ical.Component, name, value string, allDay bool) error {
	if allDay {
		d, err := time.Parse(time.DateOnly, value)
		if err != nil {
			return fmt.Errorf("%w %q", ErrInvalidTime, value)
		}
		p := ical.NewProp(name)
		p.SetDate(d)
		ve.Props.Set(p)
		return nil
	}

	t, err := ParseTimestamp(value)
	if err != nil {
		return err
	}
	ve.Props.SetDateTime(name, t.UTC())
	return nil
}
