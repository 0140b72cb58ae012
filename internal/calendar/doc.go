// Package calendar wraps the Google Calendar API operations calchat needs:
// creating an event, listing events in a window, listing the user's
// calendars and exporting events as iCalendar.
//
// Timestamps cross this package as strings because they come from, and go
// back to, a language model. ParseTimestamp accepts RFC 3339 and the naive
// form 2006-01-02T15:04:05, which is read as UTC.
//
//	client, err := calendar.NewClient(ctx, tokenSource)
//	if err != nil {
//	    return err
//	}
//	link, err := client.CreateEvent(ctx, calendar.EventInput{
//	    Title: "Standup",
//	    Start: "2024-03-15T10:00:00",
//	    End:   "2024-03-15T10:15:00",
//	})
package calendar
