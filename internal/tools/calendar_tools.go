package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/calchat/internal/calendar"
	"github.com/teemow/calchat/internal/instrumentation"
)

// CreateEventArgs are the arguments of schedule_calendar_event.
type CreateEventArgs struct {
	Title     string    `json:"title"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Attendees EmailList `json:"attendees,omitempty"`
}

// CreateEventResult carries either the new event's link or an error.
type CreateEventResult struct {
	EventLink string `json:"event_link,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ErrorMessage implements Result.
func (r CreateEventResult) ErrorMessage() string { return r.Error }

// ListEventsArgs are the arguments of list_calendar_events.
type ListEventsArgs struct {
	StartTime  string `json:"start_time,omitempty"`
	EndTime    string `json:"end_time,omitempty"`
	Period     string `json:"period,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

// ListEventsResult carries the listed events. On error Count is zero and
// Events is empty, never null.
type ListEventsResult struct {
	Count  int                     `json:"count"`
	Events []calendar.EventSummary `json:"events"`
	Error  string                  `json:"error,omitempty"`
}

// ErrorMessage implements Result.
func (r ListEventsResult) ErrorMessage() string { return r.Error }

// EmailList accepts either a JSON array of addresses or a single
// comma-separated string.
type EmailList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *EmailList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}

	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return fmt.Errorf("attendees must be a list of email addresses")
	}
	*l = nil
	for _, part := range strings.Split(joined, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l = append(*l, part)
		}
	}
	return nil
}

func scheduleEventTool() mcp.Tool {
	return mcp.NewTool(string(ScheduleEvent),
		mcp.WithDescription("Schedule a calendar event with the given details. Only call once the title, start time and end time are known."),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Event title"),
		),
		mcp.WithString("start_time",
			mcp.Required(),
			mcp.Description("Start time in YYYY-MM-DDTHH:MM:SS format, e.g. '2024-03-15T10:00:00'"),
		),
		mcp.WithString("end_time",
			mcp.Required(),
			mcp.Description("End time in YYYY-MM-DDTHH:MM:SS format, e.g. '2024-03-15T11:00:00'"),
		),
		mcp.WithArray("attendees",
			mcp.Description("Email addresses of the people to invite"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
}

func listEventsTool() mcp.Tool {
	return mcp.NewTool(string(ListEvents),
		mcp.WithDescription("List calendar events. Give start_time and/or end_time for a specific range, or period='current_month' for this month."),
		mcp.WithString("start_time",
			mcp.Description("Start of the range (RFC3339 or YYYY-MM-DDTHH:MM:SS, UTC)"),
		),
		mcp.WithString("end_time",
			mcp.Description("End of the range (RFC3339 or YYYY-MM-DDTHH:MM:SS, UTC)"),
		),
		mcp.WithString("period",
			mcp.Description("Named period used when no range is given"),
			mcp.Enum(calendar.PeriodCurrentMonth),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of events to return (default: 250)"),
		),
	)
}

func (r *Registry) scheduleEvent(ctx context.Context, arguments json.RawMessage, audit *instrumentation.ToolInvocation) Result {
	audit.WithOperation(instrumentation.OperationCreate)
	var args CreateEventArgs
	if err := json.Unmarshal(arguments, &args); err != nil {
		return CreateEventResult{Error: fmt.Sprintf("invalid arguments: %v", err)}
	}
	audit.WithAttendees(args.Attendees)
	return r.ScheduleEvent(ctx, args)
}

// ScheduleEvent creates the event described by args.
func (r *Registry) ScheduleEvent(ctx context.Context, args CreateEventArgs) CreateEventResult {
	link, err := r.cal.CreateEvent(ctx, calendar.EventInput{
		Title:     args.Title,
		Start:     args.StartTime,
		End:       args.EndTime,
		Attendees: args.Attendees,
	})
	if err != nil {
		return CreateEventResult{Error: err.Error()}
	}
	return CreateEventResult{EventLink: link}
}

func (r *Registry) listEvents(ctx context.Context, arguments json.RawMessage, audit *instrumentation.ToolInvocation) Result {
	audit.WithOperation(instrumentation.OperationList)
	var args ListEventsArgs
	if err := json.Unmarshal(arguments, &args); err != nil {
		return ListEventsResult{Events: []calendar.EventSummary{}, Error: fmt.Sprintf("invalid arguments: %v", err)}
	}
	return r.ListEvents(ctx, args)
}

// ListEvents lists the events selected by args.
func (r *Registry) ListEvents(ctx context.Context, args ListEventsArgs) ListEventsResult {
	events, err := r.cal.ListEvents(ctx, calendar.ListQuery{
		TimeMin:    args.StartTime,
		TimeMax:    args.EndTime,
		Period:     args.Period,
		MaxResults: args.MaxResults,
	})
	if err != nil {
		return ListEventsResult{Events: []calendar.EventSummary{}, Error: err.Error()}
	}
	if events == nil {
		events = []calendar.EventSummary{}
	}
	return ListEventsResult{Count: len(events), Events: events}
}
