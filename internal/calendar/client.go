package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/calchat/internal/google"
	"github.com/teemow/calchat/internal/instrumentation"
	"github.com/teemow/calchat/internal/logging"
)

const (
	// DefaultCalendarID is the authenticated user's primary calendar.
	DefaultCalendarID = "primary"

	// DefaultMaxResults caps a listing when the caller gives no limit.
	DefaultMaxResults = 250

	// CreatedWithoutLink is returned when Google does not report a link for a new event.
	CreatedWithoutLink = "Event created successfully"

	eventTimeZone = "UTC"
)

// Client wraps the Google Calendar service.
type Client struct {
	svc        *calendar.Service
	calendarID string
	now        func() time.Time
	metrics    *instrumentation.Metrics
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithCalendarID targets a calendar other than the primary one.
func WithCalendarID(id string) Option {
	return func(c *Client) {
		if id != "" {
			c.calendarID = id
		}
	}
}

// WithClock sets the time source used to resolve relative periods.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithMetrics records API calls on m.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a Calendar client authorized by ts.
func NewClient(ctx context.Context, ts oauth2.TokenSource, opts ...Option) (*Client, error) {
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(google.NewHTTPClient(ctx, ts)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return NewClientWithService(svc, opts...), nil
}

// NewClientWithService wraps an existing service.
func NewClientWithService(svc *calendar.Service, opts ...Option) *Client {
	c := &Client{
		svc:        svc,
		calendarID: DefaultCalendarID,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.WithComponent(c.logger, "calendar")
	return c
}

// CalendarID returns the calendar events are created in and listed from.
func (c *Client) CalendarID() string {
	return c.calendarID
}

// CreateEvent inserts an event and returns its link. Both endpoints are
// sent with the UTC time zone.
func (c *Client) CreateEvent(ctx context.Context, input EventInput) (string, error) {
	if strings.TrimSpace(input.Title) == "" {
		return "", ErrMissingTitle
	}
	start, err := ParseTimestamp(input.Start)
	if err != nil {
		return "", fmt.Errorf("start time: %w", err)
	}
	end, err := ParseTimestamp(input.End)
	if err != nil {
		return "", fmt.Errorf("end time: %w", err)
	}
	if !end.After(start) {
		return "", ErrEndBeforeStart
	}

	event := &calendar.Event{
		Summary: input.Title,
		Start: &calendar.EventDateTime{
			DateTime: strings.TrimSpace(input.Start),
			TimeZone: eventTimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: strings.TrimSpace(input.End),
			TimeZone: eventTimeZone,
		},
	}
	for _, email := range input.Attendees {
		if email = strings.TrimSpace(email); email != "" {
			event.Attendees = append(event.Attendees, &calendar.EventAttendee{Email: email})
		}
	}

	var created *calendar.Event
	err = c.observe(ctx, instrumentation.OperationCreate, func(ctx context.Context) error {
		var err error
		created, err = c.svc.Events.Insert(c.calendarID, event).Context(ctx).Do()
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to create event: %w", err)
	}

	c.logger.Info("event created",
		slog.String("event_id", created.Id),
		logging.Domains(input.Attendees),
	)

	if created.HtmlLink == "" {
		return CreatedWithoutLink, nil
	}
	return created.HtmlLink, nil
}

// ListEvents returns the single (expanded) events in the query's window,
// ordered by start time.
func (c *Client) ListEvents(ctx context.Context, q ListQuery) ([]EventSummary, error) {
	window, err := ResolveWindow(c.now(), q)
	if err != nil {
		return nil, err
	}

	maxResults := q.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	return c.list(ctx, window, int64(maxResults))
}

// UpcomingEvents returns the next n events starting from now.
func (c *Client) UpcomingEvents(ctx context.Context, n int) ([]EventSummary, error) {
	if n <= 0 {
		n = 10
	}
	return c.list(ctx, Window{Start: c.now()}, int64(n))
}

func (c *Client) list(ctx context.Context, window Window, maxResults int64) ([]EventSummary, error) {
	call := c.svc.Events.List(c.calendarID).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(maxResults)
	if !window.Start.IsZero() {
		call = call.TimeMin(window.Start.Format(time.RFC3339))
	}
	if !window.End.IsZero() {
		call = call.TimeMax(window.End.Format(time.RFC3339))
	}

	var events *calendar.Events
	err := c.observe(ctx, instrumentation.OperationList, func(ctx context.Context) error {
		var err error
		events, err = call.Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	summaries := make([]EventSummary, 0, len(events.Items))
	for _, event := range events.Items {
		summaries = append(summaries, toEventSummary(event))
	}
	return summaries, nil
}

// ListCalendars lists the calendars on the user's calendar list.
func (c *Client) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	var list *calendar.CalendarList
	err := c.observe(ctx, instrumentation.OperationCalendars, func(ctx context.Context) error {
		var err error
		list, err = c.svc.CalendarList.List().Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	calendars := make([]CalendarInfo, 0, len(list.Items))
	for _, entry := range list.Items {
		calendars = append(calendars, toCalendarInfo(entry))
	}
	return calendars, nil
}

// observe wraps an API call in a span and records its outcome.
func (c *Client) observe(ctx context.Context, operation string, fn func(context.Context) error) error {
	ctx, span := instrumentation.StartCalendarSpan(ctx, operation, c.calendarID)
	defer span.End()

	start := time.Now()
	err := fn(ctx)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
		c.logger.Warn("calendar API call failed", logging.Operation(operation), logging.Err(err))
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	c.metrics.RecordCalendarOperation(ctx, operation, status, time.Since(start))
	return err
}
