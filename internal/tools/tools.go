package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/calchat/internal/calendar"
	"github.com/teemow/calchat/internal/instrumentation"
	"github.com/teemow/calchat/internal/logging"
)

// Name identifies a tool.
type Name string

const (
	ScheduleEvent Name = "schedule_calendar_event"
	ListEvents    Name = "list_calendar_events"
)

// Calendar is the part of the calendar client the tools drive.
type Calendar interface {
	CreateEvent(ctx context.Context, input calendar.EventInput) (string, error)
	ListEvents(ctx context.Context, q calendar.ListQuery) ([]calendar.EventSummary, error)
}

// Result is a tool result payload.
type Result interface {
	// ErrorMessage returns the payload's error, or "" on success.
	ErrorMessage() string
}

type handler func(ctx context.Context, arguments json.RawMessage, audit *instrumentation.ToolInvocation) Result

type binding struct {
	tool   mcp.Tool
	invoke handler
}

// Registry maps tool names to their declarations and handlers.
type Registry struct {
	cal      Calendar
	bindings map[Name]binding
	order    []Name
	metrics  *instrumentation.Metrics
	logger   *slog.Logger
	audit    *instrumentation.AuditLogger
}

// Option configures a Registry.
type Option func(*Registry)

// WithMetrics records tool invocations on m.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// NewRegistry returns a registry with the calendar tools bound to cal.
func NewRegistry(cal Calendar, opts ...Option) *Registry {
	r := &Registry{
		cal:      cal,
		bindings: make(map[Name]binding),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.WithComponent(r.logger, "tools")
	r.audit = instrumentation.NewAuditLogger(r.logger)

	r.register(scheduleEventTool(), r.scheduleEvent)
	r.register(listEventsTool(), r.listEvents)
	return r
}

func (r *Registry) register(tool mcp.Tool, h handler) {
	name := Name(tool.Name)
	r.bindings[name] = binding{tool: tool, invoke: h}
	r.order = append(r.order, name)
}

// Tools returns the tool declarations in registration order.
func (r *Registry) Tools() []mcp.Tool {
	tools := make([]mcp.Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.bindings[name].tool)
	}
	return tools
}

// Invoke runs the named tool with JSON-encoded arguments. Unknown names
// yield an error payload.
func (r *Registry) Invoke(ctx context.Context, name string, arguments string) Result {
	b, ok := r.bindings[Name(name)]
	if !ok {
		r.logger.Warn("model requested unknown tool", logging.Tool(name))
		return ErrorResult{Error: fmt.Sprintf("unknown tool: %s", name)}
	}

	ctx, span := instrumentation.StartToolSpan(ctx, name)
	defer span.End()

	if arguments == "" {
		arguments = "{}"
	}

	audit := instrumentation.NewToolInvocation(name).WithSpanContext(ctx)
	result := b.invoke(ctx, json.RawMessage(arguments), audit)
	audit.Complete(result.ErrorMessage())

	if audit.Success {
		instrumentation.SetSpanSuccess(span)
	} else {
		instrumentation.SetSpanError(span, errors.New(audit.Error))
	}
	r.metrics.RecordToolInvocation(ctx, name, audit.Status(), audit.Duration)
	r.audit.LogToolInvocation(ctx, audit)
	return result
}

// Dispatch runs the named tool and returns its JSON payload.
func (r *Registry) Dispatch(ctx context.Context, name string, arguments string) (string, error) {
	result := r.Invoke(ctx, name, arguments)
	b, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s result: %w", name, err)
	}
	return string(b), nil
}

// ErrorResult is the payload for a call that never reached a tool.
type ErrorResult struct {
	Error string `json:"error"`
}

// ErrorMessage implements Result.
func (e ErrorResult) ErrorMessage() string { return e.Error }
