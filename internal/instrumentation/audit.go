package instrumentation

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/calchat/internal/logging"
)

// ToolInvocation is the audit record of one tool call.
//
// Attendee addresses are reduced to their domains; the record never carries
// a full email address or the event title.
type ToolInvocation struct {
	Tool      string
	Operation string // calendar operation the tool maps to

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	AttendeeDomains []string

	TraceID string
	SpanID  string
}

// NewToolInvocation starts timing a call to tool.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{Tool: tool, StartTime: time.Now()}
}

// WithOperation sets the calendar operation.
func (ti *ToolInvocation) WithOperation(operation string) *ToolInvocation {
	ti.Operation = operation
	return ti
}

// WithAttendees records the distinct, sorted domains of emails.
func (ti *ToolInvocation) WithAttendees(emails []string) *ToolInvocation {
	domains := make([]string, 0, len(emails))
	for _, email := range emails {
		d := logging.ExtractDomain(strings.TrimSpace(email))
		if d != "" && !slices.Contains(domains, d) {
			domains = append(domains, d)
		}
	}
	slices.Sort(domains)
	ti.AttendeeDomains = domains
	return ti
}

// WithSpanContext copies the trace and span IDs of the span in ctx.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	ti.TraceID = GetTraceID(ctx)
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		ti.SpanID = sc.SpanID().String()
	}
	return ti
}

// Complete stops the timer. A non-empty errMsg marks the call failed.
func (ti *ToolInvocation) Complete(errMsg string) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = errMsg == ""
	ti.Error = errMsg
	return ti
}

// Status returns StatusSuccess or StatusError.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns the structured fields of the record.
func (ti *ToolInvocation) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		logging.Tool(ti.Tool),
		logging.Status(ti.Status()),
		logging.Duration(ti.Duration),
	}
	if ti.Operation != "" {
		attrs = append(attrs, logging.Operation(ti.Operation))
	}
	if len(ti.AttendeeDomains) > 0 {
		attrs = append(attrs, slog.Any("attendee_domains", ti.AttendeeDomains))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String(logging.KeyError, ti.Error))
	}
	return attrs
}

// AuditLogger writes one line per tool invocation.
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger returns an AuditLogger writing to logger, or to the default
// logger when nil.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{logger: logger}
}

// LogToolInvocation logs ti at info level, or warn when it failed.
func (al *AuditLogger) LogToolInvocation(ctx context.Context, ti *ToolInvocation) {
	level := slog.LevelInfo
	msg := "tool_executed"
	if !ti.Success {
		level = slog.LevelWarn
		msg = "tool_failed"
	}
	al.logger.LogAttrs(ctx, level, msg, ti.LogAttrs()...)
}
