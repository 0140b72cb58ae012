package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/calchat/internal/instrumentation"
	"github.com/teemow/calchat/internal/logging"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini"
	// DefaultMaxTurns bounds the model round trips of a single run.
	DefaultMaxTurns = 10
)

var (
	// ErrMaxTurnsExceeded is returned when the model keeps calling tools
	// past the turn limit.
	ErrMaxTurnsExceeded = errors.New("agent exceeded maximum turns")
	// ErrEmptyResponse is returned when the model answers with no choices.
	ErrEmptyResponse = errors.New("model returned no choices")
)

// Dispatcher offers tools to the model and runs the calls it makes.
type Dispatcher interface {
	Tools() []mcp.Tool
	Dispatch(ctx context.Context, name string, arguments string) (string, error)
}

// ToolCall records one tool invocation made during a run.
type ToolCall struct {
	Name      string
	Arguments string
	Output    string
}

// Result is the outcome of a run.
type Result struct {
	Output    string
	ToolCalls []ToolCall
	Turns     int
}

// Runner drives the model and its tools.
type Runner struct {
	client   ChatCompleter
	tools    Dispatcher
	model    string
	maxTurns int
	now      func() time.Time
	metrics  *instrumentation.Metrics
	logger   *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithModel sets the chat model. Empty keeps DefaultModel.
func WithModel(model string) Option {
	return func(r *Runner) {
		if model != "" {
			r.model = model
		}
	}
}

// WithMaxTurns sets the turn limit. Values below one keep DefaultMaxTurns.
func WithMaxTurns(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxTurns = n
		}
	}
}

// WithClock sets the time source the instructions are rendered from.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithMetrics records model requests on m.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// NewRunner returns a runner using client for completions and tools for
// function calls.
func NewRunner(client ChatCompleter, tools Dispatcher, opts ...Option) *Runner {
	r := &Runner{
		client:   client,
		tools:    tools,
		model:    DefaultModel,
		maxTurns: DefaultMaxTurns,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.WithComponent(r.logger, "agent")
	return r
}

// Model returns the configured chat model.
func (r *Runner) Model() string {
	return r.model
}

// Run sends input to the model with freshly rendered instructions and
// resolves tool calls until the model replies with text.
func (r *Runner) Run(ctx context.Context, input string) (Result, error) {
	ctx, span := instrumentation.StartAgentSpan(ctx, r.model)
	defer span.End()

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: Instructions(r.now())},
		{Role: openai.ChatMessageRoleUser, Content: input},
	}
	tools := functionTools(r.tools.Tools())

	var result Result
	for turn := 1; turn <= r.maxTurns; turn++ {
		result.Turns = turn
		span.SetAttributes(attribute.Int(instrumentation.SpanAttrTurn, turn))

		resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    r.model,
			Messages: messages,
			Tools:    tools,
		})
		if err != nil {
			r.metrics.RecordLLMRequest(ctx, r.model, instrumentation.StatusError)
			instrumentation.SetSpanError(span, err)
			return result, fmt.Errorf("chat completion failed: %w", err)
		}
		r.metrics.RecordLLMRequest(ctx, r.model, instrumentation.StatusSuccess)

		if len(resp.Choices) == 0 {
			instrumentation.SetSpanError(span, ErrEmptyResponse)
			return result, ErrEmptyResponse
		}
		msg := resp.Choices[0].Message

		if len(msg.ToolCalls) == 0 {
			result.Output = msg.Content
			instrumentation.SetSpanSuccess(span)
			r.logger.Debug("agent run finished",
				logging.Model(r.model),
				slog.Int("turns", turn),
				slog.Int("tool_calls", len(result.ToolCalls)),
			)
			return result, nil
		}

		messages = append(messages, msg)
		for _, call := range msg.ToolCalls {
			output, err := r.tools.Dispatch(ctx, call.Function.Name, call.Function.Arguments)
			if err != nil {
				instrumentation.SetSpanError(span, err)
				return result, fmt.Errorf("tool %s failed: %w", call.Function.Name, err)
			}
			result.ToolCalls = append(result.ToolCalls, ToolCall{
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
				Output:    output,
			})
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    output,
				ToolCallID: call.ID,
			})
		}
	}

	instrumentation.SetSpanError(span, ErrMaxTurnsExceeded)
	r.logger.Warn("agent run hit turn limit", logging.Model(r.model), slog.Int("max_turns", r.maxTurns))
	return result, ErrMaxTurnsExceeded
}

// Respond runs prompt and returns only the final reply.
func (r *Runner) Respond(ctx context.Context, prompt string) (string, error) {
	result, err := r.Run(ctx, prompt)
	if err != nil {
		return "", err
	}
	return result.Output, nil
}
