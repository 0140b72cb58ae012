package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/teemow/calchat/internal/instrumentation"
	"github.com/teemow/calchat/internal/logging"
)

// ErrEmptyMessage is returned by Send for a blank message.
var ErrEmptyMessage = errors.New("no message provided")

// Agent answers a flattened transcript.
type Agent interface {
	Respond(ctx context.Context, prompt string) (string, error)
}

// Driver runs conversation turns against a Store and an Agent.
type Driver struct {
	store   Store
	agent   Agent
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithMetrics records chat turns on m.
func WithMetrics(m *instrumentation.Metrics) DriverOption {
	return func(d *Driver) { d.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) DriverOption {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDriver returns a driver persisting to store and answering with agent.
func NewDriver(store Store, agent Agent, opts ...DriverOption) *Driver {
	d := &Driver{
		store:  store,
		agent:  agent,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.WithComponent(d.logger, "conversation")
	return d
}

// Ensure creates an empty transcript for a session that has none.
func (d *Driver) Ensure(ctx context.Context, sessionID string) error {
	_, err := d.store.Load(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return d.store.Save(ctx, sessionID, Transcript{})
	}
	return err
}

// Transcript returns the session's turns. Unknown sessions have none.
func (d *Driver) Transcript(ctx context.Context, sessionID string) (Transcript, error) {
	t, err := d.store.Load(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return Transcript{}, nil
	}
	return t, err
}

// Send records message, runs the agent on the whole transcript and records
// the reply. If the agent fails the user turn stays recorded.
func (d *Driver) Send(ctx context.Context, sessionID, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}

	ctx, span := instrumentation.StartTurnSpan(ctx, sessionID)
	defer span.End()

	start := time.Now()
	logger := d.logger.With(logging.Session(sessionID))
	fail := func(err error) (string, error) {
		instrumentation.SetSpanError(span, err)
		d.metrics.RecordChatTurn(ctx, instrumentation.StatusError, time.Since(start))
		return "", err
	}

	t, err := d.Transcript(ctx, sessionID)
	if err != nil {
		return fail(err)
	}
	t = t.Append(RoleUser, message)
	if err := d.store.Save(ctx, sessionID, t); err != nil {
		return fail(err)
	}

	reply, err := d.agent.Respond(ctx, t.Flatten())
	if err != nil {
		logger.Error("chat turn failed", logging.Err(err), slog.Int("turns", len(t)))
		return fail(fmt.Errorf("agent failed: %w", err))
	}

	t = t.Append(RoleAssistant, reply)
	if err := d.store.Save(ctx, sessionID, t); err != nil {
		return fail(err)
	}

	instrumentation.SetSpanSuccess(span)
	d.metrics.RecordChatTurn(ctx, instrumentation.StatusSuccess, time.Since(start))
	logger.Info("chat turn completed", slog.Int("turns", len(t)), logging.Duration(time.Since(start)))
	return reply, nil
}

// Clear drops the session's transcript. The next turn starts from an empty
// one.
func (d *Driver) Clear(ctx context.Context, sessionID string) error {
	if err := d.store.Delete(ctx, sessionID); err != nil {
		return err
	}
	d.logger.Info("conversation cleared", logging.Session(sessionID))
	return nil
}
