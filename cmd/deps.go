package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/teemow/calchat/internal/agent"
	"github.com/teemow/calchat/internal/calendar"
	"github.com/teemow/calchat/internal/config"
	"github.com/teemow/calchat/internal/conversation"
	"github.com/teemow/calchat/internal/google"
	"github.com/teemow/calchat/internal/instrumentation"
	"github.com/teemow/calchat/internal/tools"
)

// app wires the components every command builds on.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	provider *instrumentation.Provider
	calendar *calendar.Client
	tools    *tools.Registry

	// now is the clock shared by the calendar client and the agent.
	now func() time.Time
}

// newInstrumentation creates the OpenTelemetry provider from its env config.
func newInstrumentation(ctx context.Context) (*instrumentation.Provider, error) {
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	return provider, nil
}

// newCredentialStore builds the Google credential store from cfg.
func newCredentialStore(c config.Config, metrics *instrumentation.Metrics, logger *slog.Logger) *google.CredentialStore {
	secret := google.ClientSecret{
		File:         c.CredentialsFile,
		ClientID:     c.GoogleClientID,
		ClientSecret: c.GoogleClientSecret,
	}
	return google.NewCredentialStore(secret, google.NewFileTokenStore(c.TokenFile),
		google.WithMetrics(metrics),
		google.WithLogger(logger),
	)
}

// newApp obtains Google credentials, running consent if needed, and builds
// the calendar client and tool registry.
func newApp(ctx context.Context, c config.Config) (*app, error) {
	logger := slog.Default()
	now := time.Now

	provider, err := newInstrumentation(ctx)
	if err != nil {
		return nil, err
	}
	metrics := provider.Metrics()

	ts, err := newCredentialStore(c, metrics, logger).TokenSource(ctx)
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, fmt.Errorf("failed to obtain Google credentials: %w", err)
	}

	cal, err := calendar.NewClient(ctx, ts,
		calendar.WithCalendarID(c.CalendarID),
		calendar.WithMetrics(metrics),
		calendar.WithLogger(logger),
		calendar.WithClock(now),
	)
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, err
	}

	return &app{
		cfg:      c,
		logger:   logger,
		provider: provider,
		calendar: cal,
		tools:    tools.NewRegistry(cal, tools.WithMetrics(metrics), tools.WithLogger(logger)),
		now:      now,
	}, nil
}

// newRunner resolves the model API key and builds the agent.
func (a *app) newRunner(ctx context.Context) (*agent.Runner, error) {
	if err := a.cfg.ResolveAPIKey(ctx, config.NewSSMClient); err != nil {
		return nil, err
	}

	client := agent.NewOpenAIClient(a.cfg.OpenAIAPIKey, a.cfg.OpenAIBaseURL)
	return agent.NewRunner(client, a.tools,
		agent.WithModel(a.cfg.Model),
		agent.WithMaxTurns(a.cfg.MaxTurns),
		agent.WithMetrics(a.provider.Metrics()),
		agent.WithLogger(a.logger),
		agent.WithClock(a.now),
	), nil
}

// newStore builds the configured conversation store and its cleanup.
func (a *app) newStore() (conversation.Store, func(), error) {
	switch a.cfg.SessionStore {
	case config.SessionStoreValkey:
		store, err := conversation.NewValkeyStore(conversation.ValkeyConfig{
			URL:        a.cfg.ValkeyURL,
			Password:   a.cfg.ValkeyPassword,
			TLSEnabled: a.cfg.ValkeyTLS,
			KeyPrefix:  a.cfg.ValkeyKeyPrefix,
			DB:         a.cfg.ValkeyDB,
			TTL:        a.cfg.SessionTTL,
		})
		if err != nil {
			return nil, nil, err
		}
		a.logger.Info("using valkey session store", "url", a.cfg.ValkeyURL)
		return store, store.Close, nil
	default:
		store := conversation.NewMemoryStore(
			conversation.WithTTL(a.cfg.SessionTTL),
			conversation.WithStoreMetrics(a.provider.Metrics()),
			conversation.WithStoreLogger(a.logger),
		)
		return store, store.Stop, nil
	}
}

// newChatStore builds the store of the terminal chat. Its single transcript
// lives as long as the process, so it never expires.
func (a *app) newChatStore() *conversation.MemoryStore {
	return conversation.NewMemoryStore(
		conversation.WithoutExpiry(),
		conversation.WithStoreMetrics(a.provider.Metrics()),
		conversation.WithStoreLogger(a.logger),
	)
}

// newDriver builds the agent and a conversation driver over store.
func (a *app) newDriver(ctx context.Context, store conversation.Store) (*conversation.Driver, *agent.Runner, error) {
	runner, err := a.newRunner(ctx)
	if err != nil {
		return nil, nil, err
	}
	driver := conversation.NewDriver(store, runner,
		conversation.WithMetrics(a.provider.Metrics()),
		conversation.WithLogger(a.logger),
	)
	return driver, runner, nil
}

// Close flushes telemetry.
func (a *app) Close(ctx context.Context) {
	if err := a.provider.Shutdown(ctx); err != nil {
		a.logger.Warn("instrumentation shutdown failed", "error", err)
	}
}
