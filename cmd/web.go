package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/calchat/internal/config"
	"github.com/teemow/calchat/internal/server"
)

// webEnvBindings maps web flags to their environment variables.
var webEnvBindings = map[string]string{
	"addr":          "CALCHAT_ADDR",
	"secure-cookie": "CALCHAT_SECURE_COOKIE",
	"metrics":       "METRICS_ENABLED",
	"metrics-addr":  "METRICS_ADDR",
}

// MetricsConfig holds configuration for the Prometheus metrics server
type MetricsConfig struct {
	// Enabled determines whether the metrics server should be started
	Enabled bool
	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

func newWebCmd() *cobra.Command {
	var (
		addr          string
		secureCookie  bool
		metricsConfig MetricsConfig
	)

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the browser chat interface",
		Long: `Serve a web page to chat with the scheduling agent.

Each browser gets its own conversation, identified by a session cookie.
Conversations are kept in memory, or in Valkey with --session-store=valkey
so that several replicas can share them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ApplyEnv(cmd.Flags(), webEnvBindings); err != nil {
				return err
			}
			return runWeb(cmd.Context(), addr, secureCookie, metricsConfig)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "Listen address of the chat server. Can also use CALCHAT_ADDR env var.")
	cmd.Flags().BoolVar(&secureCookie, "secure-cookie", false, "Mark the session cookie Secure (serve behind TLS). Can also use CALCHAT_SECURE_COOKIE env var.")
	cmd.Flags().BoolVar(&metricsConfig.Enabled, "metrics", false, "Serve Prometheus metrics on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsConfig.Addr, "metrics-addr", server.DefaultMetricsAddr, "Listen address of the metrics server. Can also use METRICS_ADDR env var.")

	return cmd
}

func runWeb(parent context.Context, addr string, secureCookie bool, metricsConfig MetricsConfig) error {
	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	store, closeStore, err := a.newStore()
	if err != nil {
		return err
	}
	defer closeStore()

	driver, runner, err := a.newDriver(ctx, store)
	if err != nil {
		return err
	}

	var metricsServer *server.MetricsServer
	if metricsConfig.Enabled {
		if !a.provider.Enabled() {
			a.logger.Warn("metrics requested but instrumentation is disabled; set INSTRUMENTATION_ENABLED=true")
		} else {
			metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
				Addr:                    metricsConfig.Addr,
				InstrumentationProvider: a.provider,
			})
			if err != nil {
				return fmt.Errorf("failed to create metrics server: %w", err)
			}
			if err := metricsServer.Listen(); err != nil {
				return fmt.Errorf("metrics server failed to start: %w", err)
			}
		}
	}

	chat := server.NewChatServer(addr, driver,
		server.WithMetrics(a.provider.Metrics()),
		server.WithLogger(a.logger),
		server.WithModelName(runner.Model()),
		server.WithSecureCookie(secureCookie),
	)

	if pinger, ok := store.(interface{ Ping(context.Context) error }); ok {
		chat.Health().AddCheck("session_store", pinger.Ping)
	}

	fmt.Fprintf(os.Stderr, "Chat interface available at http://%s\n", displayAddr(addr))
	return server.ListenAndServe(ctx, chat, metricsServer)
}

// displayAddr turns a listen address into something a browser can open.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
