package cmd

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/calchat/internal/config"
	"github.com/teemow/calchat/internal/logging"
)

// cfg holds the settings shared by all commands, filled from flags and env.
var cfg = config.Default()

// rootCmd represents the base command for the calchat application
var rootCmd = &cobra.Command{
	Use:   "calchat",
	Short: "Schedule Google Calendar events by chatting with an AI agent",
	Long: `calchat is a conversational scheduling assistant. Describe the meeting
you want in plain language and the agent asks for anything missing, then
creates the event in your Google Calendar.

It can run as:
  - An interactive terminal chat (default)
  - A web chat interface
  - An MCP (Model Context Protocol) server exposing the calendar tools`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "calchat version %s\n" .Version}}`)

	// If no subcommand is provided, run the chat command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "chat")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads .env, applies environment fallbacks to unset flags and
// installs the default logger.
func setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	if err := config.ApplyEnv(cmd.Flags(), config.EnvBindings); err != nil {
		return err
	}

	level := cfg.LogLevel
	// Keep the terminal conversation readable unless asked otherwise.
	if cmd.Name() == "chat" && !cmd.Flags().Changed("log-level") {
		level = "warn"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	slog.SetDefault(newLogger(os.Stderr, cfg.LogFormat, level))
	return nil
}

func newLogger(w io.Writer, format, level string) *slog.Logger {
	if format == config.LogFormatJSON {
		return logging.NewJSON(w, level)
	}
	return logging.New(w, level)
}

func init() {
	cfg.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newWebCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newMCPCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
