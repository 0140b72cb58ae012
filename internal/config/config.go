package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Session store backends.
const (
	SessionStoreMemory = "memory"
	SessionStoreValkey = "valkey"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// ErrMissingAPIKey is returned when no model API key is configured.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY is not set; pass --openai-api-key, set the env var, or set OPENAI_API_KEY_PARAM")

// Config holds the settings shared by all commands.
type Config struct {
	// Model
	OpenAIAPIKey      string
	OpenAIAPIKeyParam string
	OpenAIBaseURL     string
	Model             string
	MaxTurns          int

	// Google
	CredentialsFile    string
	TokenFile          string
	GoogleClientID     string
	GoogleClientSecret string
	CalendarID         string

	// Sessions
	SessionStore    string
	SessionTTL      time.Duration
	ValkeyURL       string
	ValkeyPassword  string
	ValkeyTLS       bool
	ValkeyKeyPrefix string
	ValkeyDB        int

	LogLevel  string
	LogFormat string
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Model:           "gpt-4o-mini",
		MaxTurns:        10,
		CredentialsFile: "credentials.json",
		TokenFile:       "token.json",
		CalendarID:      "primary",
		SessionStore:    SessionStoreMemory,
		SessionTTL:      24 * time.Hour,
		ValkeyKeyPrefix: "calchat:session:",
		LogLevel:        "info",
		LogFormat:       LogFormatText,
	}
}

// EnvBindings maps each flag registered by RegisterFlags to its environment
// variable.
var EnvBindings = map[string]string{
	"openai-api-key":       "OPENAI_API_KEY",
	"openai-api-key-param": "OPENAI_API_KEY_PARAM",
	"openai-base-url":      "OPENAI_BASE_URL",
	"model":                "OPENAI_MODEL",
	"max-turns":            "CALCHAT_MAX_TURNS",
	"credentials-file":     "GOOGLE_CREDENTIALS_FILE",
	"token-file":           "CALCHAT_TOKEN_FILE",
	"google-client-id":     "GOOGLE_CLIENT_ID",
	"google-client-secret": "GOOGLE_CLIENT_SECRET",
	"calendar-id":          "CALENDAR_ID",
	"session-store":        "SESSION_STORE",
	"session-ttl":          "SESSION_TTL",
	"valkey-url":           "VALKEY_URL",
	"valkey-password":      "VALKEY_PASSWORD",
	"valkey-tls":           "VALKEY_TLS_ENABLED",
	"valkey-key-prefix":    "VALKEY_KEY_PREFIX",
	"valkey-db":            "VALKEY_DB",
	"log-level":            "LOG_LEVEL",
	"log-format":           "LOG_FORMAT",
}

// RegisterFlags binds c's fields to flags on fs, using c's current values as
// defaults.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.OpenAIAPIKey, "openai-api-key", c.OpenAIAPIKey, "API key for the chat model. Can also use OPENAI_API_KEY env var.")
	fs.StringVar(&c.OpenAIAPIKeyParam, "openai-api-key-param", c.OpenAIAPIKeyParam, "SSM parameter holding the API key, used when no key is given. Can also use OPENAI_API_KEY_PARAM env var.")
	fs.StringVar(&c.OpenAIBaseURL, "openai-base-url", c.OpenAIBaseURL, "Base URL of an OpenAI-compatible API. Can also use OPENAI_BASE_URL env var.")
	fs.StringVar(&c.Model, "model", c.Model, "Chat model. Can also use OPENAI_MODEL env var.")
	fs.IntVar(&c.MaxTurns, "max-turns", c.MaxTurns, "Maximum model round trips per message. Can also use CALCHAT_MAX_TURNS env var.")

	fs.StringVar(&c.CredentialsFile, "credentials-file", c.CredentialsFile, "Google OAuth client secret file. Can also use GOOGLE_CREDENTIALS_FILE env var.")
	fs.StringVar(&c.TokenFile, "token-file", c.TokenFile, "File the Google token is persisted to. Can also use CALCHAT_TOKEN_FILE env var.")
	fs.StringVar(&c.GoogleClientID, "google-client-id", c.GoogleClientID, "Google OAuth client ID, overrides the credentials file. Can also use GOOGLE_CLIENT_ID env var.")
	fs.StringVar(&c.GoogleClientSecret, "google-client-secret", c.GoogleClientSecret, "Google OAuth client secret, overrides the credentials file. Can also use GOOGLE_CLIENT_SECRET env var.")
	fs.StringVar(&c.CalendarID, "calendar-id", c.CalendarID, "Calendar to read and write. Can also use CALENDAR_ID env var.")

	fs.StringVar(&c.SessionStore, "session-store", c.SessionStore, "Web session storage: memory or valkey. Can also use SESSION_STORE env var.")
	fs.DurationVar(&c.SessionTTL, "session-ttl", c.SessionTTL, "Idle timeout of web sessions. Can also use SESSION_TTL env var.")
	fs.StringVar(&c.ValkeyURL, "valkey-url", c.ValkeyURL, "Valkey server address (e.g., valkey.namespace.svc:6379). Can also use VALKEY_URL env var.")
	fs.StringVar(&c.ValkeyPassword, "valkey-password", c.ValkeyPassword, "Valkey authentication password. Can also use VALKEY_PASSWORD env var.")
	fs.BoolVar(&c.ValkeyTLS, "valkey-tls", c.ValkeyTLS, "Enable TLS for Valkey connections. Can also use VALKEY_TLS_ENABLED env var.")
	fs.StringVar(&c.ValkeyKeyPrefix, "valkey-key-prefix", c.ValkeyKeyPrefix, "Prefix for all Valkey keys. Can also use VALKEY_KEY_PREFIX env var.")
	fs.IntVar(&c.ValkeyDB, "valkey-db", c.ValkeyDB, "Valkey database number. Can also use VALKEY_DB env var.")

	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: debug, info, warn, error. Can also use LOG_LEVEL env var.")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "Log format: text or json. Can also use LOG_FORMAT env var.")
}

// LoadDotEnv loads .env files into the process environment. Variables that
// are already set win, and missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("failed to load %s: %w", strings.Join(present, ", "), err)
	}
	return nil
}

// ApplyEnv sets every flag in bindings that was not given on the command
// line from its environment variable, when that variable is non-empty.
func ApplyEnv(fs *pflag.FlagSet, bindings map[string]string) error {
	for flag, env := range bindings {
		if fs.Lookup(flag) == nil || fs.Changed(flag) {
			continue
		}
		value := strings.TrimSpace(os.Getenv(env))
		if value == "" {
			continue
		}
		if err := fs.Set(flag, value); err != nil {
			return fmt.Errorf("invalid %s: %w", env, err)
		}
	}
	return nil
}

// Validate checks settings that do not depend on the command.
func (c *Config) Validate() error {
	switch c.SessionStore {
	case SessionStoreMemory:
	case SessionStoreValkey:
		if c.ValkeyURL == "" {
			return errors.New("--valkey-url or VALKEY_URL is required when session store is valkey")
		}
	default:
		return fmt.Errorf("invalid session store %q, must be one of: memory, valkey", c.SessionStore)
	}
	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("invalid log format %q, must be one of: text, json", c.LogFormat)
	}
	if c.MaxTurns < 1 {
		return fmt.Errorf("max turns must be at least 1, got %d", c.MaxTurns)
	}
	return nil
}

// ResolveAPIKey fills OpenAIAPIKey from Parameter Store when it is empty and
// OpenAIAPIKeyParam is set. newClient is only called in that case.
func (c *Config) ResolveAPIKey(ctx context.Context, newClient func(ctx context.Context) (ParameterGetter, error)) error {
	if c.OpenAIAPIKey != "" {
		return nil
	}
	if c.OpenAIAPIKeyParam == "" {
		return ErrMissingAPIKey
	}

	client, err := newClient(ctx)
	if err != nil {
		return err
	}
	key, err := GetParameter(ctx, client, c.OpenAIAPIKeyParam)
	if err != nil {
		return err
	}
	c.OpenAIAPIKey = key
	return nil
}
