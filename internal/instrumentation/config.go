package instrumentation

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
)

// Config selects what telemetry is produced and where it goes.
type Config struct {
	ServiceName       string
	ServiceVersion    string
	ServiceInstanceID string // hostname when empty

	// Enabled defaults to false: the interactive chat has nothing to scrape.
	Enabled bool

	MetricsExporter string // prometheus, otlp or stdout
	TracingExporter string // otlp, stdout or none

	// OTLPEndpoint is host:port without scheme, e.g. "localhost:4318".
	OTLPEndpoint string
	OTLPInsecure bool

	TraceSamplingRate float64 // 0.0 to 1.0

	// PrometheusEndpoint is the scrape path on the metrics server.
	PrometheusEndpoint string
}

// DefaultConfig reads the configuration from the process environment.
func DefaultConfig() Config {
	return ConfigFromEnv(os.Getenv)
}

// ConfigFromEnv reads the configuration through getenv. Unset or unparsable
// values fall back to their defaults.
func ConfigFromEnv(getenv func(string) string) Config {
	e := env(getenv)
	return Config{
		ServiceName:        e.str("OTEL_SERVICE_NAME", "calchat"),
		ServiceVersion:     "unknown",
		ServiceInstanceID:  e.str("OTEL_SERVICE_INSTANCE_ID", ""),
		Enabled:            e.boolean("INSTRUMENTATION_ENABLED", false),
		MetricsExporter:    e.str("METRICS_EXPORTER", ExporterPrometheus),
		TracingExporter:    e.str("TRACING_EXPORTER", ExporterNone),
		OTLPEndpoint:       e.str("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure:       e.boolean("OTEL_EXPORTER_OTLP_INSECURE", false),
		TraceSamplingRate:  e.float("OTEL_TRACES_SAMPLER_ARG", 0.1),
		PrometheusEndpoint: e.str("PROMETHEUS_ENDPOINT", defaultMetricsPath),
	}
}

var (
	metricsExporters = []string{ExporterPrometheus, ExporterOTLP, ExporterStdout}
	tracingExporters = []string{ExporterOTLP, ExporterStdout, ExporterNone}
)

// Validate reports the first inconsistency in c. Empty exporters mean the
// defaults.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate)
	}
	if c.MetricsExporter != "" && !slices.Contains(metricsExporters, c.MetricsExporter) {
		return fmt.Errorf("invalid metrics exporter %q, must be one of: %s", c.MetricsExporter, strings.Join(metricsExporters, ", "))
	}
	if c.TracingExporter != "" && !slices.Contains(tracingExporters, c.TracingExporter) {
		return fmt.Errorf("invalid tracing exporter %q, must be one of: %s", c.TracingExporter, strings.Join(tracingExporters, ", "))
	}
	if c.OTLPEndpoint == "" && (c.MetricsExporter == ExporterOTLP || c.TracingExporter == ExporterOTLP) {
		return fmt.Errorf("OTLP endpoint is required when exporting with OTLP; set OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	return nil
}

type env func(string) string

func (e env) str(key, def string) string {
	if v := e(key); v != "" {
		return v
	}
	return def
}

func (e env) boolean(key string, def bool) bool {
	v, err := strconv.ParseBool(e(key))
	if err != nil {
		return def
	}
	return v
}

func (e env) float(key string, def float64) float64 {
	v, err := strconv.ParseFloat(e(key), 64)
	if err != nil {
		return def
	}
	return v
}

// Label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	// Credential acquisition outcomes
	CredentialValid     = "valid"
	CredentialRefreshed = "refreshed"
	CredentialConsent   = "consent"
	CredentialFailure   = "failure"

	// Calendar operations
	OperationList      = "list"
	OperationCreate    = "create"
	OperationCalendars = "calendars"

	// Exporter types
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)
