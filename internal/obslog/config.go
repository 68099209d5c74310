// Package obslog wires structured logging and OpenTelemetry tracing/metrics
// for the buildsched CLI: a TracingHandler injects trace context into every
// log line, an attribute filter keeps span attributes on an allow-list, and
// ProposalMetrics/TransitionMetrics expose the scheduler's and transition
// engine's activity as OTel instruments.
package obslog

import "log/slog"

// AppMode distinguishes interactive CLI invocations from long-running
// daemon-style invocations (e.g. a future watch-mode), for logging and
// resource attribution.
type AppMode string

const (
	ModeCLI    AppMode = "cli"
	ModeDaemon AppMode = "daemon"
)

const defaultShutdownTimeoutSec = 5

// Config configures Init. OTLPEndpoint empty disables OTLP export and falls
// back to no-op tracer/meter providers, unless PrometheusAddr is set, in
// which case metrics still go to the Prometheus endpoint. The stderr logger
// is built either way.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Mode           AppMode

	OTLPEndpoint string
	OTLPInsecure bool
	OTLPHeaders  map[string]string

	// PrometheusAddr, when non-empty, serves collected metrics at
	// http://<addr>/metrics via a dedicated OTel-to-Prometheus bridge. When
	// set, it replaces the OTLP meter provider; traces still use OTLP.
	PrometheusAddr string

	SampleRatio  float64
	TraceVerbose bool
	DebugTrace   bool

	LogLevel slog.Level
	LogJSON  bool

	ShutdownTimeoutSec int
}

const defaultServiceName = "buildsched"

// DefaultConfig returns the zero-config baseline: no OTLP/Prometheus export,
// info-level JSON logging to stderr.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		Mode:               ModeCLI,
		LogLevel:           slog.LevelInfo,
		LogJSON:            true,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}
