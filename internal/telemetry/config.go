package telemetry

// Config holds tracer settings.
type Config struct {
	ServiceName    string
	ServiceVersion string
	// Environment is reported as deployment.environment.
	Environment string
	// Enabled false installs a noop tracer.
	Enabled bool
	// Endpoint is the OTLP/HTTP collector URL. Empty means spans are
	// recorded but not exported.
	Endpoint string
	// SampleRate is the fraction of traces kept, 0.0 to 1.0.
	SampleRate float64
}

// DefaultConfig has tracing disabled.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "notebookctl",
		ServiceVersion: "dev",
		Environment:    "development",
		SampleRate:     1.0,
	}
}
