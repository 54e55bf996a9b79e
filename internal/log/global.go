package log

import (
	"os"
	"sync/atomic"
)

// Environment keys read by the fallback logger, shared with the config
// layer so components used before configuration is loaded log the same way.
const (
	EnvLevel  = "NOTEBOOKCTL_LOG_LEVEL"
	EnvFormat = "NOTEBOOKCTL_LOG_FORMAT"
)

var defaultLogger atomic.Pointer[Logger]

// SetDefaultLogger sets the process-wide default logger. A nil logger
// resets it to the environment fallback.
func SetDefaultLogger(logger *Logger) {
	defaultLogger.Store(logger)
}

// DefaultLogger returns the process-wide default logger, creating the
// environment fallback on first use.
func DefaultLogger() *Logger {
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	l := New(EnvConfig(os.Getenv))
	if defaultLogger.CompareAndSwap(nil, l) {
		return l
	}
	return defaultLogger.Load()
}

// EnvConfig is DefaultConfig with level and format taken from getenv
// when set.
func EnvConfig(getenv func(string) string) Config {
	cfg := DefaultConfig()
	if v := getenv(EnvLevel); v != "" {
		cfg.Level = ParseLevel(v)
	}
	if v := getenv(EnvFormat); v != "" {
		cfg.Format = ParseFormat(v)
	}
	return cfg
}
