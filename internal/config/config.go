// Package config loads notebookctl settings from ~/.notebookctl/config.yaml
// with NOTEBOOKCTL_* environment overrides.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/notebookctl/internal/errors"
)

// Storage backends for the persisted session.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config is the full configuration file.
type Config struct {
	AuthAPIURL string          `yaml:"auth_api_url"`
	APIURL     string          `yaml:"api_url"`
	WebURL     string          `yaml:"web_url"`
	StateDir   string          `yaml:"state_dir,omitempty"`
	Storage    StorageConfig   `yaml:"storage"`
	Logging    LoggingConfig   `yaml:"logging"`
	Output     OutputConfig    `yaml:"output"`
	Serve      ServeConfig     `yaml:"serve"`
	Telemetry  TelemetryConfig `yaml:"telemetry"`
}

// StorageConfig selects where the session record lives.
type StorageConfig struct {
	Backend string      `yaml:"backend"`
	Redis   RedisConfig `yaml:"redis,omitempty"`
}

// RedisConfig is used when Backend is "redis".
type RedisConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type OutputConfig struct {
	Format  string `yaml:"format"`
	NoColor bool   `yaml:"no_color,omitempty"`
}

type ServeConfig struct {
	Address         string        `yaml:"address"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// TelemetryConfig controls OpenTelemetry tracing. Spans are exported only
// when Enabled and Endpoint is set.
type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint,omitempty"`
	Environment string  `yaml:"environment,omitempty"`
	SampleRate  float64 `yaml:"sample_rate"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		AuthAPIURL: "http://localhost:4000",
		APIURL:     "http://localhost:15055",
		WebURL:     "http://localhost:3000",
		Storage: StorageConfig{
			Backend: BackendFile,
			Redis:   RedisConfig{Addr: "localhost:6379", Prefix: "notebookctl:"},
		},
		Logging:   LoggingConfig{Level: "warn", Format: "text"},
		Output:    OutputConfig{Format: "text"},
		Serve:     ServeConfig{Address: ":3000", ShutdownTimeout: 30 * time.Second},
		Telemetry: TelemetryConfig{Environment: "development", SampleRate: 1.0},
	}
}

// Home is the notebookctl directory, ~/.notebookctl unless
// NOTEBOOKCTL_HOME is set.
func Home() (string, error) {
	if h := os.Getenv("NOTEBOOKCTL_HOME"); h != "" {
		return h, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".notebookctl"), nil
}

// DefaultPath is Home()/config.yaml.
func DefaultPath() (string, error) {
	home, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "config.yaml"), nil
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigReadFailed, "failed to read config", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.NewFileUnmarshalError(path, "YAML", err)
	}
	return cfg, nil
}

// Save writes cfg to path (0600), creating the directory.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(errors.ErrCodeConfigWriteFailed, "failed to marshal config", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.Wrap(errors.ErrCodeConfigWriteFailed, "failed to create config directory", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrap(errors.ErrCodeConfigWriteFailed, "failed to write config", err)
	}
	return nil
}

// Environment overrides, applied by ApplyEnv.
var envOverrides = map[string]string{
	"NOTEBOOKCTL_AUTH_API_URL":  "auth_api_url",
	"NOTEBOOKCTL_API_URL":       "api_url",
	"NOTEBOOKCTL_WEB_URL":       "web_url",
	"NOTEBOOKCTL_STATE_DIR":     "state_dir",
	"NOTEBOOKCTL_STORAGE":       "storage.backend",
	"NOTEBOOKCTL_REDIS_ADDR":    "storage.redis.addr",
	"NOTEBOOKCTL_LOG_LEVEL":     "logging.level",
	"NOTEBOOKCTL_LOG_FORMAT":    "logging.format",
	"NOTEBOOKCTL_OTLP_ENDPOINT": "telemetry.endpoint",
}

// ApplyEnv overlays non-empty environment overrides.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	for env, key := range envOverrides {
		if v := getenv(env); v != "" {
			if err := c.Set(key, v); err != nil {
				return fmt.Errorf("%s: %w", env, err)
			}
		}
	}
	return nil
}

// ResolveStateDir returns StateDir, defaulting to Home()/state.
func (c *Config) ResolveStateDir() (string, error) {
	if c.StateDir != "" {
		return expandHome(c.StateDir)
	}
	home, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "state"), nil
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

// Validate checks values a command would otherwise fail on later.
func (c *Config) Validate() error {
	for key, raw := range map[string]string{"auth_api_url": c.AuthAPIURL, "api_url": c.APIURL, "web_url": c.WebURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.NewConfigInvalidError(fmt.Sprintf("%s must be an absolute URL, got %q", key, raw))
		}
	}
	switch c.Storage.Backend {
	case BackendFile, BackendRedis, BackendMemory:
	default:
		return errors.New(errors.ErrCodeStoreBackendUnknown,
			fmt.Sprintf("unknown storage backend %q (file, redis, memory)", c.Storage.Backend))
	}
	if c.Storage.Backend == BackendRedis && c.Storage.Redis.Addr == "" {
		return errors.NewConfigInvalidError("storage.redis.addr is required for the redis backend")
	}
	switch c.Output.Format {
	case "text", "json", "yaml":
	default:
		return errors.NewConfigInvalidError(fmt.Sprintf("output.format must be text, json or yaml, got %q", c.Output.Format))
	}
	if r := c.Telemetry.SampleRate; r < 0 || r > 1 {
		return errors.NewConfigInvalidError(fmt.Sprintf("telemetry.sample_rate must be between 0 and 1, got %v", r))
	}
	return nil
}

// WebPath joins the dashboard URL and path.
func (c *Config) WebPath(path string) string {
	return strings.TrimRight(c.WebURL, "/") + path
}
