package config

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/notebookctl/internal/errors"
)

type field struct {
	get func(*Config) string
	set func(*Config, string) error
}

func str(p func(*Config) *string) field {
	return field{
		get: func(c *Config) string { return *p(c) },
		set: func(c *Config, v string) error { *p(c) = v; return nil },
	}
}

func boolean(p func(*Config) *bool) field {
	return field{
		get: func(c *Config) string { return strconv.FormatBool(*p(c)) },
		set: func(c *Config, v string) error {
			switch strings.ToLower(v) {
			case "true", "yes", "1":
				*p(c) = true
			case "false", "no", "0":
				*p(c) = false
			default:
				return errors.NewConfigInvalidError("expected a boolean, got " + strconv.Quote(v))
			}
			return nil
		},
	}
}

func integer(p func(*Config) *int) field {
	return field{
		get: func(c *Config) string { return strconv.Itoa(*p(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return errors.NewConfigInvalidError("expected an integer, got " + strconv.Quote(v))
			}
			*p(c) = n
			return nil
		},
	}
}

func duration(p func(*Config) *time.Duration) field {
	return field{
		get: func(c *Config) string { return p(c).String() },
		set: func(c *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return errors.NewConfigInvalidError("expected a duration such as 30s, got " + strconv.Quote(v))
			}
			*p(c) = d
			return nil
		},
	}
}

func float(p func(*Config) *float64) field {
	return field{
		get: func(c *Config) string { return strconv.FormatFloat(*p(c), 'f', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return errors.NewConfigInvalidError("expected a number, got " + strconv.Quote(v))
			}
			*p(c) = f
			return nil
		},
	}
}

var fields = map[string]field{
	"auth_api_url":           str(func(c *Config) *string { return &c.AuthAPIURL }),
	"api_url":                str(func(c *Config) *string { return &c.APIURL }),
	"web_url":                str(func(c *Config) *string { return &c.WebURL }),
	"state_dir":              str(func(c *Config) *string { return &c.StateDir }),
	"storage.backend":        str(func(c *Config) *string { return &c.Storage.Backend }),
	"storage.redis.addr":     str(func(c *Config) *string { return &c.Storage.Redis.Addr }),
	"storage.redis.password": str(func(c *Config) *string { return &c.Storage.Redis.Password }),
	"storage.redis.db":       integer(func(c *Config) *int { return &c.Storage.Redis.DB }),
	"storage.redis.prefix":   str(func(c *Config) *string { return &c.Storage.Redis.Prefix }),
	"logging.level":          str(func(c *Config) *string { return &c.Logging.Level }),
	"logging.format":         str(func(c *Config) *string { return &c.Logging.Format }),
	"output.format":          str(func(c *Config) *string { return &c.Output.Format }),
	"output.no_color":        boolean(func(c *Config) *bool { return &c.Output.NoColor }),
	"serve.address":          str(func(c *Config) *string { return &c.Serve.Address }),
	"serve.shutdown_timeout": duration(func(c *Config) *time.Duration { return &c.Serve.ShutdownTimeout }),
	"telemetry.enabled":      boolean(func(c *Config) *bool { return &c.Telemetry.Enabled }),
	"telemetry.endpoint":     str(func(c *Config) *string { return &c.Telemetry.Endpoint }),
	"telemetry.environment":  str(func(c *Config) *string { return &c.Telemetry.Environment }),
	"telemetry.sample_rate":  float(func(c *Config) *float64 { return &c.Telemetry.SampleRate }),
}

// Keys lists every dot-notation key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value at a dot-notation key.
func (c *Config) Get(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", errors.NewConfigUnknownKeyError(key)
	}
	return f.get(c), nil
}

// Set parses value into the field at key.
func (c *Config) Set(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return errors.NewConfigUnknownKeyError(key)
	}
	return f.set(c, value)
}
