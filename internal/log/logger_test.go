package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	nberrors "github.com/felixgeelhaar/notebookctl/internal/errors"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON output: %v\nOutput: %s", err, buf.String())
	}
	return entry
}

func TestDefaultConstructors(t *testing.T) {
	if c := Default().Config(); c.Level != LevelWarn || c.Format != FormatText {
		t.Errorf("unexpected default config: %+v", c)
	}
	if c := ServerConfig(); c.Level != LevelInfo || c.Format != FormatJSON {
		t.Errorf("unexpected server config: %+v", c)
	}
}

func TestLogLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelWarn, Format: FormatJSON, Output: &buf})

	logger.Debug("debug message")
	logger.Info("info message")

	if buf.Len() > 0 {
		t.Errorf("expected no output for debug/info at warn level, got: %s", buf.String())
	}

	logger.Warn("warn message")
	if buf.Len() == 0 {
		t.Error("expected output for warn message")
	}
}

func TestJSONFormatOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:          LevelInfo,
		Format:         FormatJSON,
		Output:         &buf,
		ServiceName:    "notebookctl",
		ServiceVersion: "1.2.3",
	})

	logger.Info("test message", "key1", "value1", "key2", 42)

	entry := decodeLine(t, &buf)
	if entry["msg"] != "test message" {
		t.Errorf("expected msg 'test message', got %v", entry["msg"])
	}
	if entry["level"] != "INFO" {
		t.Errorf("expected level 'INFO', got %v", entry["level"])
	}
	if entry["key2"] != float64(42) {
		t.Errorf("expected key2 42, got %v", entry["key2"])
	}
	if entry["service"] != "notebookctl" || entry["version"] != "1.2.3" {
		t.Errorf("expected service attributes, got %v", entry)
	}
}

func TestTextFormatOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Format: FormatText, Output: &buf})

	logger.Info("test message", "key1", "value1")

	output := buf.String()
	if !strings.Contains(output, "test message") || !strings.Contains(output, "key1=value1") {
		t.Errorf("unexpected text output: %s", output)
	}
}

func TestSensitiveValuesAreMasked(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf})

	logger.Info("login", "email", "ada@example.com", "password", "password123")

	entry := decodeLine(t, &buf)
	if entry["password"] == "password123" {
		t.Fatal("password logged in clear text")
	}
	if entry["password"] != "########d123" {
		t.Errorf("unexpected mask %v", entry["password"])
	}
	if entry["email"] != "ada@example.com" {
		t.Errorf("non-sensitive value altered: %v", entry["email"])
	}
}

func TestMask(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "########"},
		{"abcd", "########"},
		{"abcdef", "########cdef"},
	}
	for _, tt := range tests {
		if got := Mask(tt.in); got != tt.want {
			t.Errorf("Mask(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWithError(t *testing.T) {
	t.Run("coded error", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf})

		err := nberrors.NewAuthUnreachableError("http://auth:4000", errors.New("connection refused"))
		logger.WithError(err).Error("probe failed")

		entry := decodeLine(t, &buf)
		if entry["error_code"] != "AUTH-001" {
			t.Errorf("expected error_code AUTH-001, got %v", entry["error_code"])
		}
		if entry["cause"] != "connection refused" {
			t.Errorf("expected cause, got %v", entry["cause"])
		}
		if _, ok := entry["suggestions"]; !ok {
			t.Error("expected suggestions")
		}
	})

	t.Run("plain error", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf})

		logger.WithError(errors.New("boom")).Error("failed")

		entry := decodeLine(t, &buf)
		if entry["error"] != "boom" {
			t.Errorf("expected error 'boom', got %v", entry["error"])
		}
	})

	t.Run("nil error", func(t *testing.T) {
		logger := Discard()
		if logger.WithError(nil) != logger {
			t.Error("WithError(nil) should return the same logger")
		}
	})
}

func TestWithGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf})

	logger.WithGroup("gateway").Info("request", "status", 200)

	entry := decodeLine(t, &buf)
	group, ok := entry["gateway"].(map[string]interface{})
	if !ok || group["status"] != float64(200) {
		t.Errorf("expected grouped attribute, got %v", entry)
	}
}

func TestEnabled(t *testing.T) {
	logger := New(Config{Level: LevelWarn, Output: &bytes.Buffer{}})
	ctx := context.Background()

	if logger.Enabled(ctx, LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	if !logger.Enabled(ctx, LevelError) {
		t.Error("error should be enabled at warn level")
	}
}

func TestParseLevelAndFormat(t *testing.T) {
	levels := map[string]Level{
		"debug": LevelDebug, "DEBUG": LevelDebug, "warning": LevelWarn,
		"error": LevelError, "info": LevelInfo, "bogus": LevelInfo,
	}
	for in, want := range levels {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}

	if ParseFormat("JSON") != FormatJSON || ParseFormat("text") != FormatText || ParseFormat("x") != FormatText {
		t.Error("ParseFormat mismatch")
	}
	if FormatJSON.String() != "json" || LevelDebug.String() != "debug" {
		t.Error("String() mismatch")
	}
}
