package log

import (
	"log/slog"
	"strings"
)

// sensitiveKeys never reach the output in clear text.
var sensitiveKeys = map[string]struct{}{
	"password":      {},
	"new_password":  {},
	"newpassword":   {},
	"token":         {},
	"cookie":        {},
	"set-cookie":    {},
	"authorization": {},
}

// Mask hides all but the last four characters of s.
func Mask(s string) string {
	const keep = 4
	if len(s) <= keep {
		return strings.Repeat("#", 8)
	}
	return strings.Repeat("#", 8) + s[len(s)-keep:]
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if _, ok := sensitiveKeys[strings.ToLower(a.Key)]; ok && a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, Mask(a.Value.String()))
	}
	return a
}
