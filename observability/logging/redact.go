package logging

import (
	"log/slog"
	"strings"
)

// RedactedValue is the placeholder substituted for sensitive fields such as
// oracle API keys before they reach a log sink.
const RedactedValue = "[REDACTED]"

// MaskValue returns the redacted placeholder for non-empty values. Empty
// values pass through so absent credentials stay visible as absent.
func MaskValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return value
	}
	return RedactedValue
}

// MaskField builds a slog.Attr carrying the redacted form of a secret.
func MaskField(key, value string) slog.Attr {
	return slog.String(key, MaskValue(value))
}
