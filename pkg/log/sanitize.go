package log

import (
	"strings"
)

// sensitiveKeywords are substrings of field keys whose values must never be
// logged verbatim. Provider API keys are the main concern here.
var sensitiveKeywords = []string{
	"api_key", "apikey", "api-key",
	"token", "secret",
	"auth", "authorization",
	"credential", "password",
}

// SanitizeField masks the value when the key looks like it carries a
// credential. Non-sensitive values are returned unchanged.
func SanitizeField(key, value string) string {
	if value == "" {
		return value
	}

	lowerKey := strings.ToLower(key)
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lowerKey, keyword) {
			return maskSecret(value)
		}
	}

	return value
}

// maskSecret keeps the first and last four characters of long secrets so
// operators can still correlate keys, and masks short ones entirely.
func maskSecret(value string) string {
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}
