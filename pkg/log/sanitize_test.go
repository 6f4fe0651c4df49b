package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeField_MasksAPIKeys(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		expected string
	}{
		{"api key", "api_key", "sk-abcdef1234567890", "sk-a***********7890"},
		{"authorization header", "authorization", "Bearer xyz12345", "Bear*******2345"},
		{"provider token", "openrouter_token", "or-v1-secretsecret", "or-v**********cret"},
		{"short secret fully masked", "secret", "abc123", "******"},
		{"empty value untouched", "api_key", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeField(tt.key, tt.value))
		})
	}
}

func TestSanitizeField_LeavesPlainFieldsAlone(t *testing.T) {
	assert.Equal(t, "gemini", SanitizeField("provider", "gemini"))
	assert.Equal(t, "supervisor", SanitizeField("capability", "supervisor"))
	assert.Equal(t, "2026-08-25", SanitizeField("date_key", "2026-08-25"))
}

func TestSanitizeField_KeyMatchingIsCaseInsensitive(t *testing.T) {
	assert.NotEqual(t, "topsecretvalue", SanitizeField("API_KEY", "topsecretvalue"))
}
