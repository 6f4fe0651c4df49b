package biz

import (
	"testing"

	"ModelLane/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestShouldRetry(t *testing.T) {
	cases := []struct {
		name    string
		attempt model.AttemptResult
		intent  model.IntentCategory
		want    bool
	}{
		{
			name:    "clean response never retries",
			attempt: model.AttemptResult{ResponseChars: 500},
			intent:  model.IntentDiagnostic,
			want:    false,
		},
		{
			name:    "catch-all intent never retries even empty",
			attempt: model.AttemptResult{Flags: []model.QualityFlag{model.FlagEmptyResponse, model.FlagNoOutput}},
			intent:  model.IntentGeneral,
			want:    false,
		},
		{
			name:    "empty response retries",
			attempt: model.AttemptResult{Flags: []model.QualityFlag{model.FlagEmptyResponse}, ToolCalls: 2},
			intent:  model.IntentMonitoring,
			want:    true,
		},
		{
			name:    "no output retries",
			attempt: model.AttemptResult{Flags: []model.QualityFlag{model.FlagEmptyResponse, model.FlagNoOutput}},
			intent:  model.IntentAdvisory,
			want:    true,
		},
		{
			name:    "too short below floor with no tool calls retries",
			attempt: model.AttemptResult{Flags: []model.QualityFlag{model.FlagTooShort}, ResponseChars: 30},
			intent:  model.IntentDiagnostic,
			want:    true,
		},
		{
			name:    "too short at floor is accepted",
			attempt: model.AttemptResult{Flags: []model.QualityFlag{model.FlagTooShort}, ResponseChars: 50},
			intent:  model.IntentDiagnostic,
			want:    false,
		},
		{
			name:    "too short below floor but with tool calls is accepted",
			attempt: model.AttemptResult{Flags: []model.QualityFlag{model.FlagTooShort}, ResponseChars: 10, ToolCalls: 1},
			intent:  model.IntentMonitoring,
			want:    false,
		},
		{
			name:    "too short above floor is accepted",
			attempt: model.AttemptResult{Flags: []model.QualityFlag{model.FlagTooShort}, ResponseChars: 80},
			intent:  model.IntentAdvisory,
			want:    false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ShouldRetry(tc.attempt, tc.intent))
		})
	}
}
