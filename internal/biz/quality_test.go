package biz

import (
	"strings"
	"testing"

	"ModelLane/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestQualityEvaluator(t *testing.T) {
	eval := NewQualityEvaluator()

	cases := []struct {
		name   string
		result model.CompletionResult
		want   []model.QualityFlag
	}{
		{
			name:   "substantial response is clean",
			result: model.CompletionResult{Text: strings.Repeat("x", 200)},
			want:   nil,
		},
		{
			name:   "whitespace only with no tool calls",
			result: model.CompletionResult{Text: "  \n\t "},
			want:   []model.QualityFlag{model.FlagEmptyResponse, model.FlagNoOutput},
		},
		{
			name:   "whitespace only but tools ran",
			result: model.CompletionResult{Text: "", ToolCalls: 2},
			want:   []model.QualityFlag{model.FlagEmptyResponse},
		},
		{
			name:   "short response",
			result: model.CompletionResult{Text: "disk is fine"},
			want:   []model.QualityFlag{model.FlagTooShort},
		},
		{
			name:   "length measured after trimming",
			result: model.CompletionResult{Text: "   ok   " + strings.Repeat(" ", 300)},
			want:   []model.QualityFlag{model.FlagTooShort},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, eval.Evaluate(&tc.result))
		})
	}
}
