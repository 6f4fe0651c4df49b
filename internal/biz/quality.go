package biz

import (
	"strings"

	"ModelLane/internal/model"
)

// tooShortChars is the trimmed length below which a response is flagged
// TOO_SHORT. Deliberately above the retry floor: flagged responses between
// the two are kept but logged.
const tooShortChars = 120

// QualityEvaluator classifies a completed response's adequacy.
type QualityEvaluator interface {
	Evaluate(result *model.CompletionResult) []model.QualityFlag
}

// NewQualityEvaluator returns the default length-and-presence evaluator.
func NewQualityEvaluator() QualityEvaluator {
	return lengthEvaluator{}
}

type lengthEvaluator struct{}

// Evaluate implements QualityEvaluator. A whitespace-only response is
// EMPTY_RESPONSE, additionally NO_OUTPUT when it carried no tool calls
// either; otherwise a short response is TOO_SHORT.
func (lengthEvaluator) Evaluate(result *model.CompletionResult) []model.QualityFlag {
	trimmed := strings.TrimSpace(result.Text)

	if trimmed == "" {
		flags := []model.QualityFlag{model.FlagEmptyResponse}
		if result.ToolCalls == 0 {
			flags = append(flags, model.FlagNoOutput)
		}
		return flags
	}

	if len(trimmed) < tooShortChars {
		return []model.QualityFlag{model.FlagTooShort}
	}

	return nil
}
