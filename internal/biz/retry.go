package biz

import "ModelLane/internal/model"

// minMeaningfulChars is the floor below which a short response is considered
// worth retrying. Above it a TOO_SHORT response is accepted as-is.
const minMeaningfulChars = 50

// ShouldRetry decides whether a completed attempt warrants another pass.
// The policy is quality-based, not error-based: transport errors are handled
// upstream by provider fallback, so only a flagged-but-delivered response
// reaches this decision.
//
// Catch-all intent never retries; a short or empty answer to small talk is
// fine. Empty and no-output responses always retry. A too-short response
// retries only when it is both below the meaningful floor and carries no
// tool calls, since a response that invoked tools did real work regardless
// of its text length.
func ShouldRetry(attempt model.AttemptResult, intent model.IntentCategory) bool {
	if intent == model.IntentGeneral {
		return false
	}

	if attempt.HasFlag(model.FlagEmptyResponse) || attempt.HasFlag(model.FlagNoOutput) {
		return true
	}

	if attempt.HasFlag(model.FlagTooShort) {
		return attempt.ResponseChars < minMeaningfulChars && attempt.ToolCalls == 0
	}

	return false
}
