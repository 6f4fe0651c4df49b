package model

// IntentCategory is the caller-supplied classification of an inbound query.
// The retry policy treats IntentGeneral as the catch-all category and never
// retries it.
type IntentCategory string

const (
	// IntentMonitoring covers live-metric questions (load, memory, disk).
	IntentMonitoring IntentCategory = "monitoring"
	// IntentDiagnostic covers incident and log analysis questions.
	IntentDiagnostic IntentCategory = "diagnostic"
	// IntentAdvisory covers tuning and capacity-planning questions.
	IntentAdvisory IntentCategory = "advisory"
	// IntentGeneral is the catch-all for casual conversation.
	IntentGeneral IntentCategory = "general"
)

// QualityFlag is a coarse classification of a completed response's adequacy.
type QualityFlag string

const (
	// FlagEmptyResponse marks a response whose text is all whitespace.
	FlagEmptyResponse QualityFlag = "EMPTY_RESPONSE"
	// FlagNoOutput marks a response with no text and no tool calls at all.
	FlagNoOutput QualityFlag = "NO_OUTPUT"
	// FlagTooShort marks a response below the expected length.
	FlagTooShort QualityFlag = "TOO_SHORT"
)

// CompletionRequest is the input handed to a provider client.
type CompletionRequest struct {
	Prompt    string
	MaxTokens int64
}

// CompletionResult is what a provider client returns from one completion.
type CompletionResult struct {
	Text        string       `json:"text"`
	ToolCalls   int          `json:"tool_calls"`
	TotalTokens int64        `json:"total_tokens"`
	Provider    ProviderName `json:"provider"`
	ModelID     string       `json:"model_id"`
}

// AttemptResult is the metadata of one completed dispatch attempt, consumed
// by the retry policy.
type AttemptResult struct {
	Provider      ProviderName
	ModelID       string
	Err           error
	Flags         []QualityFlag
	ResponseChars int // trimmed response length
	ToolCalls     int
}

// HasFlag reports whether the attempt carries the given quality flag.
func (a AttemptResult) HasFlag(flag QualityFlag) bool {
	for _, f := range a.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// DispatchRequest is one inbound assistant request to route to a provider.
type DispatchRequest struct {
	Capability string
	Prompt     string
	Intent     IntentCategory
	MaxTokens  int64
}

// DispatchResult is the outcome of a dispatch loop.
type DispatchResult struct {
	RequestID   string       `json:"request_id"`
	Provider    ProviderName `json:"provider"`
	ModelID     string       `json:"model_id"`
	Text        string       `json:"text"`
	TotalTokens int64        `json:"total_tokens"`
	Attempts    int          `json:"attempts"`
	// Degraded is set when the loop exhausted its retries and returned the
	// best response it had instead of a fully satisfactory one.
	Degraded bool `json:"degraded"`
}
