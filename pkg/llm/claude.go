package llm

import (
	"context"
	"fmt"
	"strings"

	"ModelLane/internal/conf"
	"ModelLane/internal/model"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// defaultClaudeMaxTokens applies when the caller gives no token budget; the
// Messages API requires an explicit max.
const defaultClaudeMaxTokens = 2048

// claudeClient serves completions through the Anthropic Messages API.
type claudeClient struct {
	client  anthropic.Client
	modelID string
}

func claudeFactory(p *conf.Provider) Factory {
	return func(ctx context.Context, modelID string) (Client, error) {
		opts := []option.RequestOption{option.WithAPIKey(p.ApiKey)}
		if p.BaseUrl != "" {
			opts = append(opts, option.WithBaseURL(p.BaseUrl))
		}
		return &claudeClient{
			client:  anthropic.NewClient(opts...),
			modelID: modelID,
		}, nil
	}
}

// Complete implements Client.
func (c *claudeClient) Complete(ctx context.Context, req model.CompletionRequest) (*model.CompletionResult, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultClaudeMaxTokens
	}

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.modelID),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("claude completion: %w", err)
	}

	var text strings.Builder
	toolCalls := 0
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			toolCalls++
		}
	}

	return &model.CompletionResult{
		Text:        text.String(),
		ToolCalls:   toolCalls,
		TotalTokens: msg.Usage.InputTokens + msg.Usage.OutputTokens,
		Provider:    model.ProviderClaude,
		ModelID:     c.modelID,
	}, nil
}
