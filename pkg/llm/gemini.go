package llm

import (
	"context"
	"fmt"

	"ModelLane/internal/conf"
	"ModelLane/internal/model"

	"google.golang.org/genai"
)

// geminiClient serves completions through the Gemini API.
type geminiClient struct {
	client  *genai.Client
	modelID string
}

func geminiFactory(p *conf.Provider) Factory {
	return func(ctx context.Context, modelID string) (Client, error) {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  p.ApiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		return &geminiClient{client: client, modelID: modelID}, nil
	}
}

// Complete implements Client.
func (c *geminiClient) Complete(ctx context.Context, req model.CompletionRequest) (*model.CompletionResult, error) {
	var cfg *genai.GenerateContentConfig
	if req.MaxTokens > 0 {
		cfg = &genai.GenerateContentConfig{MaxOutputTokens: int32(req.MaxTokens)} // #nosec G115 -- token budgets fit int32
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.modelID, genai.Text(req.Prompt), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini completion: %w", err)
	}

	result := &model.CompletionResult{
		Text:      resp.Text(),
		ToolCalls: len(resp.FunctionCalls()),
		Provider:  model.ProviderGemini,
		ModelID:   c.modelID,
	}
	if resp.UsageMetadata != nil {
		result.TotalTokens = int64(resp.UsageMetadata.TotalTokenCount)
	}
	return result, nil
}
