package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ModelLane/internal/conf"
	"ModelLane/internal/model"

	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/net/proxy"
)

const (
	openRouterDefaultBaseURL = "https://openrouter.ai/api/v1"
	openRouterUserAgent      = "ModelLane/1.0"
	openRouterTimeout        = 90 * time.Second
)

// openRouterClient serves completions through the OpenRouter
// chat-completions endpoint. It is the one vendor reached over plain HTTP,
// optionally through an egress proxy.
type openRouterClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	modelID    string
	logger     *log.Helper
}

func openRouterFactory(p *conf.Provider, logger *log.Helper) Factory {
	return func(ctx context.Context, modelID string) (Client, error) {
		httpClient, err := newProxiedHTTPClient(p.ProxyUrl, openRouterTimeout)
		if err != nil {
			return nil, fmt.Errorf("openrouter client: %w", err)
		}

		baseURL := strings.TrimSuffix(p.BaseUrl, "/")
		if baseURL == "" {
			baseURL = openRouterDefaultBaseURL
		}

		return &openRouterClient{
			httpClient: httpClient,
			baseURL:    baseURL,
			apiKey:     p.ApiKey,
			modelID:    modelID,
			logger:     logger,
		}, nil
	}
}

type chatCompletionRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int64         `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				ID string `json:"id"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int64 `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// Complete implements Client.
func (c *openRouterClient) Complete(ctx context.Context, req model.CompletionRequest) (*model.CompletionResult, error) {
	payload, err := json.Marshal(chatCompletionRequest{
		Model:     c.modelID,
		Messages:  []chatMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("openrouter request encoding: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("openrouter request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", openRouterUserAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openrouter completion: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openrouter response read: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openrouter completion: HTTP %d: %s", resp.StatusCode, truncateBody(body))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("openrouter response decoding: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("openrouter completion: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("openrouter completion: response has no choices")
	}

	choice := parsed.Choices[0]
	return &model.CompletionResult{
		Text:        choice.Message.Content,
		ToolCalls:   len(choice.Message.ToolCalls),
		TotalTokens: parsed.Usage.TotalTokens,
		Provider:    model.ProviderOpenRouter,
		ModelID:     c.modelID,
	}, nil
}

func truncateBody(body []byte) string {
	const limit = 256
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}

// newProxiedHTTPClient builds an HTTP client, routing through the given
// proxy URL when non-empty. Supports socks5 and http/https proxies.
func newProxiedHTTPClient(proxyURL string, timeout time.Duration) (*http.Client, error) {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}

		switch parsed.Scheme {
		case "socks5", "socks5h":
			dialer, err := newSOCKS5Dialer(parsed)
			if err != nil {
				return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
			}
			transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}

		case "http", "https":
			transport.Proxy = func(req *http.Request) (*url.URL, error) {
				return parsed, nil
			}

		default:
			return nil, fmt.Errorf("unsupported proxy scheme: %s (supported: socks5, http, https)", parsed.Scheme)
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}, nil
}

func newSOCKS5Dialer(parsed *url.URL) (proxy.Dialer, error) {
	var auth *proxy.Auth
	if parsed.User != nil {
		password, _ := parsed.User.Password()
		auth = &proxy.Auth{
			User:     parsed.User.Username(),
			Password: password,
		}
	}

	host := parsed.Host
	if !strings.Contains(host, ":") {
		host += ":1080"
	}

	return proxy.SOCKS5("tcp", host, auth, proxy.Direct)
}
