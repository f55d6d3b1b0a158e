package ai

import (
	"bytes"
	"context"
	"edge_trading/internal/models"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const anthropicVersion = "2023-06-01"

type AnthropicClient struct {
	apiKey string
	opts   clientOptions
}

func NewAnthropicClient(apiKey string, opts ...Option) *AnthropicClient {
	return &AnthropicClient{
		apiKey: apiKey,
		opts:   buildOptions("https://api.anthropic.com", "claude-sonnet-4-20250514", opts),
	}
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Tools     []anthropicTool    `json:"tools,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicTool struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Estimate sends the prompt to the messages API and joins the text blocks of the answer
func (a *AnthropicClient) Estimate(ctx context.Context, prompt string) (string, error) {
	reqBody := anthropicRequest{
		Model:     a.opts.model,
		MaxTokens: 500,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	}
	if a.opts.webSearch {
		reqBody.Tools = []anthropicTool{{Type: "web_search_20250305", Name: "web_search"}}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.opts.baseURL+"/v1/messages", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.opts.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: anthropic request: %v", models.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read anthropic response: %v", models.ErrNetwork, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: anthropic API error: status %d: %s", models.ErrNetwork, resp.StatusCode, string(body))
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode anthropic response: %v", models.ErrNetwork, err)
	}

	var parts []string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, " "), nil
}
