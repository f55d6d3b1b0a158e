package ai

import (
	"bytes"
	"context"
	"edge_trading/internal/models"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type MistralClient struct {
	apiKey string
	opts   clientOptions
}

func NewMistralClient(apiKey string, opts ...Option) *MistralClient {
	return &MistralClient{
		apiKey: apiKey,
		opts:   buildOptions("https://api.mistral.ai", "mistral-small-latest", opts),
	}
}

type mistralRequest struct {
	Model    string           `json:"model"`
	Messages []mistralMessage `json:"messages"`
}

type mistralMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type mistralResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Estimate sends the prompt to the chat completions API
func (m *MistralClient) Estimate(ctx context.Context, prompt string) (string, error) {
	reqBody := mistralRequest{
		Model: m.opts.model,
		Messages: []mistralMessage{
			{
				Role:    "user",
				Content: prompt,
			},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.opts.baseURL+"/v1/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.opts.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: mistral request: %v", models.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read mistral response: %v", models.ErrNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: mistral API error: %s", models.ErrNetwork, string(body))
	}

	var mistralResp mistralResponse
	if err := json.Unmarshal(body, &mistralResp); err != nil {
		return "", fmt.Errorf("%w: decode mistral response: %v", models.ErrNetwork, err)
	}

	if len(mistralResp.Choices) == 0 {
		return "", fmt.Errorf("%w: no response from Mistral", models.ErrMalformedEstimate)
	}

	return mistralResp.Choices[0].Message.Content, nil
}
