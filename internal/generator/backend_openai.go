package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/liveremark/core/internal/resilience"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1/chat/completions"

// OpenAIBackend calls an OpenAI-compatible chat completions endpoint
// for writer selection and comment synthesis in one round trip.
type OpenAIBackend struct {
	APIKey  string
	BaseURL string
	Model   string
	Client  *http.Client
}

// NewOpenAIBackend creates a Backend targeting an OpenAI-compatible API.
func NewOpenAIBackend(apiKey, model string) *OpenAIBackend {
	return &OpenAIBackend{
		APIKey:  apiKey,
		BaseURL: defaultOpenAIBaseURL,
		Model:   model,
		Client:  &http.Client{Timeout: 20 * time.Second},
	}
}

type oaReq struct {
	Model          string     `json:"model"`
	Messages       []oaMsg    `json:"messages"`
	ResponseFormat oaRespFmt  `json:"response_format"`
}

type oaMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oaRespFmt struct {
	Type string `json:"type"`
}

type oaResp struct {
	Choices []struct {
		Message oaMsg `json:"message"`
	} `json:"choices"`
}

// Generate implements Backend.
func (b *OpenAIBackend) Generate(ctx context.Context, systemPrompt, userPrompt string) ([]byte, error) {
	body := oaReq{
		Model: b.Model,
		Messages: []oaMsg{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		ResponseFormat: oaRespFmt{Type: "json_object"},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.APIKey)

	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &resilience.HTTPStatusError{StatusCode: resp.StatusCode}
	}

	var parsed oaResp
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("empty choices in response")
	}
	return []byte(parsed.Choices[0].Message.Content), nil
}
