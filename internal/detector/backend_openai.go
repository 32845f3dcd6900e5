package detector

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

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	openAIChatPath       = "/chat/completions"
)

// OpenAIBackend calls an OpenAI-compatible chat completions endpoint
// with response_format forced to JSON, grounded on the HTTP+JSON style
// of PromptKit's runtime/providers/openai/openai.go (no special SDK;
// the ecosystem convention for these APIs is a thin net/http client).
type OpenAIBackend struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

// NewOpenAIBackend creates a Backend targeting an OpenAI-compatible API.
func NewOpenAIBackend(apiKey string) *OpenAIBackend {
	return &OpenAIBackend{
		APIKey:  apiKey,
		BaseURL: defaultOpenAIBaseURL,
		Client:  &http.Client{Timeout: 20 * time.Second},
	}
}

type openAIChatRequest struct {
	Model          string              `json:"model"`
	Messages       []openAIChatMessage `json:"messages"`
	ResponseFormat openAIResponseFmt   `json:"response_format"`
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponseFmt struct {
	Type string `json:"type"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message openAIChatMessage `json:"message"`
	} `json:"choices"`
}

// Detect implements Backend.
func (b *OpenAIBackend) Detect(ctx context.Context, prompt Prompt, model string) ([]byte, error) {
	body := openAIChatRequest{
		Model: model,
		Messages: []openAIChatMessage{
			{Role: "system", Content: detectionSystemPrompt()},
			{Role: "user", Content: buildPromptText(prompt)},
		},
		ResponseFormat: openAIResponseFmt{Type: "json_object"},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.BaseURL+openAIChatPath, bytes.NewReader(payload))
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

	var parsed openAIChatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("empty choices in response")
	}
	return []byte(parsed.Choices[0].Message.Content), nil
}
