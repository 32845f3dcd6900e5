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

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// GeminiBackend calls a Gemini-compatible generateContent endpoint. The
// request/response envelope differs from OpenAI's but the transport
// idiom is identical: net/http, encoding/json, no vendor SDK.
type GeminiBackend struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

// NewGeminiBackend creates a Backend targeting a Gemini-compatible API.
func NewGeminiBackend(apiKey string) *GeminiBackend {
	return &GeminiBackend{
		APIKey:  apiKey,
		BaseURL: defaultGeminiBaseURL,
		Client:  &http.Client{Timeout: 20 * time.Second},
	}
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	SystemInstrction geminiContent          `json:"systemInstruction"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string `json:"responseMimeType"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Detect implements Backend.
func (b *GeminiBackend) Detect(ctx context.Context, prompt Prompt, model string) ([]byte, error) {
	body := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: buildPromptText(prompt)}}},
		},
		SystemInstrction: geminiContent{Parts: []geminiPart{{Text: detectionSystemPrompt()}}},
		GenerationConfig: geminiGenerationConfig{ResponseMimeType: "application/json"},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", b.BaseURL, model, b.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

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

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty candidates in response")
	}
	return []byte(parsed.Candidates[0].Content.Parts[0].Text), nil
}
