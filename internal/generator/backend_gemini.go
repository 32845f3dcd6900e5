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

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// GeminiBackend calls a Gemini-compatible generateContent endpoint.
type GeminiBackend struct {
	APIKey  string
	BaseURL string
	Model   string
	Client  *http.Client
}

// NewGeminiBackend creates a Backend targeting a Gemini-compatible API.
func NewGeminiBackend(apiKey, model string) *GeminiBackend {
	return &GeminiBackend{
		APIKey:  apiKey,
		BaseURL: defaultGeminiBaseURL,
		Model:   model,
		Client:  &http.Client{Timeout: 20 * time.Second},
	}
}

type gmReq struct {
	Contents         []gmContent  `json:"contents"`
	SystemInstrction gmContent    `json:"systemInstruction"`
	GenerationConfig gmGenConfig  `json:"generationConfig"`
}

type gmContent struct {
	Parts []gmPart `json:"parts"`
}

type gmPart struct {
	Text string `json:"text"`
}

type gmGenConfig struct {
	ResponseMimeType string `json:"responseMimeType"`
}

type gmResp struct {
	Candidates []struct {
		Content gmContent `json:"content"`
	} `json:"candidates"`
}

// Generate implements Backend.
func (b *GeminiBackend) Generate(ctx context.Context, systemPrompt, userPrompt string) ([]byte, error) {
	body := gmReq{
		Contents:         []gmContent{{Parts: []gmPart{{Text: userPrompt}}}},
		SystemInstrction: gmContent{Parts: []gmPart{{Text: systemPrompt}}},
		GenerationConfig: gmGenConfig{ResponseMimeType: "application/json"},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", b.BaseURL, b.Model, b.APIKey)
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

	var parsed gmResp
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty candidates in response")
	}
	return []byte(parsed.Candidates[0].Content.Parts[0].Text), nil
}
