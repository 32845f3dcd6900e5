package detector

import "context"

// Prompt is the assembled input for one detection call.
type Prompt struct {
	ImmediateContext string // uncommentedText
	BroadContext     string // last 1,500 chars of fullContext
	Content          string // triggering turn's content
}

// Backend is the contract every model provider implements: send the
// prompt, return the raw JSON response body exactly as the provider
// sent it. Schema validation happens one layer up, before any
// unmarshalling; the contract is a strict JSON response.
type Backend interface {
	Detect(ctx context.Context, prompt Prompt, model string) ([]byte, error)
}
