// Package generator implements the comment-generation boundary the
// scheduler calls into: packaging the comment context and a selector
// configuration, and returning either accepted content attributed to
// one writer, or a rejection. The single LLM call this package wraps
// (writer selection and synthesis in one request) is itself an opaque
// collaborator; this package owns only the
// packaging, the strict-JSON contract, and cancellation.
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/liveremark/core/internal/domain"
	"github.com/liveremark/core/internal/resilience"
	"github.com/liveremark/core/internal/trace"
)

const (
	uncommentedTailChars = 600
	historicalTailChars  = 400
	maxSummarizedEvents  = 5
)

// Backend is the contract a model provider implements for comment
// synthesis: given the assembled prompt, return the raw JSON response
// body exactly as the provider sent it.
type Backend interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) ([]byte, error)
}

type rawGenResponse struct {
	Reject  bool   `json:"reject"`
	Reason  string `json:"reason"`
	Content string `json:"content"`
	Writer  string `json:"writer"`
}

// Generator owns the writer roster and selector configuration, and
// turns a CommentContext into a GenResult via a Backend.
type Generator struct {
	backend  Backend
	writers  []domain.WriterConfig
	selector domain.SelectorConfig
	breaker  *resilience.Breaker
	retry    resilience.RetryConfig
}

// New creates a Generator bound to a backend and writer roster.
func New(backend Backend, writers []domain.WriterConfig, selector domain.SelectorConfig) *Generator {
	return &Generator{
		backend:  backend,
		writers:  writers,
		selector: selector,
		breaker:  resilience.New("generation", resilience.GenerationBreakerConfig()),
		retry:    resilience.LLMRetryConfig(),
	}
}

// Generate packages ctx into a prompt, asks the backend to select a
// writer (or reject), and returns the parsed GenResult. The supplied
// context is the cancellation signal threaded from the scheduler's
// pendingCancellation token: cancelling it stops both the delay wait
// upstream and, if already started, this call.
func (g *Generator) Generate(ctx context.Context, cc domain.CommentContext) (domain.GenResult, error) {
	ctx, span := trace.StartSpan(ctx, trace.SpanGenerate)
	defer span.End()

	userPrompt := buildUserPrompt(cc, g.writers)
	systemPrompt := g.selector.Instructions
	if systemPrompt == "" {
		systemPrompt = defaultSelectorInstructions()
	}

	var raw []byte
	err := g.breaker.Execute(func() error {
		return resilience.Retry(ctx, g.retry, func() error {
			r, callErr := g.backend.Generate(ctx, systemPrompt, userPrompt)
			if callErr != nil {
				return callErr
			}
			raw = r
			return nil
		})
	})
	if err != nil {
		return domain.GenResult{}, fmt.Errorf("generation call failed: %w", err)
	}

	var parsed rawGenResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return domain.GenResult{}, fmt.Errorf("decode generation response: %w", err)
	}

	if parsed.Reject {
		return domain.GenResult{Reject: true, Reason: parsed.Reason}, nil
	}

	writerCfg, ok := findWriter(g.writers, parsed.Writer)
	if !ok {
		return domain.GenResult{Reject: true, Reason: "selector named unknown writer: " + parsed.Writer}, nil
	}
	if l := len(parsed.Content); l < writerCfg.MinLength || (writerCfg.MaxLength > 0 && l > writerCfg.MaxLength) {
		return domain.GenResult{Reject: true, Reason: fmt.Sprintf("content length %d outside writer %q bounds", l, writerCfg.Name)}, nil
	}

	return domain.GenResult{Content: parsed.Content, Writer: parsed.Writer}, nil
}

func findWriter(writers []domain.WriterConfig, name string) (domain.WriterConfig, bool) {
	for _, w := range writers {
		if w.Name == name {
			return w, true
		}
	}
	return domain.WriterConfig{}, false
}

func defaultSelectorInstructions() string {
	return "Pick the single best-fitting writer for this moment, or reject if nothing warrants a comment."
}

func buildUserPrompt(cc domain.CommentContext, writers []domain.WriterConfig) string {
	var b strings.Builder

	b.WriteString("Current turn:\n")
	b.WriteString(cc.CurrentText)
	b.WriteString("\n\nGrounding text:\n")
	b.WriteString(groundingText(cc))
	b.WriteString("\n\nRecent events:\n")
	b.WriteString(summarizeEvents(cc.Events))
	b.WriteString("\n\nAvailable writers:\n")
	for _, w := range writers {
		fmt.Fprintf(&b, "- %s: %s (length %d-%d)\n", w.Name, w.Instructions, w.MinLength, w.MaxLength)
	}
	return b.String()
}

// groundingText picks the last 600 chars of uncommentedText, falling
// back to the last 400 chars of historicalText when uncommentedText
// is empty.
func groundingText(cc domain.CommentContext) string {
	if cc.UncommentedText != "" {
		return tail(cc.UncommentedText, uncommentedTailChars)
	}
	return tail(cc.HistoricalText, historicalTailChars)
}

func tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

func summarizeEvents(events []domain.Event) string {
	if len(events) == 0 {
		return "(none)"
	}
	n := len(events)
	if n > maxSummarizedEvents {
		n = maxSummarizedEvents
	}
	var b strings.Builder
	for _, ev := range events[:n] {
		fmt.Fprintf(&b, "- %s (confidence %.2f, intensity %.2f): %s\n", ev.Type, ev.Confidence, ev.Intensity, ev.Metadata.Reasoning)
	}
	return b.String()
}
