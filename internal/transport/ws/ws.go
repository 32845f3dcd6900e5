// Package ws exposes the orchestrator's per-stream event surface over
// WebSocket: one connection per stream ID, inbound transcription turns
// in, outbound pipeline events out.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/liveremark/core/internal/detector"
	"github.com/liveremark/core/internal/domain"
	"github.com/liveremark/core/internal/generator"
	"github.com/liveremark/core/internal/orchestrator"
	"github.com/liveremark/core/internal/trace"
)

// Inbound message types from the client.
type inboundMessage struct {
	Type string `json:"type"`
}

type turnMessage struct {
	Type      string  `json:"type"`
	ID        string  `json:"id"`
	Content   string  `json:"content"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	TraceID   string  `json:"trace_id,omitempty"`
}

// Outbound message types mirroring the facade's event kinds.
type eventsDetectedMessage struct {
	Type             string `json:"type"`
	Events           any    `json:"events"`
	Turn             any    `json:"turn"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
}

type decisionMadeMessage struct {
	Type             string `json:"type"`
	Decision         any    `json:"decision"`
	Turn             any    `json:"turn"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
}

type commentStartedMessage struct {
	Type string `json:"type"`
	Turn any    `json:"turn"`
}

type commentGeneratedMessage struct {
	Type    string `json:"type"`
	Comment any    `json:"comment"`
	Turn    any    `json:"turn"`
}

type commentRejectedMessage struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
	Turn   any    `json:"turn"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// rateLimiter tracks message timestamps using a sliding window, one
// per connection.
type rateLimiter struct {
	mu         sync.Mutex
	timestamps []time.Time
}

func (r *rateLimiter) allow(max int, window time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-window)

	valid := r.timestamps[:0]
	for _, t := range r.timestamps {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	r.timestamps = valid

	if len(r.timestamps) >= max {
		return false
	}
	r.timestamps = append(r.timestamps, now)
	return true
}

// BackendFactory builds the detector/generator backends for a newly
// created stream. The transport layer never talks to an LLM directly.
type BackendFactory func(streamID string) (detector.Backend, generator.Backend)

// Server hosts the WebSocket endpoint and binds each connection to its
// own isolated System via the registry.
type Server struct {
	registry   *orchestrator.Registry
	cfg        orchestrator.Config
	newBackend BackendFactory
}

// New creates a Server. cfg is the default per-stream configuration;
// newBackend supplies the detector/generator backends for each stream.
func New(registry *orchestrator.Registry, cfg orchestrator.Config, newBackend BackendFactory) *Server {
	return &Server{registry: registry, cfg: cfg, newBackend: newBackend}
}

// Handler returns the HTTP handler, with trace and CORS middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	return corsMiddleware(trace.Middleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const (
	rateLimitMessages = 30
	rateLimitWindow   = time.Second
)

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	streamID := r.URL.Query().Get("stream")
	if streamID == "" {
		http.Error(w, "missing stream query param", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	baseCtx, span := trace.StartSpan(r.Context(), trace.SpanWSConnection)
	span.SetAttr(trace.AttrStreamID, streamID)
	defer span.End()

	log := trace.Logger(baseCtx)
	log.Info("websocket connected", "stream", streamID, "remote", r.RemoteAddr)

	detBackend, genBackend := s.newBackend(streamID)
	sys := s.registry.Create(context.Background(), streamID, s.cfg, detBackend, genBackend)
	defer s.registry.Remove(streamID)

	unsub := s.subscribe(baseCtx, conn, sys)
	defer unsub()

	rl := &rateLimiter{}
	for {
		var msg json.RawMessage
		if err := wsjson.Read(baseCtx, conn, &msg); err != nil {
			log.Debug("websocket read error", "error", err)
			return
		}

		if !rl.allow(rateLimitMessages, rateLimitWindow) {
			_ = wsjson.Write(baseCtx, conn, errorMessage{Type: "error", Message: "rate limit exceeded"})
			continue
		}

		var base inboundMessage
		if err := json.Unmarshal(msg, &base); err != nil {
			continue
		}

		if base.Type == "turn" {
			var t turnMessage
			if err := json.Unmarshal(msg, &t); err != nil {
				continue
			}
			sys.OnTurnCompleted(turnFromMessage(t))
		}
	}
}

func turnFromMessage(t turnMessage) domain.Turn {
	id := t.ID
	if id == "" {
		id = domain.NewTurnID()
	}
	return domain.Turn{ID: id, Content: t.Content, StartTime: t.StartTime, EndTime: t.EndTime}
}

// subscribe wires every facade event kind to a WebSocket write and
// returns the combined unsubscribe function.
func (s *Server) subscribe(ctx context.Context, conn *websocket.Conn, sys *orchestrator.System) func() {
	var unsubs []func()

	unsubs = append(unsubs, sys.On(orchestrator.EventsDetected, func(p any) {
		payload := p.(orchestrator.EventsDetectedPayload)
		_ = wsjson.Write(ctx, conn, eventsDetectedMessage{
			Type: "events_detected", Events: payload.Events, Turn: payload.Turn,
			ProcessingTimeMs: payload.ProcessingTimeMs,
		})
	}))
	unsubs = append(unsubs, sys.On(orchestrator.EventDecisionMade, func(p any) {
		payload := p.(orchestrator.DecisionMadePayload)
		_ = wsjson.Write(ctx, conn, decisionMadeMessage{
			Type: "decision_made", Decision: payload.Decision, Turn: payload.Turn,
			ProcessingTimeMs: payload.ProcessingTimeMs,
		})
	}))
	unsubs = append(unsubs, sys.On(orchestrator.EventCommentStarted, func(p any) {
		payload := p.(orchestrator.CommentStartedPayload)
		_ = wsjson.Write(ctx, conn, commentStartedMessage{Type: "comment_started", Turn: payload.Turn})
	}))
	unsubs = append(unsubs, sys.On(orchestrator.EventCommentGenerated, func(p any) {
		payload := p.(orchestrator.CommentGeneratedPayload)
		_ = wsjson.Write(ctx, conn, commentGeneratedMessage{
			Type: "comment_generated", Comment: payload.Comment, Turn: payload.Turn,
		})
	}))
	unsubs = append(unsubs, sys.On(orchestrator.EventCommentRejected, func(p any) {
		payload := p.(orchestrator.CommentRejectedPayload)
		_ = wsjson.Write(ctx, conn, commentRejectedMessage{
			Type: "comment_rejected", Reason: payload.Reason, Turn: payload.Turn,
		})
	}))
	unsubs = append(unsubs, sys.On(orchestrator.EventError, func(p any) {
		payload := p.(orchestrator.ErrorPayload)
		_ = wsjson.Write(ctx, conn, errorMessage{Type: "error", Message: payload.Err.Error()})
	}))

	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
