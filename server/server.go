// Package server exposes the intake flow over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/agent"
	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/dialogue"
	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/types"
)

const defaultMaxBodyBytes = 1 << 20

// Flow runs one chat turn.
type Flow interface {
	Invoke(ctx context.Context, input *agent.Request) (*agent.Response, error)
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	SessionID string        `json:"sessionId,omitempty"`
	Messages  []ChatMessage `json:"messages"`
	CorpusID  string        `json:"corpusId,omitempty"`
}

type ChatResponse struct {
	Text      string              `json:"text"`
	Citations []dialogue.Citation `json:"citations,omitempty"`
	Decision  types.DecisionKind  `json:"decision,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type options struct {
	corpusID     string
	gatherer     prometheus.Gatherer
	maxBodyBytes int64
}

type Option func(*options)

// WithDefaultCorpus sets the corpus used when a request names none.
func WithDefaultCorpus(id string) Option {
	return func(o *options) {
		o.corpusID = id
	}
}

// WithMetrics serves g on GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(o *options) {
		o.gatherer = g
	}
}

func WithMaxBodyBytes(n int64) Option {
	return func(o *options) {
		o.maxBodyBytes = n
	}
}

type Server struct {
	flow         Flow
	corpusID     string
	maxBodyBytes int64
	mux          *http.ServeMux
}

func New(flow Flow, opts ...Option) *Server {
	o := options{maxBodyBytes: defaultMaxBodyBytes}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	s := &Server{
		flow:         flow,
		corpusID:     o.corpusID,
		maxBodyBytes: o.maxBodyBytes,
		mux:          http.NewServeMux(),
	}
	s.mux.HandleFunc("POST /v1/chat", s.handleChat)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if o.gatherer != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{}))
	}
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// HTTPServer wraps the handler with the given timeouts.
func (s *Server) HTTPServer(addr string, readTimeout, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("failed to read body: %w", err))
		return
	}
	var req ChatRequest
	if err := sonic.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}
	messages, err := toMessages(req.Messages)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	corpusID := req.CorpusID
	if corpusID == "" {
		corpusID = s.corpusID
	}

	resp, err := s.flow.Invoke(r.Context(), &agent.Request{
		SessionID: strings.TrimSpace(req.SessionID),
		Messages:  messages,
		CorpusID:  corpusID,
	})
	if errors.Is(err, agent.ErrNoUserMessage) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		slog.Error("Chat turn failed", "session", req.SessionID, "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, ChatResponse{
		Text:      resp.Text,
		Citations: resp.Citations,
		Decision:  resp.Decision,
	})
}

func toMessages(in []ChatMessage) ([]*schema.Message, error) {
	out := make([]*schema.Message, 0, len(in))
	for i, m := range in {
		var role schema.RoleType
		switch strings.ToLower(m.Role) {
		case "user":
			role = schema.User
		case "assistant":
			role = schema.Assistant
		case "system":
			role = schema.System
		default:
			return nil, fmt.Errorf("message %d: unsupported role %q", i, m.Role)
		}
		out = append(out, &schema.Message{Role: role, Content: m.Content})
	}
	return out, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := sonic.Marshal(v)
	if err != nil {
		slog.Error("Failed to encode response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}
