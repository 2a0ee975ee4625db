package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kirillkom/course-assistant/internal/config"
	"github.com/kirillkom/course-assistant/internal/core/domain"
	"github.com/kirillkom/course-assistant/internal/core/ports"
	"github.com/kirillkom/course-assistant/internal/observability/logging"
	"github.com/kirillkom/course-assistant/internal/observability/metrics"
)

const (
	maxChatBodyBytes   = 64 << 10
	defaultHistorySize = 10
	maxHistorySize     = 100
	healthCheckTimeout = 2 * time.Second
)

type Router struct {
	cfg      config.Config
	chat     ports.ChatService
	metrics  *metrics.HTTPServerMetrics
	markdown *markdownRenderer

	health      ports.HealthChecker
	transcripts ports.TranscriptStore
}

type Option func(*Router)

// WithHealthCheck makes /healthz report 503 while the checker fails.
func WithHealthCheck(hc ports.HealthChecker) Option {
	return func(rt *Router) { rt.health = hc }
}

// WithTranscripts serves the persisted turns of the current session.
func WithTranscripts(store ports.TranscriptStore) Option {
	return func(rt *Router) { rt.transcripts = store }
}

func NewRouter(cfg config.Config, chat ports.ChatService, m *metrics.HTTPServerMetrics, opts ...Option) *Router {
	if m == nil {
		m = metrics.NewHTTPServerMetrics(cfg.ServiceName)
	}
	rt := &Router{
		cfg:      cfg,
		chat:     chat,
		metrics:  m,
		markdown: newMarkdownRenderer(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(accessLogMiddleware)
	r.Use(func(next http.Handler) http.Handler {
		return rt.metrics.Middleware(rt.cfg.ServiceName, next)
	})
	r.Use(corsMiddleware)
	r.Use(func(next http.Handler) http.Handler {
		return rateLimitMiddleware(next, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, func() {
			rt.metrics.RecordRateLimited(rt.cfg.ServiceName)
		})
	})
	r.Use(func(next http.Handler) http.Handler {
		return backpressureMiddleware(next, rt.cfg.APIMaxInflight, rt.cfg.APIQueueWait, func() {
			rt.metrics.RecordOverloaded(rt.cfg.ServiceName)
		})
	})
	r.Use(middleware.Recoverer)

	r.Get("/healthz", rt.healthz)
	r.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	r.Route("/chat", func(r chi.Router) {
		r.Post("/", rt.postChat)
		r.Post("/clear", rt.clearChat)
		r.Get("/history", rt.chatHistory)
		r.Get("/transcript", rt.chatTranscript)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})
	return r
}

type chatRequest struct {
	Message *string `json:"message"`
}

type chatResponse struct {
	Success    bool     `json:"success"`
	Answer     string   `json:"answer"`
	AnswerHTML string   `json:"answer_html,omitempty"`
	Citations  []string `json:"citations"`
	IsFallback bool     `json:"is_fallback"`
	Error      *string  `json:"error"`
	Turn       int      `json:"turn"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type historyResponse struct {
	Turns []domain.ConversationTurn `json:"turns"`
}

type transcriptResponse struct {
	SessionID string              `json:"session_id"`
	Turns     []domain.TurnRecord `json:"turns"`
}

func (rt *Router) healthz(w http.ResponseWriter, r *http.Request) {
	if rt.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if err := rt.health.Ping(ctx); err != nil {
			logging.FromContext(r.Context()).Warn("health_check_failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) postChat(w http.ResponseWriter, r *http.Request) {
	message, err := decodeChatRequest(w, r)
	if err != nil {
		logging.FromContext(r.Context()).Warn("chat_request_rejected", "error", err)
		writeError(w, err)
		return
	}

	start := time.Now()
	reply := rt.chat.Chat(r.Context(), message)
	rt.metrics.RecordChatTurn(rt.cfg.ServiceName, string(reply.Outcome), reply.IsFallback, reply.Sources, reply.Attempts, time.Since(start))

	resp := chatResponse{
		Success:    reply.Success,
		Answer:     reply.Answer,
		Citations:  reply.Citations,
		IsFallback: reply.IsFallback,
		Turn:       reply.Turn,
	}
	if resp.Citations == nil {
		resp.Citations = []string{}
	}
	if reply.Error != "" {
		resp.Error = &reply.Error
	}
	if strings.EqualFold(r.URL.Query().Get("render"), "html") {
		html, err := rt.markdown.Render(reply.Answer)
		if err != nil {
			logging.FromContext(r.Context()).Warn("answer_render_failed", "error", err)
		} else {
			resp.AnswerHTML = html
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) clearChat(w http.ResponseWriter, _ *http.Request) {
	rt.chat.Clear()
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (rt *Router) chatHistory(w http.ResponseWriter, r *http.Request) {
	n, err := historySize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	turns := rt.chat.History(n)
	if turns == nil {
		turns = []domain.ConversationTurn{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Turns: turns})
}

func (rt *Router) chatTranscript(w http.ResponseWriter, r *http.Request) {
	if rt.transcripts == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "transcripts are not enabled"})
		return
	}
	n, err := historySize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	session := rt.chat.SessionID()
	turns, err := rt.transcripts.ListSession(r.Context(), session, n)
	if err != nil {
		logging.FromContext(r.Context()).Error("transcript_list_failed", "session_id", session, "error", err)
		writeError(w, domain.WrapError(domain.ErrTemporary, "list transcript", err))
		return
	}
	if turns == nil {
		turns = []domain.TurnRecord{}
	}
	writeJSON(w, http.StatusOK, transcriptResponse{SessionID: session, Turns: turns})
}

func historySize(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("n"))
	if raw == "" {
		return defaultHistorySize, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "parse history size", fmt.Errorf("n must be a non-negative integer, got %q", raw))
	}
	return min(parsed, maxHistorySize), nil
}

func decodeChatRequest(w http.ResponseWriter, r *http.Request) (string, error) {
	var req chatRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBodyBytes))
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return "", domain.WrapError(domain.ErrInvalidInput, "decode chat request", errors.New("request body is empty"))
		}
		return "", domain.WrapError(domain.ErrInvalidInput, "decode chat request", err)
	}
	if req.Message == nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "decode chat request", errors.New("message is required"))
	}
	return *req.Message, nil
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
