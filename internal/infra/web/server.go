package web

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-repo-notifier/internal/domain/model"
	"telegram-repo-notifier/internal/infra/metrics"
	"telegram-repo-notifier/internal/usecase"
)

const maxPayloadBytes = 1 << 20 // 1 MiB

// Server exposes the webhook receiver endpoints. GitLab and GitHub post
// deliveries here; the event-type header selects the decoder path.
type Server struct {
	router       *usecase.Router
	gitlabSecret string
	githubSecret string
	log          *zerolog.Logger
}

func NewServer(router *usecase.Router, gitlabSecret, githubSecret string, logger *zerolog.Logger) *Server {
	return &Server{
		router:       router,
		gitlabSecret: gitlabSecret,
		githubSecret: githubSecret,
		log:          logger,
	}
}

// Routes builds the chi router with all endpoints attached.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/webhook/gitlab", s.handleGitLab)
	r.Post("/webhook/github", s.handleGitHub)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

func (s *Server) handleGitLab(w http.ResponseWriter, r *http.Request) {
	eventType := r.Header.Get("X-Gitlab-Event")
	if eventType == "" {
		http.Error(w, "Missing X-Gitlab-Event header", http.StatusBadRequest)
		return
	}

	// TODO: compare X-Gitlab-Token against the configured secret once all
	// existing hooks have been re-provisioned with one.
	_ = r.Header.Get("X-Gitlab-Token")

	s.handleEvent(w, r, model.PlatformGitLab, eventType)
}

func (s *Server) handleGitHub(w http.ResponseWriter, r *http.Request) {
	eventType := r.Header.Get("X-GitHub-Event")
	if eventType == "" {
		http.Error(w, "Missing X-GitHub-Event header", http.StatusBadRequest)
		return
	}

	if s.githubSecret != "" && r.Header.Get("X-Hub-Signature-256") == "" {
		http.Error(w, "Missing signature", http.StatusUnauthorized)
		return
	}

	s.handleEvent(w, r, model.PlatformGitHub, eventType)
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request, platform model.Platform, eventType string) {
	start := time.Now()
	metrics.WebhookReceived(string(platform), eventType)

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		metrics.WebhookFailed(string(platform))
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	if err := s.router.HandleEvent(r.Context(), platform, eventType, payload); err != nil {
		s.log.Error().Err(err).
			Str("platform", string(platform)).
			Str("event", eventType).
			Msg("webhook processing failed")
		metrics.WebhookFailed(string(platform))
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	metrics.ObserveWebhookLatency(string(platform), float64(time.Since(start).Milliseconds()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok","service":"repo-notifier"}`))
}
