package web

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"telegram-repo-notifier/internal/domain/model"
	"telegram-repo-notifier/internal/domain/ports/adapter"
	"telegram-repo-notifier/internal/usecase"
)

// ignoreDecoder drops every delivery as unhandled.
type ignoreDecoder struct{}

func (ignoreDecoder) Decode(eventType string, payload []byte) (any, error) { return nil, nil }

// failDecoder rejects every delivery.
type failDecoder struct{}

func (failDecoder) Decode(eventType string, payload []byte) (any, error) {
	return nil, errors.New("malformed payload")
}

func newTestServer(t *testing.T, dec adapter.WebhookDecoder, gitlabSecret, githubSecret string) http.Handler {
	t.Helper()
	logger := zerolog.New(io.Discard)
	decoders := map[model.Platform]adapter.WebhookDecoder{
		model.PlatformGitLab: dec,
		model.PlatformGitHub: dec,
	}
	router := usecase.NewRouter(nil, nil, decoders, &logger)
	return NewServer(router, gitlabSecret, githubSecret, &logger).Routes()
}

func TestWebhookEndpoints(t *testing.T) {
	t.Run("gitlab delivery without event header is rejected", func(t *testing.T) {
		h := newTestServer(t, ignoreDecoder{}, "", "")
		req := httptest.NewRequest(http.MethodPost, "/webhook/gitlab", strings.NewReader("{}"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("unhandled gitlab event type still returns 200", func(t *testing.T) {
		h := newTestServer(t, ignoreDecoder{}, "", "")
		req := httptest.NewRequest(http.MethodPost, "/webhook/gitlab", strings.NewReader("{}"))
		req.Header.Set("X-Gitlab-Event", "Push Hook")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
		if rec.Body.String() != "OK" {
			t.Errorf("body = %q", rec.Body.String())
		}
	})

	t.Run("decode failure returns 500", func(t *testing.T) {
		h := newTestServer(t, failDecoder{}, "", "")
		req := httptest.NewRequest(http.MethodPost, "/webhook/gitlab", strings.NewReader("not json"))
		req.Header.Set("X-Gitlab-Event", "Note Hook")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}
	})

	t.Run("github delivery without event header is rejected", func(t *testing.T) {
		h := newTestServer(t, ignoreDecoder{}, "", "")
		req := httptest.NewRequest(http.MethodPost, "/webhook/github", strings.NewReader("{}"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("github signature required when secret configured", func(t *testing.T) {
		h := newTestServer(t, ignoreDecoder{}, "", "hook-secret")
		req := httptest.NewRequest(http.MethodPost, "/webhook/github", strings.NewReader("{}"))
		req.Header.Set("X-GitHub-Event", "pull_request")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}

		req.Header.Set("X-Hub-Signature-256", "sha256=deadbeef")
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status with signature = %d, want 200", rec.Code)
		}
	})

	t.Run("github delivery accepted without secret", func(t *testing.T) {
		h := newTestServer(t, ignoreDecoder{}, "", "")
		req := httptest.NewRequest(http.MethodPost, "/webhook/github", strings.NewReader("{}"))
		req.Header.Set("X-GitHub-Event", "star")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestServer(t, ignoreDecoder{}, "", "")
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %q", rec.Body.String())
	}
}
