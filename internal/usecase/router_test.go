package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"telegram-repo-notifier/internal/domain/model"
	"telegram-repo-notifier/internal/domain/ports/adapter"
)

func newRouterHarness(t *testing.T, dec *stubDecoder) (*Router, *testFixture, *fakeTransport) {
	t.Helper()
	f := newTestFixture()
	transport := newFakeTransport()
	logger := newTestLogger()
	dispatcher := NewDispatcher(transport, f.history, logger)
	decoders := map[model.Platform]adapter.WebhookDecoder{
		model.PlatformGitLab: dec,
	}
	return NewRouter(f.engine, dispatcher, decoders, logger), f, transport
}

func TestRouterHandleEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown platform is an error", func(t *testing.T) {
		r, _, _ := newRouterHarness(t, &stubDecoder{})
		err := r.HandleEvent(ctx, model.PlatformGitHub, "push", []byte("{}"))
		if err == nil {
			t.Fatal("expected an error for a platform without a decoder")
		}
	})

	t.Run("decoder returning nil event is silently ignored", func(t *testing.T) {
		r, _, transport := newRouterHarness(t, &stubDecoder{event: nil})
		if err := r.HandleEvent(ctx, model.PlatformGitLab, "Push Hook", []byte("{}")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if transport.sentCount() != 0 {
			t.Errorf("nothing should be sent, got %d", transport.sentCount())
		}
	})

	t.Run("decode errors propagate with context", func(t *testing.T) {
		r, _, _ := newRouterHarness(t, &stubDecoder{err: errors.New("bad json")})
		err := r.HandleEvent(ctx, model.PlatformGitLab, "Note Hook", []byte("not json"))
		if err == nil {
			t.Fatal("expected decode error")
		}
		if !strings.Contains(err.Error(), "bad json") {
			t.Errorf("error %q should wrap the decoder failure", err)
		}
	})

	t.Run("unexpected event type from the decoder is an error", func(t *testing.T) {
		r, _, _ := newRouterHarness(t, &stubDecoder{event: struct{}{}})
		if err := r.HandleEvent(ctx, model.PlatformGitLab, "Note Hook", []byte("{}")); err == nil {
			t.Fatal("expected an error for an unclassifiable event type")
		}
	})

	t.Run("decoded event flows through classification to delivery", func(t *testing.T) {
		ev := &model.MergeRequestEvent{
			Platform:    model.PlatformGitLab,
			ProjectID:   "42",
			ProjectName: "group/app",
			Action:      model.MergeActionMerge,
			MR: model.ItemRef{
				IID:    7,
				Title:  "Add retries",
				URL:    "https://gitlab.example.com/group/app/-/merge_requests/7",
				Author: model.Actor{Username: "bob", Name: "Bob"},
			},
		}
		r, f, transport := newRouterHarness(t, &stubDecoder{event: ev})
		f.addSubscriber("u-bob", 100, model.PlatformGitLab, "bob", "42")

		if err := r.HandleEvent(ctx, model.PlatformGitLab, "Merge Request Hook", []byte("{}")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if transport.sentCount() != 1 {
			t.Fatalf("expected 1 delivery, got %d", transport.sentCount())
		}
		if got := transport.sent[0].ChatID; got != 100 {
			t.Errorf("delivered to chat %d, want 100", got)
		}
		if !strings.Contains(transport.sent[0].Text, "Add retries") {
			t.Errorf("message %q should mention the merge request title", transport.sent[0].Text)
		}
	})

	t.Run("zero intents is not an error", func(t *testing.T) {
		ev := &model.MergeRequestEvent{
			Platform:    model.PlatformGitLab,
			ProjectID:   "42",
			ProjectName: "group/app",
			Action:      model.MergeActionOpen,
			MR:          model.ItemRef{IID: 7, Author: model.Actor{Username: "bob"}},
		}
		// No subscribers registered at all.
		r, _, transport := newRouterHarness(t, &stubDecoder{event: ev})
		if err := r.HandleEvent(ctx, model.PlatformGitLab, "Merge Request Hook", []byte("{}")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if transport.sentCount() != 0 {
			t.Errorf("expected no deliveries, got %d", transport.sentCount())
		}
	})
}
