package usecase

import (
	"context"
	"errors"
	"testing"

	"telegram-repo-notifier/internal/domain/model"
)

func commentIntent(userID string, chatID int64, noteableID int64) NotificationIntent {
	return NotificationIntent{
		UserID:      userID,
		ChatID:      chatID,
		Platform:    model.PlatformGitLab,
		EventType:   EventTypeNote,
		ProjectName: "group/app",
		Message:     "a comment arrived",
		Meta:        model.NotificationMeta{NoteableID: noteableID},
	}
}

func TestDispatcher(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()

	t.Run("comment threads under the previous notification for the same object", func(t *testing.T) {
		transport := newFakeTransport()
		history := newMemNotificationRepo()
		d := NewDispatcher(transport, history, logger)

		d.Dispatch(ctx, nil, []NotificationIntent{commentIntent("u-1", 100, 5500)})
		if transport.sentCount() != 1 {
			t.Fatalf("expected 1 send, got %d", transport.sentCount())
		}
		d.Dispatch(ctx, nil, []NotificationIntent{commentIntent("u-1", 100, 5500)})
		if transport.sentCount() != 2 {
			t.Fatalf("expected 2 sends, got %d", transport.sentCount())
		}
		second := transport.sent[1]
		if second.Opts.ReplyTo == 0 {
			t.Error("second comment should reply to the first notification")
		}

		// The stored record carries the parent link.
		recent, _ := history.FindRecent(ctx, nil, "u-1", model.PlatformGitLab, "group/app", 10)
		if len(recent) != 2 {
			t.Fatalf("expected 2 history records, got %d", len(recent))
		}
		if recent[0].ParentID == "" {
			t.Error("newest record should reference its thread parent")
		}
	})

	t.Run("different objects do not thread", func(t *testing.T) {
		transport := newFakeTransport()
		history := newMemNotificationRepo()
		d := NewDispatcher(transport, history, logger)

		d.Dispatch(ctx, nil, []NotificationIntent{commentIntent("u-1", 100, 5500)})
		d.Dispatch(ctx, nil, []NotificationIntent{commentIntent("u-1", 100, 7700)})
		if transport.sent[1].Opts.ReplyTo != 0 {
			t.Error("unrelated comment must not thread")
		}
	})

	t.Run("non-comment events never thread", func(t *testing.T) {
		transport := newFakeTransport()
		history := newMemNotificationRepo()
		d := NewDispatcher(transport, history, logger)

		mrIntent := NotificationIntent{
			UserID: "u-1", ChatID: 100, Platform: model.PlatformGitLab,
			EventType: EventTypeReviewerAssigned, ProjectName: "group/app",
			Message: "review please", Meta: model.NotificationMeta{MRIID: 7},
		}
		d.Dispatch(ctx, nil, []NotificationIntent{mrIntent})
		d.Dispatch(ctx, nil, []NotificationIntent{mrIntent})
		if transport.sent[1].Opts.ReplyTo != 0 {
			t.Error("merge request events must not thread")
		}
	})

	t.Run("threaded send failure retries once without thread", func(t *testing.T) {
		transport := newFakeTransport()
		history := newMemNotificationRepo()
		d := NewDispatcher(transport, history, logger)

		d.Dispatch(ctx, nil, []NotificationIntent{commentIntent("u-1", 100, 5500)})

		transport.failNext = 1
		transport.err = errors.New("message to reply not found")
		d.Dispatch(ctx, nil, []NotificationIntent{commentIntent("u-1", 100, 5500)})

		if transport.sentCount() != 2 {
			t.Fatalf("expected the retry to go through, got %d sends", transport.sentCount())
		}
		if transport.sent[1].Opts.ReplyTo != 0 {
			t.Error("retry must be un-threaded")
		}
		recent, _ := history.FindRecent(ctx, nil, "u-1", model.PlatformGitLab, "group/app", 10)
		if recent[0].ParentID != "" {
			t.Error("retried send must not record a parent")
		}
	})

	t.Run("one failing send does not abort the rest", func(t *testing.T) {
		transport := newFakeTransport()
		history := newMemNotificationRepo()
		d := NewDispatcher(transport, history, logger)

		transport.failNext = 1
		transport.err = errors.New("chat not found")
		d.Dispatch(ctx, nil, []NotificationIntent{
			{UserID: "u-1", ChatID: 100, Platform: model.PlatformGitLab, EventType: EventTypeMRGeneral, ProjectName: "group/app", Message: "m1"},
			{UserID: "u-2", ChatID: 200, Platform: model.PlatformGitLab, EventType: EventTypeMRGeneral, ProjectName: "group/app", Message: "m2"},
		})
		if transport.sentCount() != 1 {
			t.Fatalf("expected the second intent to still go out, got %d sends", transport.sentCount())
		}
		if transport.sent[0].ChatID != 200 {
			t.Errorf("surviving send went to chat %d, want 200", transport.sent[0].ChatID)
		}
	})

	t.Run("history save failure does not fail the dispatch", func(t *testing.T) {
		transport := newFakeTransport()
		history := newMemNotificationRepo()
		history.saveErr = errors.New("db down")
		d := NewDispatcher(transport, history, logger)

		d.Dispatch(ctx, nil, []NotificationIntent{commentIntent("u-1", 100, 5500)})
		if transport.sentCount() != 1 {
			t.Fatalf("message should still be delivered, got %d sends", transport.sentCount())
		}
	})
}
