package usecase

import (
	"context"

	"telegram-repo-notifier/internal/domain/model"
	"telegram-repo-notifier/internal/domain/ports/adapter"
	"telegram-repo-notifier/internal/domain/ports/repository"
	"telegram-repo-notifier/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// threadLookupDepth is how many recent notifications are scanned when
// resolving a reply-to anchor for a comment event.
const threadLookupDepth = 10

// Dispatcher delivers notification intents over the chat transport, resolves
// thread continuation from notification history, and records every successful
// send. The transport is an injected dependency, never a package-level handle.
type Dispatcher struct {
	transport adapter.ChatTransport
	history   repository.NotificationRepository
	log       *zerolog.Logger
}

func NewDispatcher(transport adapter.ChatTransport, history repository.NotificationRepository, logger *zerolog.Logger) *Dispatcher {
	return &Dispatcher{transport: transport, history: history, log: logger}
}

// Dispatch sends each intent independently: a failure on one never aborts the
// rest. Failed sends are logged and dropped; there is no dead-letter queue.
func (d *Dispatcher) Dispatch(ctx context.Context, tx repository.Tx, intents []NotificationIntent) {
	for _, intent := range intents {
		if err := d.dispatchOne(ctx, tx, intent); err != nil {
			metrics.NotificationFailed(string(intent.Platform), intent.EventType)
			d.log.Error().Err(err).
				Str("user_id", intent.UserID).
				Str("event_type", intent.EventType).
				Msg("failed to deliver notification")
		}
	}
}

func (d *Dispatcher) dispatchOne(ctx context.Context, tx repository.Tx, intent NotificationIntent) error {
	replyTo := 0
	parentID := ""

	if IsCommentEventType(intent.EventType) {
		if parent := d.findThreadParent(ctx, tx, intent); parent != nil {
			replyTo = parent.TelegramMessageID
			parentID = parent.ID
		}
	}

	opts := adapter.SendOptions{
		ReplyTo:            replyTo,
		DisableLinkPreview: true,
		Buttons:            intent.Buttons,
	}
	msgID, err := d.transport.Send(ctx, intent.ChatID, intent.Message, opts)
	if err != nil && replyTo != 0 {
		// The anchor message may have been deleted; retry once un-threaded.
		d.log.Warn().Err(err).Int64("chat_id", intent.ChatID).Msg("threaded send failed, retrying without thread")
		opts.ReplyTo = 0
		parentID = ""
		msgID, err = d.transport.Send(ctx, intent.ChatID, intent.Message, opts)
	}
	if err != nil {
		return err
	}

	n := model.NewNotification(
		intent.UserID, intent.Platform, intent.EventType, intent.ProjectName,
		intent.Message, msgID, parentID, intent.Meta,
	)
	if err := d.history.Save(ctx, tx, n); err != nil {
		// The message is already out; history is best-effort from here.
		d.log.Error().Err(err).Str("user_id", intent.UserID).Msg("failed to record sent notification")
	}
	metrics.NotificationSent(string(intent.Platform), intent.EventType)
	return nil
}

// findThreadParent scans the recipient's recent notifications for one whose
// metadata references the same remote object. Lookup failures only disable
// threading; the notification still goes out.
func (d *Dispatcher) findThreadParent(ctx context.Context, tx repository.Tx, intent NotificationIntent) *model.Notification {
	recent, err := d.history.FindRecent(ctx, tx, intent.UserID, intent.Platform, intent.ProjectName, threadLookupDepth)
	if err != nil {
		d.log.Warn().Err(err).Str("user_id", intent.UserID).Msg("thread lookup failed")
		return nil
	}
	for _, prev := range recent {
		if prev.TelegramMessageID == 0 {
			continue
		}
		if intent.Meta.ReferencesSameObject(prev.Meta) {
			return prev
		}
	}
	return nil
}

// SendPlain delivers a one-off, un-threaded message outside the
// personalization flow. No history record is written; failure is logged by
// the caller.
func (d *Dispatcher) SendPlain(ctx context.Context, chatID int64, text string) error {
	_, err := d.transport.Send(ctx, chatID, text, adapter.SendOptions{DisableLinkPreview: true})
	return err
}
