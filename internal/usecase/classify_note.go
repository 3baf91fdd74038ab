package usecase

import (
	"context"
	"fmt"

	"telegram-repo-notifier/internal/domain/model"
	"telegram-repo-notifier/internal/domain/ports/repository"
)

// notePreviewLen bounds the comment body excerpt in rendered messages.
const notePreviewLen = 300

// ClassifyNote decides, per subscriber, whether a comment warrants a
// notification. The comment's own author is never a recipient; users without
// a linked username on the event's platform are skipped. The first matching
// reason wins, so at most one notification per subscriber per event:
//
//  1. mentions enabled and the user is textually mentioned
//  2. thread-updates enabled and the user authored the item
//  3. thread-updates enabled and the user is a reviewer
//  4. thread-updates enabled and the user is an assignee
func (e *Engine) ClassifyNote(ctx context.Context, tx repository.Tx, ev *model.NoteEvent) ([]NotificationIntent, error) {
	if ev == nil || !ev.HasTarget {
		return nil, nil
	}

	subscribers, err := e.resolver.SubscribedUsers(ctx, tx, ev.Platform, ev.ProjectID)
	if err != nil {
		return nil, err
	}

	var intents []NotificationIntent
	for _, sub := range subscribers {
		username := sub.User.PlatformUsername(ev.Platform)
		if username == "" {
			continue
		}
		if username == ev.Author.Username {
			continue
		}

		settings, err := e.resolver.Settings(ctx, tx, sub.User.ID)
		if err != nil {
			e.log.Error().Err(err).Str("user_id", sub.User.ID).Msg("load settings failed, skipping subscriber")
			continue
		}

		var reason string
		switch {
		case settings.Mentions && IsMentioned(ev.Body, sub.User):
			reason = "💬 You were mentioned in a comment"
		case settings.ThreadUpdates && username == ev.Target.Author.Username:
			reason = "💬 New comment on your " + noteableLabel(ev)
		case settings.ThreadUpdates && ev.Target.HasReviewer(username):
			reason = "💬 New comment on a " + noteableLabel(ev) + " you review"
		case settings.ThreadUpdates && ev.Target.HasAssignee(username):
			reason = "💬 New comment on a " + noteableLabel(ev) + " assigned to you"
		default:
			continue
		}

		intents = append(intents, NotificationIntent{
			UserID:      sub.User.ID,
			ChatID:      sub.User.TelegramID,
			Platform:    ev.Platform,
			EventType:   noteEventType(ev.Platform),
			ProjectName: ev.ProjectName,
			Message:     renderNote(reason, ev),
			Meta: model.NotificationMeta{
				NoteID:       ev.NoteID,
				NoteableType: ev.NoteableType,
				NoteableID:   ev.NoteableID,
				ProjectID:    ev.ProjectID,
				URL:          ev.URL,
			},
		})
		e.log.Info().Str("user_id", sub.User.ID).Str("reason", reason).Msg("note notification created")
	}
	return intents, nil
}

func noteEventType(p model.Platform) string {
	if p == model.PlatformGitHub {
		return EventTypeIssueComment
	}
	return EventTypeNote
}

func noteableLabel(ev *model.NoteEvent) string {
	if ev.NoteableType != "" {
		return ev.NoteableType
	}
	return "item"
}

func renderNote(reason string, ev *model.NoteEvent) string {
	author := ev.Author.Name
	if author == "" {
		author = ev.Author.Username
	}
	return fmt.Sprintf(
		"%s\n\n<b>Project:</b> %s\n<b>%s:</b> %s\n<b>Comment author:</b> %s\n\n<b>Comment:</b>\n<code>%s</code>\n\n<a href='%s'>Open the discussion</a>",
		reason, ev.ProjectName, noteableLabel(ev), ev.Target.Title, author, truncate(ev.Body, notePreviewLen), ev.URL,
	)
}
