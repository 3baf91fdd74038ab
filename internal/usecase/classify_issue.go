package usecase

import (
	"context"
	"fmt"
	"strings"

	"telegram-repo-notifier/internal/domain/model"
	"telegram-repo-notifier/internal/domain/ports/repository"
)

// ClassifyIssue handles issue lifecycle events. Every subscriber with
// issue-assignment enabled is notified, not just assignees; the broad
// fan-out is deliberate. The one exception: the issue's own author is not
// told about their own freshly-created issue.
func (e *Engine) ClassifyIssue(ctx context.Context, tx repository.Tx, ev *model.IssueEvent) ([]NotificationIntent, error) {
	if ev == nil {
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

		settings, err := e.resolver.Settings(ctx, tx, sub.User.ID)
		if err != nil {
			e.log.Error().Err(err).Str("user_id", sub.User.ID).Msg("load settings failed, skipping subscriber")
			continue
		}
		if !settings.IssueAssignment {
			continue
		}
		if username == ev.Issue.Author.Username && ev.Action == model.IssueActionOpen {
			continue
		}

		intents = append(intents, NotificationIntent{
			UserID:      sub.User.ID,
			ChatID:      sub.User.TelegramID,
			Platform:    ev.Platform,
			EventType:   EventTypeIssueAssigned,
			ProjectName: ev.ProjectName,
			Message:     renderIssue(ev),
			Meta: model.NotificationMeta{
				IssueIID:  ev.Issue.IID,
				ProjectID: ev.ProjectID,
				URL:       ev.Issue.URL,
				Action:    ev.RawAction,
			},
		})
	}
	return intents, nil
}

func renderIssue(ev *model.IssueEvent) string {
	assignees := "None"
	if len(ev.Issue.Assignees) > 0 {
		names := make([]string, 0, len(ev.Issue.Assignees))
		for _, a := range ev.Issue.Assignees {
			names = append(names, a.Username)
		}
		assignees = strings.Join(names, ", ")
	}
	return fmt.Sprintf(
		"Issue activity\n\n<b>Action:</b> %s\n<b>Project:</b> %s\n<b>Issue:</b> %s\n<b>Author:</b> %s\n<b>Assignees:</b> %s\n\n<a href='%s'>Open the issue</a>",
		ev.RawAction, ev.ProjectName, ev.Issue.Title, ev.Issue.Author.Username, assignees, ev.Issue.URL,
	)
}
