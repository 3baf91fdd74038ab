package usecase

import (
	"context"
	"fmt"

	"telegram-repo-notifier/internal/domain/model"
	"telegram-repo-notifier/internal/domain/ports/repository"
)

// ClassifyMergeRequest handles merge/pull-request events. Only subscribers
// whose subscription includes the merge/pull-request category are considered.
// Per subscriber, exactly one branch fires:
//
//  1. reviewer-assignment enabled, open/update action, subscriber is a
//     reviewer and not the author → "assigned as reviewer"
//  2. merge enabled, terminal merge action, subscriber is the author
//     → "your item was merged"
//  3. general-updates enabled → generic update carrying the raw action verb
func (e *Engine) ClassifyMergeRequest(ctx context.Context, tx repository.Tx, ev *model.MergeRequestEvent) ([]NotificationIntent, error) {
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
		if !sub.Subscription.HasCategory(mergeCategory(ev.Platform)) {
			e.log.Debug().Str("user_id", sub.User.ID).Msg("not subscribed to merge events")
			continue
		}

		settings, err := e.resolver.Settings(ctx, tx, sub.User.ID)
		if err != nil {
			e.log.Error().Err(err).Str("user_id", sub.User.ID).Msg("load settings failed, skipping subscriber")
			continue
		}

		isOpenOrUpdate := ev.Action == model.MergeActionOpen || ev.Action == model.MergeActionUpdate

		switch {
		case settings.ReviewerAssignment && isOpenOrUpdate &&
			ev.MR.HasReviewer(username) && username != ev.MR.Author.Username:
			intents = append(intents, NotificationIntent{
				UserID:      sub.User.ID,
				ChatID:      sub.User.TelegramID,
				Platform:    ev.Platform,
				EventType:   EventTypeReviewerAssigned,
				ProjectName: ev.ProjectName,
				Message:     renderReviewerAssigned(ev),
				Meta: model.NotificationMeta{
					MRIID:     ev.MR.IID,
					ProjectID: ev.ProjectID,
					URL:       ev.MR.URL,
					Action:    string(EventTypeReviewerAssigned),
				},
				Buttons: mrActionButtons(ev.Platform, ev.ProjectID, ev.MR.IID),
			})

		case settings.Merge && ev.Action == model.MergeActionMerge && username == ev.MR.Author.Username:
			intents = append(intents, NotificationIntent{
				UserID:      sub.User.ID,
				ChatID:      sub.User.TelegramID,
				Platform:    ev.Platform,
				EventType:   mergedEventType(ev.Platform),
				ProjectName: ev.ProjectName,
				Message:     renderMerged(ev),
				Meta: model.NotificationMeta{
					MRIID:     ev.MR.IID,
					ProjectID: ev.ProjectID,
					URL:       ev.MR.URL,
				},
			})

		case settings.GeneralUpdates:
			intents = append(intents, NotificationIntent{
				UserID:      sub.User.ID,
				ChatID:      sub.User.TelegramID,
				Platform:    ev.Platform,
				EventType:   generalEventType(ev.Platform),
				ProjectName: ev.ProjectName,
				Message:     renderMergeGeneral(ev),
				Meta: model.NotificationMeta{
					MRIID:     ev.MR.IID,
					ProjectID: ev.ProjectID,
					URL:       ev.MR.URL,
					Action:    ev.RawAction,
				},
			})
		}
	}
	return intents, nil
}

func mergeCategory(p model.Platform) model.EventCategory {
	if p == model.PlatformGitHub {
		return model.CategoryPullRequest
	}
	return model.CategoryMergeRequest
}

func mergedEventType(p model.Platform) string {
	if p == model.PlatformGitHub {
		return EventTypePRMerged
	}
	return EventTypeMRMerged
}

func generalEventType(p model.Platform) string {
	if p == model.PlatformGitHub {
		return EventTypePRGeneral
	}
	return EventTypeMRGeneral
}

func itemLabel(p model.Platform) string {
	if p == model.PlatformGitHub {
		return "PR"
	}
	return "MR"
}

func renderReviewerAssigned(ev *model.MergeRequestEvent) string {
	return fmt.Sprintf(
		"You were assigned as reviewer\n\n<b>Project:</b> %s\n<b>%s:</b> %s\n<b>Author:</b> %s\n<b>Branch:</b> %s → %s\n\n🔗 <a href='%s'>Open the %s</a>",
		ev.ProjectName, itemLabel(ev.Platform), ev.MR.Title, ev.MR.Author.Username,
		ev.SourceBranch, ev.TargetBranch, ev.MR.URL, itemLabel(ev.Platform),
	)
}

func renderMerged(ev *model.MergeRequestEvent) string {
	return fmt.Sprintf(
		"Your %s was merged!\n\n<b>Project:</b> %s\n<b>%s:</b> %s\n<b>Branch:</b> %s → %s\n\n<a href='%s'>Open the %s</a>",
		itemLabel(ev.Platform), ev.ProjectName, itemLabel(ev.Platform), ev.MR.Title,
		ev.SourceBranch, ev.TargetBranch, ev.MR.URL, itemLabel(ev.Platform),
	)
}

func renderMergeGeneral(ev *model.MergeRequestEvent) string {
	return fmt.Sprintf(
		"%s updated\n\n<b>Project:</b> %s\n<b>%s:</b> %s\n<b>Action:</b> %s\n<b>Author:</b> %s\n\n<a href='%s'>Open the %s</a>",
		itemLabel(ev.Platform), ev.ProjectName, itemLabel(ev.Platform), ev.MR.Title,
		ev.RawAction, ev.MR.Author.Username, ev.MR.URL, itemLabel(ev.Platform),
	)
}
