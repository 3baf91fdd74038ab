package usecase

import (
	"context"
	"fmt"

	"telegram-repo-notifier/internal/domain/model"
	"telegram-repo-notifier/internal/domain/ports/repository"
)

// ClassifyPipeline handles pipeline/workflow completion. Non-terminal
// statuses and runs with no associated merge requests produce nothing. For
// each associated item, only the subscriber who authored it is notified, and
// only when pipeline-completion is enabled in their settings.
func (e *Engine) ClassifyPipeline(ctx context.Context, tx repository.Tx, ev *model.PipelineEvent) ([]NotificationIntent, error) {
	if ev == nil || !ev.Status.Terminal() || len(ev.MergeRequests) == 0 {
		return nil, nil
	}

	subscribers, err := e.resolver.SubscribedUsers(ctx, tx, ev.Platform, ev.ProjectID)
	if err != nil {
		return nil, err
	}

	var intents []NotificationIntent
	for _, mr := range ev.MergeRequests {
		for _, sub := range subscribers {
			username := sub.User.PlatformUsername(ev.Platform)
			if username == "" || username != mr.Author.Username {
				continue
			}

			settings, err := e.resolver.Settings(ctx, tx, sub.User.ID)
			if err != nil {
				e.log.Error().Err(err).Str("user_id", sub.User.ID).Msg("load settings failed, skipping subscriber")
				continue
			}
			if !settings.PipelineCompletion {
				continue
			}

			intents = append(intents, NotificationIntent{
				UserID:      sub.User.ID,
				ChatID:      sub.User.TelegramID,
				Platform:    ev.Platform,
				EventType:   pipelineEventType(ev.Platform),
				ProjectName: ev.ProjectName,
				Message:     renderPipeline(ev, mr),
				Meta: model.NotificationMeta{
					PipelineID: ev.PipelineID,
					MRIID:      mr.IID,
					ProjectID:  ev.ProjectID,
					Status:     string(ev.Status),
					URL:        mr.URL,
				},
			})
			e.log.Info().Str("user_id", sub.User.ID).Str("status", string(ev.Status)).Msg("pipeline notification created")
		}
	}
	return intents, nil
}

func pipelineEventType(p model.Platform) string {
	if p == model.PlatformGitHub {
		return EventTypeWorkflowDone
	}
	return EventTypePipelineDone
}

func renderPipeline(ev *model.PipelineEvent, mr model.ItemRef) string {
	runLabel := "Pipeline"
	if ev.Platform == model.PlatformGitHub {
		runLabel = "Workflow"
	}
	name := ""
	if ev.Name != "" {
		name = fmt.Sprintf("<b>%s:</b> %s\n", runLabel, ev.Name)
	}
	return fmt.Sprintf(
		"%s %s\n\n<b>Project:</b> %s\n<b>%s:</b> %s\n%s<b>Branch:</b> %s\n<b>Run:</b> #%d\n\n<a href='%s'>Open the %s</a>",
		runLabel, ev.Status.Phrase(), ev.ProjectName, itemLabel(ev.Platform), mr.Title,
		name, ev.Ref, ev.PipelineID, mr.URL, itemLabel(ev.Platform),
	)
}
