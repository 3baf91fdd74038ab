package usecase

import (
	"context"
	"fmt"

	"telegram-repo-notifier/internal/domain"
	"telegram-repo-notifier/internal/domain/model"
	"telegram-repo-notifier/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ ActionsUseCase = (*actionsUC)(nil)

// ActionsUseCase executes the inline-button actions on merge requests (approve,
// merge, retry pipeline) with the acting user's own token.
type ActionsUseCase interface {
	Approve(ctx context.Context, user *model.User, platform model.Platform, projectID string, iid int64) error
	Merge(ctx context.Context, user *model.User, platform model.Platform, projectID string, iid int64) error
	RetryPipeline(ctx context.Context, user *model.User, platform model.Platform, projectID string, iid int64) error
}

type actionsUC struct {
	factories map[model.Platform]adapter.GitHostFactory
	log       *zerolog.Logger
}

func NewActionsUseCase(factories map[model.Platform]adapter.GitHostFactory, logger *zerolog.Logger) *actionsUC {
	return &actionsUC{factories: factories, log: logger}
}

func (a *actionsUC) client(user *model.User, platform model.Platform) (adapter.GitHostClient, error) {
	factory, ok := a.factories[platform]
	if !ok {
		return nil, domain.ErrInvalidArgument
	}
	token := user.PlatformToken(platform)
	if token == "" {
		return nil, domain.ErrNoPlatformToken
	}
	return factory(token), nil
}

func (a *actionsUC) Approve(ctx context.Context, user *model.User, platform model.Platform, projectID string, iid int64) error {
	client, err := a.client(user, platform)
	if err != nil {
		return err
	}
	if err := client.ApproveMergeRequest(ctx, projectID, iid); err != nil {
		return fmt.Errorf("approve %s!%d: %w", projectID, iid, err)
	}
	a.log.Info().Str("user_id", user.ID).Str("project_id", projectID).Int64("iid", iid).Msg("merge request approved")
	return nil
}

func (a *actionsUC) Merge(ctx context.Context, user *model.User, platform model.Platform, projectID string, iid int64) error {
	client, err := a.client(user, platform)
	if err != nil {
		return err
	}
	if err := client.MergeMergeRequest(ctx, projectID, iid); err != nil {
		return fmt.Errorf("merge %s!%d: %w", projectID, iid, err)
	}
	a.log.Info().Str("user_id", user.ID).Str("project_id", projectID).Int64("iid", iid).Msg("merge request merged")
	return nil
}

func (a *actionsUC) RetryPipeline(ctx context.Context, user *model.User, platform model.Platform, projectID string, iid int64) error {
	client, err := a.client(user, platform)
	if err != nil {
		return err
	}
	if err := client.RetryLatestPipeline(ctx, projectID, iid); err != nil {
		return fmt.Errorf("retry pipeline for %s!%d: %w", projectID, iid, err)
	}
	return nil
}
