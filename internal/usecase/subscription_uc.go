package usecase

import (
	"context"
	"fmt"

	"telegram-repo-notifier/internal/domain"
	"telegram-repo-notifier/internal/domain/model"
	"telegram-repo-notifier/internal/domain/ports/adapter"
	"telegram-repo-notifier/internal/domain/ports/repository"
	"telegram-repo-notifier/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

// SubscriptionUseCase manages project subscriptions and the webhooks
// provisioned for them on the remote side.
type SubscriptionUseCase interface {
	ListProjects(ctx context.Context, user *model.User, platform model.Platform) ([]adapter.Project, error)
	Subscribe(ctx context.Context, user *model.User, platform model.Platform, projectID, projectName string, categories []model.EventCategory) (*model.Subscription, error)
	Unsubscribe(ctx context.Context, user *model.User, subscriptionID string) error
	List(ctx context.Context, userID string) ([]*model.Subscription, error)
}

// WebhookURLs supplies the public ingress URLs registered on the remote side.
type WebhookURLs struct {
	GitLab       string
	GitHub       string
	GitLabSecret string
	GitHubSecret string
}

func (w WebhookURLs) forPlatform(p model.Platform) (url, secret string) {
	if p == model.PlatformGitHub {
		return w.GitHub, w.GitHubSecret
	}
	return w.GitLab, w.GitLabSecret
}

type subscriptionUC struct {
	subs      repository.SubscriptionRepository
	factories map[model.Platform]adapter.GitHostFactory
	urls      WebhookURLs
	log       *zerolog.Logger
}

func NewSubscriptionUseCase(subs repository.SubscriptionRepository, factories map[model.Platform]adapter.GitHostFactory, urls WebhookURLs, logger *zerolog.Logger) *subscriptionUC {
	return &subscriptionUC{subs: subs, factories: factories, urls: urls, log: logger}
}

func (s *subscriptionUC) client(user *model.User, platform model.Platform) (adapter.GitHostClient, error) {
	factory, ok := s.factories[platform]
	if !ok {
		return nil, domain.ErrInvalidArgument
	}
	token := user.PlatformToken(platform)
	if token == "" {
		return nil, domain.ErrNoPlatformToken
	}
	return factory(token), nil
}

func (s *subscriptionUC) ListProjects(ctx context.Context, user *model.User, platform model.Platform) ([]adapter.Project, error) {
	client, err := s.client(user, platform)
	if err != nil {
		return nil, err
	}
	return client.ListProjects(ctx)
}

// Subscribe creates or updates the subscription (idempotently, keyed on
// user+platform+project) and provisions a webhook on the remote side. A
// provisioning failure is logged and the subscription proceeds without a
// webhook id.
func (s *subscriptionUC) Subscribe(ctx context.Context, user *model.User, platform model.Platform, projectID, projectName string, categories []model.EventCategory) (*model.Subscription, error) {
	defer logging.TraceDuration(s.log, "SubscriptionUC.Subscribe")()

	sub, err := model.NewSubscription(user.ID, platform, projectID, projectName, categories)
	if err != nil {
		return nil, err
	}

	if hookID := s.provisionWebhook(ctx, user, platform, projectID, categories); hookID != "" {
		sub.WebhookID = hookID
	}

	if err := s.subs.Upsert(ctx, repository.NoTx, sub); err != nil {
		return nil, fmt.Errorf("save subscription: %w", err)
	}
	s.log.Info().Str("user_id", user.ID).Str("project_id", projectID).Str("platform", string(platform)).Msg("subscription saved")
	return sub, nil
}

// provisionWebhook reuses an existing hook pointing at our ingress URL before
// creating a new one. Returns "" when provisioning is impossible or fails.
func (s *subscriptionUC) provisionWebhook(ctx context.Context, user *model.User, platform model.Platform, projectID string, categories []model.EventCategory) string {
	url, secret := s.urls.forPlatform(platform)
	if url == "" {
		s.log.Warn().Str("platform", string(platform)).Msg("webhook public URL not configured, skipping provisioning")
		return ""
	}
	client, err := s.client(user, platform)
	if err != nil {
		s.log.Warn().Err(err).Msg("cannot provision webhook without platform client")
		return ""
	}

	hooks, err := client.ListHooks(ctx, projectID)
	if err != nil {
		s.log.Error().Err(err).Str("project_id", projectID).Msg("list hooks failed")
	}
	for _, h := range hooks {
		if h.URL == url {
			s.log.Info().Str("project_id", projectID).Str("hook_id", h.ID).Msg("reusing existing webhook")
			return h.ID
		}
	}

	hookID, err := client.CreateHook(ctx, projectID, url, secret, categories)
	if err != nil {
		s.log.Error().Err(err).Str("project_id", projectID).Msg("create hook failed, continuing without webhook id")
		return ""
	}
	s.log.Info().Str("project_id", projectID).Str("hook_id", hookID).Msg("webhook created")
	return hookID
}

func (s *subscriptionUC) Unsubscribe(ctx context.Context, user *model.User, subscriptionID string) error {
	subs, err := s.subs.FindByUser(ctx, repository.NoTx, user.ID)
	if err != nil {
		return err
	}
	var sub *model.Subscription
	for _, candidate := range subs {
		if candidate.ID == subscriptionID {
			sub = candidate
			break
		}
	}
	if sub == nil {
		return domain.ErrNotFound
	}

	if sub.WebhookID != "" {
		if client, err := s.client(user, sub.Platform); err == nil {
			if err := client.DeleteHook(ctx, sub.ProjectID, sub.WebhookID); err != nil {
				s.log.Error().Err(err).Str("hook_id", sub.WebhookID).Msg("delete hook failed")
			}
		}
	}

	return s.subs.Delete(ctx, repository.NoTx, sub.ID)
}

func (s *subscriptionUC) List(ctx context.Context, userID string) ([]*model.Subscription, error) {
	return s.subs.FindByUser(ctx, repository.NoTx, userID)
}
