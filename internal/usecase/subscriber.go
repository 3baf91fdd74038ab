package usecase

import (
	"context"
	"errors"
	"fmt"

	"telegram-repo-notifier/internal/domain"
	"telegram-repo-notifier/internal/domain/model"
	"telegram-repo-notifier/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// Subscriber pairs a user with their subscription to the project an event
// belongs to.
type Subscriber struct {
	User         *model.User
	Subscription *model.Subscription
}

// SubscriberResolver looks up which local accounts are subscribed to a remote
// project and fetches (lazily creating) their notification settings.
type SubscriberResolver struct {
	users    repository.UserRepository
	subs     repository.SubscriptionRepository
	settings repository.SettingsRepository
	log      *zerolog.Logger
}

func NewSubscriberResolver(
	users repository.UserRepository,
	subs repository.SubscriptionRepository,
	settings repository.SettingsRepository,
	logger *zerolog.Logger,
) *SubscriberResolver {
	return &SubscriberResolver{users: users, subs: subs, settings: settings, log: logger}
}

// SubscribedUsers returns every user with an active subscription matching
// (platform, projectID). Category filtering happens downstream per classifier.
// No duplicates occur: one subscription per user per project is a storage
// invariant. Subscriptions whose user record is gone are skipped.
func (r *SubscriberResolver) SubscribedUsers(ctx context.Context, tx repository.Tx, platform model.Platform, projectID string) ([]Subscriber, error) {
	subs, err := r.subs.FindActiveByProject(ctx, tx, platform, projectID)
	if err != nil {
		return nil, fmt.Errorf("find subscriptions for project %s: %w", projectID, err)
	}

	out := make([]Subscriber, 0, len(subs))
	for _, sub := range subs {
		user, err := r.users.FindByID(ctx, tx, sub.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				r.log.Warn().Str("user_id", sub.UserID).Str("project_id", projectID).Msg("subscription references missing user")
				continue
			}
			return nil, fmt.Errorf("find user %s: %w", sub.UserID, err)
		}
		out = append(out, Subscriber{User: user, Subscription: sub})
	}

	r.log.Debug().Str("project_id", projectID).Str("platform", string(platform)).Int("subscribers", len(out)).Msg("resolved subscribers")
	return out, nil
}

// Settings fetches the user's notification settings, creating the default row
// on first access. Safe under concurrent invocation for the same user.
func (r *SubscriberResolver) Settings(ctx context.Context, tx repository.Tx, userID string) (*model.NotificationSettings, error) {
	return r.settings.GetOrCreate(ctx, tx, userID)
}
