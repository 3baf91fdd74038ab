package repository

import (
	"context"

	"telegram-repo-notifier/internal/domain/model"
)

// SubscriptionRepository is the port for project subscriptions.
type SubscriptionRepository interface {
	// Upsert creates or replaces the subscription keyed on
	// (user, platform, project), keeping the one-per-project invariant.
	// A blank WebhookID never clears a previously stored hook id.
	Upsert(ctx context.Context, tx Tx, sub *model.Subscription) error
	Delete(ctx context.Context, tx Tx, id string) error

	FindByUser(ctx context.Context, tx Tx, userID string) ([]*model.Subscription, error)
	FindByUserProject(ctx context.Context, tx Tx, userID string, platform model.Platform, projectID string) (*model.Subscription, error)

	// FindActiveByProject returns every active subscription for the project,
	// irrespective of which event categories it picked.
	FindActiveByProject(ctx context.Context, tx Tx, platform model.Platform, projectID string) ([]*model.Subscription, error)
}
