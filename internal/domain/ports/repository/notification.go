package repository

import (
	"context"

	"telegram-repo-notifier/internal/domain/model"
)

// -----------------------------
// Notification history
// -----------------------------

type NotificationRepository interface {
	// Save records that a notification was sent. Records are append-only.
	Save(ctx context.Context, tx Tx, n *model.Notification) error

	// FindRecent returns up to limit notifications for the recipient on the
	// given platform and project, most recent first. Used for thread
	// continuation lookups.
	FindRecent(ctx context.Context, tx Tx, userID string, platform model.Platform, projectName string, limit int) ([]*model.Notification, error)

	// FindByUser returns the user's latest notifications across all projects.
	FindByUser(ctx context.Context, tx Tx, userID string, limit int) ([]*model.Notification, error)
}
