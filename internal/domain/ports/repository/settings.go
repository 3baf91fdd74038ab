package repository

import (
	"context"

	"telegram-repo-notifier/internal/domain/model"
)

// SettingsRepository is the port for per-user notification toggles.
type SettingsRepository interface {
	// GetOrCreate fetches the settings row for the user, creating the default
	// row (all toggles on) if none exists. Implementations must be idempotent
	// under concurrent first-time lookups for the same user; Postgres does
	// this with an upsert against the unique user_id constraint.
	GetOrCreate(ctx context.Context, tx Tx, userID string) (*model.NotificationSettings, error)
	Save(ctx context.Context, tx Tx, s *model.NotificationSettings) error
}
