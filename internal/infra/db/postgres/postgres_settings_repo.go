package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-repo-notifier/internal/domain/model"
	"telegram-repo-notifier/internal/domain/ports/repository"
)

var _ repository.SettingsRepository = (*PostgresSettingsRepo)(nil)

type PostgresSettingsRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresSettingsRepo(pool *pgxpool.Pool) *PostgresSettingsRepo {
	return &PostgresSettingsRepo{pool: pool}
}

const settingsColumns = `
  id, user_id, mentions, general_updates, reviewer_assignment, merge,
  pipeline_completion, issue_assignment, label_changes, thread_updates,
  created_at, updated_at`

// GetOrCreate inserts the default row for the user when none exists yet.
// The UNIQUE constraint on user_id makes concurrent first reads converge
// on a single row.
func (r *PostgresSettingsRepo) GetOrCreate(ctx context.Context, tx repository.Tx, userID string) (*model.NotificationSettings, error) {
	const q = `
INSERT INTO notification_settings (
  id, user_id, mentions, general_updates, reviewer_assignment, merge,
  pipeline_completion, issue_assignment, label_changes, thread_updates,
  created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (user_id) DO UPDATE SET user_id=EXCLUDED.user_id
RETURNING` + settingsColumns + `;`

	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	def := model.DefaultNotificationSettings(userID)
	var s model.NotificationSettings
	err = ex.QueryRow(ctx, q,
		def.ID, def.UserID, def.Mentions, def.GeneralUpdates, def.ReviewerAssignment, def.Merge,
		def.PipelineCompletion, def.IssueAssignment, def.LabelChanges, def.ThreadUpdates,
		def.CreatedAt, def.UpdatedAt,
	).Scan(
		&s.ID, &s.UserID, &s.Mentions, &s.GeneralUpdates, &s.ReviewerAssignment, &s.Merge,
		&s.PipelineCompletion, &s.IssueAssignment, &s.LabelChanges, &s.ThreadUpdates,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PostgresSettingsRepo) Save(ctx context.Context, tx repository.Tx, s *model.NotificationSettings) error {
	const q = `
UPDATE notification_settings SET
  mentions=$2, general_updates=$3, reviewer_assignment=$4, merge=$5,
  pipeline_completion=$6, issue_assignment=$7, label_changes=$8, thread_updates=$9,
  updated_at=$10
WHERE id=$1;`

	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q,
		s.ID, s.Mentions, s.GeneralUpdates, s.ReviewerAssignment, s.Merge,
		s.PipelineCompletion, s.IssueAssignment, s.LabelChanges, s.ThreadUpdates,
		s.UpdatedAt)
	return err
}
