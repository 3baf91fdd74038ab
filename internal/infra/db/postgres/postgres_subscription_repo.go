package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-repo-notifier/internal/domain"
	"telegram-repo-notifier/internal/domain/model"
	"telegram-repo-notifier/internal/domain/ports/repository"
)

var _ repository.SubscriptionRepository = (*PostgresSubscriptionRepo)(nil)

type PostgresSubscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresSubscriptionRepo(pool *pgxpool.Pool) *PostgresSubscriptionRepo {
	return &PostgresSubscriptionRepo{pool: pool}
}

const subColumns = `
  id, user_id, platform, project_id, project_name,
  categories, webhook_id, is_active, created_at`

// Upsert keys on (user_id, platform, project_id) so re-subscribing a
// project replaces the category selection instead of duplicating rows.
func (r *PostgresSubscriptionRepo) Upsert(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (
  id, user_id, platform, project_id, project_name,
  categories, webhook_id, is_active, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (user_id, platform, project_id) DO UPDATE SET
  project_name=$5, categories=$6,
  webhook_id=COALESCE(NULLIF($7, ''), subscriptions.webhook_id),
  is_active=$8;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	cats := make([]string, len(s.Categories))
	for i, c := range s.Categories {
		cats[i] = string(c)
	}
	_, err = ex.Exec(ctx, q,
		s.ID, s.UserID, string(s.Platform), s.ProjectID, s.ProjectName,
		cats, s.WebhookID, s.IsActive, s.CreatedAt)
	return err
}

func (r *PostgresSubscriptionRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, `DELETE FROM subscriptions WHERE id=$1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresSubscriptionRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Subscription, error) {
	return r.findMany(ctx, tx,
		`SELECT`+subColumns+` FROM subscriptions WHERE user_id=$1 ORDER BY created_at;`, userID)
}

func (r *PostgresSubscriptionRepo) FindByUserProject(ctx context.Context, tx repository.Tx, userID string, platform model.Platform, projectID string) (*model.Subscription, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	row := ex.QueryRow(ctx,
		`SELECT`+subColumns+` FROM subscriptions WHERE user_id=$1 AND platform=$2 AND project_id=$3;`,
		userID, string(platform), projectID)
	s, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *PostgresSubscriptionRepo) FindActiveByProject(ctx context.Context, tx repository.Tx, platform model.Platform, projectID string) ([]*model.Subscription, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx,
		`SELECT`+subColumns+` FROM subscriptions WHERE platform=$1 AND project_id=$2 AND is_active;`,
		string(platform), projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSubscriptions(rows)
}

func (r *PostgresSubscriptionRepo) findMany(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Subscription, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSubscriptions(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubscription(row rowScanner) (*model.Subscription, error) {
	var (
		s        model.Subscription
		platform string
		cats     []string
	)
	err := row.Scan(
		&s.ID, &s.UserID, &platform, &s.ProjectID, &s.ProjectName,
		&cats, &s.WebhookID, &s.IsActive, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.Platform = model.Platform(platform)
	s.Categories = make([]model.EventCategory, len(cats))
	for i, c := range cats {
		s.Categories[i] = model.EventCategory(c)
	}
	return &s, nil
}

func collectSubscriptions(rows pgx.Rows) ([]*model.Subscription, error) {
	var out []*model.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
