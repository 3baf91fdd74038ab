package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-repo-notifier/internal/domain"
	"telegram-repo-notifier/internal/domain/model"
	"telegram-repo-notifier/internal/domain/ports/repository"
)

var _ repository.NotificationRepository = (*PostgresNotificationRepo)(nil)

type PostgresNotificationRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresNotificationRepo(pool *pgxpool.Pool) *PostgresNotificationRepo {
	return &PostgresNotificationRepo{pool: pool}
}

const notifColumns = `
  id, user_id, platform, event_type, project_name,
  message, telegram_message_id, parent_id, meta, sent_at`

func (r *PostgresNotificationRepo) Save(ctx context.Context, tx repository.Tx, n *model.Notification) error {
	const q = `
INSERT INTO notifications (
  id, user_id, platform, event_type, project_name,
  message, telegram_message_id, parent_id, meta, sent_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10);`

	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	meta, err := json.Marshal(n.Meta)
	if err != nil {
		return err
	}
	var parent interface{}
	if n.ParentID != "" {
		parent = n.ParentID
	}
	_, err = ex.Exec(ctx, q,
		n.ID, n.UserID, string(n.Platform), n.EventType, n.ProjectName,
		n.Message, n.TelegramMessageID, parent, meta, n.SentAt)
	return err
}

func (r *PostgresNotificationRepo) FindRecent(ctx context.Context, tx repository.Tx, userID string, platform model.Platform, projectName string, limit int) ([]*model.Notification, error) {
	return r.findMany(ctx, tx, `
SELECT`+notifColumns+` FROM notifications
WHERE user_id=$1 AND platform=$2 AND project_name=$3
ORDER BY sent_at DESC LIMIT $4;`,
		userID, string(platform), projectName, limit)
}

func (r *PostgresNotificationRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.Notification, error) {
	return r.findMany(ctx, tx, `
SELECT`+notifColumns+` FROM notifications
WHERE user_id=$1
ORDER BY sent_at DESC LIMIT $2;`,
		userID, limit)
}

func (r *PostgresNotificationRepo) findMany(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Notification, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func scanNotification(row pgx.Row) (*model.Notification, error) {
	var (
		n        model.Notification
		platform string
		parent   *string
		meta     []byte
	)
	err := row.Scan(
		&n.ID, &n.UserID, &platform, &n.EventType, &n.ProjectName,
		&n.Message, &n.TelegramMessageID, &parent, &meta, &n.SentAt)
	if err != nil {
		return nil, err
	}
	n.Platform = model.Platform(platform)
	if parent != nil {
		n.ParentID = *parent
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &n.Meta); err != nil {
			return nil, err
		}
	}
	return &n, nil
}
