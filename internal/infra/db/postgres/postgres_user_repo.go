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

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

const userColumns = `
  id, telegram_id, username, first_name, last_name,
  gitlab_token, github_token, gitlab_username, github_username,
  is_active, created_at, updated_at`

func (r *PostgresUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (
  id, telegram_id, username, first_name, last_name,
  gitlab_token, github_token, gitlab_username, github_username,
  is_active, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
) ON CONFLICT (id) DO UPDATE SET
  username=$3, first_name=$4, last_name=$5,
  gitlab_token=$6, github_token=$7, gitlab_username=$8, github_username=$9,
  is_active=$10, updated_at=$12;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q,
		u.ID, u.TelegramID, u.Username, u.FirstName, u.LastName,
		u.GitLabToken, u.GitHubToken, u.GitLabUsername, u.GitHubUsername,
		u.IsActive, u.CreatedAt, u.UpdatedAt)
	return err
}

func (r *PostgresUserRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	return r.findOne(ctx, tx, `SELECT`+userColumns+` FROM users WHERE telegram_id=$1;`, tgID)
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	return r.findOne(ctx, tx, `SELECT`+userColumns+` FROM users WHERE id=$1;`, id)
}

func (r *PostgresUserRepo) findOne(ctx context.Context, tx repository.Tx, q string, arg interface{}) (*model.User, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	var u model.User
	err = ex.QueryRow(ctx, q, arg).Scan(
		&u.ID, &u.TelegramID, &u.Username, &u.FirstName, &u.LastName,
		&u.GitLabToken, &u.GitHubToken, &u.GitLabUsername, &u.GitHubUsername,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
