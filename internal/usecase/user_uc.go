package usecase

import (
	"context"
	"errors"
	"fmt"

	"telegram-repo-notifier/internal/domain"
	"telegram-repo-notifier/internal/domain/model"
	"telegram-repo-notifier/internal/domain/ports/adapter"
	"telegram-repo-notifier/internal/domain/ports/repository"
	"telegram-repo-notifier/internal/infra/logging"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// UserUseCase exposes user-related operations used by the bot flows.
type UserUseCase interface {
	RegisterOrFetch(ctx context.Context, tgID int64, username, firstName, lastName string) (*model.User, error)
	GetByTelegramID(ctx context.Context, tgID int64) (*model.User, error)
	// LinkPlatformToken validates the token against the platform's "current
	// identity" endpoint and stores it with the resolved username.
	LinkPlatformToken(ctx context.Context, tgID int64, platform model.Platform, token string) (resolvedUsername string, err error)
}

type userUC struct {
	users     repository.UserRepository
	tm        repository.TransactionManager
	factories map[model.Platform]adapter.GitHostFactory
	log       *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, tm repository.TransactionManager, factories map[model.Platform]adapter.GitHostFactory, logger *zerolog.Logger) *userUC {
	return &userUC{users: users, tm: tm, factories: factories, log: logger}
}

func (u *userUC) RegisterOrFetch(ctx context.Context, tgID int64, username, firstName, lastName string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.RegisterOrFetch")()

	var user *model.User
	// The read and the write form one atomic unit, so two concurrent /start
	// commands cannot create two accounts for the same chat.
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		usr, err := u.users.FindByTelegramID(ctx, tx, tgID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		if usr != nil {
			changed := false
			if username != "" && usr.Username != username {
				usr.Username = username
				changed = true
			}
			if firstName != "" && usr.FirstName != firstName {
				usr.FirstName = firstName
				changed = true
			}
			if changed {
				usr.Touch()
				if err := u.users.Save(ctx, tx, usr); err != nil {
					return err
				}
			}
			user = usr
			return nil
		}

		nu, err := model.NewUser("", tgID, username, firstName, lastName)
		if err != nil {
			return err
		}
		if err := u.users.Save(ctx, tx, nu); err != nil {
			return err
		}
		user = nu
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("register or fetch user: %w", err)
	}
	return user, nil
}

func (u *userUC) GetByTelegramID(ctx context.Context, tgID int64) (*model.User, error) {
	return u.users.FindByTelegramID(ctx, repository.NoTx, tgID)
}

func (u *userUC) LinkPlatformToken(ctx context.Context, tgID int64, platform model.Platform, token string) (string, error) {
	defer logging.TraceDuration(u.log, "UserUC.LinkPlatformToken")()

	if token == "" || !platform.Valid() {
		return "", domain.ErrInvalidArgument
	}
	factory, ok := u.factories[platform]
	if !ok {
		return "", domain.ErrInvalidArgument
	}

	identity, err := factory(token).CurrentUser(ctx)
	if err != nil {
		return "", fmt.Errorf("validate %s token: %w", platform, err)
	}

	user, err := u.users.FindByTelegramID(ctx, repository.NoTx, tgID)
	if err != nil {
		return "", err
	}
	if err := user.SetPlatformCredentials(platform, token, identity.Username); err != nil {
		return "", err
	}
	if err := u.users.Save(ctx, repository.NoTx, user); err != nil {
		return "", err
	}

	u.log.Info().Int64("tg_id", tgID).Str("platform", string(platform)).Str("username", identity.Username).Msg("platform token linked")
	return identity.Username, nil
}
