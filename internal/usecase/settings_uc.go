package usecase

import (
	"context"

	"telegram-repo-notifier/internal/domain/model"
	"telegram-repo-notifier/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ SettingsUseCase = (*settingsUC)(nil)

// SettingsUseCase drives the /notifications toggle flow.
type SettingsUseCase interface {
	Get(ctx context.Context, userID string) (*model.NotificationSettings, error)
	Toggle(ctx context.Context, userID string, category model.SettingsCategory) (*model.NotificationSettings, error)
	SetAll(ctx context.Context, userID string, on bool) (*model.NotificationSettings, error)
}

type settingsUC struct {
	settings repository.SettingsRepository
	log      *zerolog.Logger
}

func NewSettingsUseCase(settings repository.SettingsRepository, logger *zerolog.Logger) *settingsUC {
	return &settingsUC{settings: settings, log: logger}
}

func (s *settingsUC) Get(ctx context.Context, userID string) (*model.NotificationSettings, error) {
	return s.settings.GetOrCreate(ctx, repository.NoTx, userID)
}

func (s *settingsUC) Toggle(ctx context.Context, userID string, category model.SettingsCategory) (*model.NotificationSettings, error) {
	cfg, err := s.settings.GetOrCreate(ctx, repository.NoTx, userID)
	if err != nil {
		return nil, err
	}
	on, err := cfg.Toggle(category)
	if err != nil {
		return nil, err
	}
	if err := s.settings.Save(ctx, repository.NoTx, cfg); err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", userID).Str("category", string(category)).Bool("enabled", on).Msg("notification toggle changed")
	return cfg, nil
}

func (s *settingsUC) SetAll(ctx context.Context, userID string, on bool) (*model.NotificationSettings, error) {
	cfg, err := s.settings.GetOrCreate(ctx, repository.NoTx, userID)
	if err != nil {
		return nil, err
	}
	cfg.SetAll(on)
	if err := s.settings.Save(ctx, repository.NoTx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
