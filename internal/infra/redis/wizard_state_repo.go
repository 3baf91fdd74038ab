package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"telegram-repo-notifier/internal/domain"
	"telegram-repo-notifier/internal/domain/ports/repository"
)

var _ repository.StateRepository = (*WizardStateRepo)(nil)

// WizardStateRepo keeps subscribe-wizard progress in Redis. Every write
// refreshes the TTL, so an abandoned wizard simply expires.
type WizardStateRepo struct {
	client *redClient
	ttl    time.Duration
}

func NewWizardStateRepo(client *redClient, ttl time.Duration) repository.StateRepository {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &WizardStateRepo{client: client, ttl: ttl}
}

func (s *WizardStateRepo) stateKey(tgID int64) string {
	return fmt.Sprintf("wizard_state:%d", tgID)
}

func (s *WizardStateRepo) SetState(ctx context.Context, tgID int64, state *repository.WizardState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.stateKey(tgID), data, s.ttl)
}

func (s *WizardStateRepo) GetState(ctx context.Context, tgID int64) (*repository.WizardState, error) {
	data, err := s.client.Get(ctx, s.stateKey(tgID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrWizardStateExpired
		}
		return nil, err
	}

	var state repository.WizardState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *WizardStateRepo) ClearState(ctx context.Context, tgID int64) error {
	return s.client.Del(ctx, s.stateKey(tgID))
}
