package usecase

import (
	"context"

	"telegram-repo-notifier/internal/domain/model"
	"telegram-repo-notifier/internal/domain/ports/repository"
)

// defaultHistoryLimit bounds the /history command output; maxHistoryLimit
// caps a user-supplied count so one command cannot build an oversized reply.
const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 50
)

// Compile-time check
var _ HistoryUseCase = (*historyUC)(nil)

type HistoryUseCase interface {
	Recent(ctx context.Context, userID string, limit int) ([]*model.Notification, error)
}

type historyUC struct {
	history repository.NotificationRepository
}

func NewHistoryUseCase(history repository.NotificationRepository) *historyUC {
	return &historyUC{history: history}
}

func (h *historyUC) Recent(ctx context.Context, userID string, limit int) ([]*model.Notification, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return h.history.FindByUser(ctx, repository.NoTx, userID, limit)
}
