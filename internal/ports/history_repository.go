package ports

import (
	"context"

	"github.com/bnema/bandit-cli/internal/domain"
)

type HistoryRepository interface {
	Load(ctx context.Context) ([]domain.HistoryEntry, error)
	Save(ctx context.Context, entries []domain.HistoryEntry) error
}
