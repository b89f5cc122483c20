package ports

import (
	"context"

	"github.com/bnema/bandit-cli/internal/domain"
)

type SessionRepository interface {
	GetByID(ctx context.Context, id domain.SessionID) (domain.Session, error)
	List(ctx context.Context) ([]domain.Session, error)
	Save(ctx context.Context, session domain.Session) error
	Delete(ctx context.Context, id domain.SessionID) error
}
