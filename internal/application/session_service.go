package application

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/bnema/bandit-cli/internal/domain"
	"github.com/bnema/bandit-cli/internal/ports"
)

// SessionService is the durable catalog of known remote targets. Descriptors
// are only ever removed by an explicit user action.
type SessionService struct {
	repo  ports.SessionRepository
	clock ports.Clock

	// serializes read-modify-write cycles so two concurrent updates to the
	// same descriptor cannot lose each other's change
	updateMu sync.Mutex
}

func NewSessionService(repo ports.SessionRepository, clock ports.Clock) *SessionService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &SessionService{repo: repo, clock: clock}
}

func (s *SessionService) Create(ctx context.Context, name, hostname string, port int, username string) (domain.Session, error) {
	now := s.clock.Now()
	session := domain.Session{
		ID:         domain.SessionID(uuid.NewString()),
		Name:       strings.TrimSpace(name),
		Hostname:   strings.TrimSpace(hostname),
		Port:       port,
		Username:   strings.TrimSpace(username),
		CreatedAt:  now,
		LastUsedAt: now,
	}
	if session.Name == "" {
		session.Name = fmt.Sprintf("%s@%s", session.Username, session.Hostname)
	}
	if err := session.Validate(); err != nil {
		return domain.Session{}, err
	}

	if err := s.repo.Save(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// Update applies a field change and bumps last-used. The full
// read-modify-write cycle is serialized and the file is replaced atomically,
// so a crash mid-update cannot leave a half-written store.
func (s *SessionService) Update(ctx context.Context, id domain.SessionID, mutate func(*domain.Session)) (domain.Session, error) {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Session{}, fmt.Errorf("get session by id: %w", err)
	}

	if mutate != nil {
		mutate(&session)
	}
	session.ID = id
	session.LastUsedAt = s.clock.Now()

	if err := session.Validate(); err != nil {
		return domain.Session{}, err
	}
	if err := s.repo.Save(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// Touch bumps the last-used timestamp after a successful connect.
func (s *SessionService) Touch(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	return s.Update(ctx, id, nil)
}

// SetLevel records the last-known exercise position.
func (s *SessionService) SetLevel(ctx context.Context, id domain.SessionID, level int) (domain.Session, error) {
	return s.Update(ctx, id, func(session *domain.Session) {
		session.Level = level
	})
}

// List returns descriptors most recently used first; the head is the one
// "resume last session" picks.
func (s *SessionService) List(ctx context.Context) ([]domain.Session, error) {
	sessions, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].LastUsedAt.After(sessions[j].LastUsedAt)
	})
	return sessions, nil
}

func (s *SessionService) Get(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Session{}, fmt.Errorf("get session by id: %w", err)
	}
	return session, nil
}

func (s *SessionService) Remove(ctx context.Context, id domain.SessionID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
