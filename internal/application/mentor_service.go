package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/bandit-cli/internal/ports"
)

// Cache namespaces. Static reference data lives longer than generated hints.
const (
	NamespaceHints        = "hints"
	NamespaceExplanations = "explanations"
	NamespaceLevels       = "levels"
)

// TTLPolicy carries the per-namespace expiry defaults from config.
type TTLPolicy struct {
	Hints        time.Duration
	Explanations time.Duration
	Levels       time.Duration
}

func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{
		Hints:        time.Hour,
		Explanations: 12 * time.Hour,
		Levels:       24 * time.Hour,
	}
}

// MentorService exposes the cacheable lookups of the exercise helper: AI
// hints, command explanations and static level reference data. Everything
// goes through the expiring cache, so previously fetched answers keep
// working offline.
type MentorService struct {
	cache  *CacheService
	hints  ports.HintProducer
	levels ports.LevelSource
	ttl    TTLPolicy
}

func NewMentorService(cache *CacheService, hints ports.HintProducer, levels ports.LevelSource, ttl TTLPolicy) *MentorService {
	zero := TTLPolicy{}
	if ttl == zero {
		ttl = DefaultTTLPolicy()
	}
	return &MentorService{cache: cache, hints: hints, levels: levels, ttl: ttl}
}

// Hint returns a spoiler-free hint for a level, produced externally on a
// miss while online and domain.ErrUnavailable on a miss while offline.
func (m *MentorService) Hint(ctx context.Context, level int, recentCommands []string) (string, error) {
	key := fmt.Sprintf("level-%d", level)
	return m.cache.FetchOrCompute(ctx, NamespaceHints, key, m.ttl.Hints, func(ctx context.Context) (string, error) {
		return m.hints.Lookup(ctx, ports.HintRequest{Level: level, RecentCommands: recentCommands})
	})
}

// ExplainCommand returns an educational explanation for a shell command.
func (m *MentorService) ExplainCommand(ctx context.Context, command string) (string, error) {
	command = strings.ToLower(strings.TrimSpace(command))
	if command == "" {
		return "", fmt.Errorf("explain command: empty command")
	}
	return m.cache.FetchOrCompute(ctx, NamespaceExplanations, command, m.ttl.Explanations, func(ctx context.Context) (string, error) {
		return m.hints.Lookup(ctx, ports.HintRequest{Command: command})
	})
}

// LevelGoal returns the level's goal text from the reference data namespace.
func (m *MentorService) LevelGoal(ctx context.Context, level int) (string, error) {
	key := fmt.Sprintf("goal-%d", level)
	return m.cache.FetchOrCompute(ctx, NamespaceLevels, key, m.ttl.Levels, func(ctx context.Context) (string, error) {
		return m.levels.Goal(ctx, level)
	})
}

// LevelCommands returns the recommended commands for a level, one per line.
func (m *MentorService) LevelCommands(ctx context.Context, level int) ([]string, error) {
	key := fmt.Sprintf("commands-%d", level)
	joined, err := m.cache.FetchOrCompute(ctx, NamespaceLevels, key, m.ttl.Levels, func(ctx context.Context) (string, error) {
		commands, err := m.levels.Commands(ctx, level)
		if err != nil {
			return "", err
		}
		return strings.Join(commands, "\n"), nil
	})
	if err != nil {
		return nil, err
	}
	if joined == "" {
		return nil, nil
	}
	return strings.Split(joined, "\n"), nil
}

// LevelReadingMaterial returns reference links for a level.
func (m *MentorService) LevelReadingMaterial(ctx context.Context, level int) ([]string, error) {
	key := fmt.Sprintf("reading-%d", level)
	joined, err := m.cache.FetchOrCompute(ctx, NamespaceLevels, key, m.ttl.Levels, func(ctx context.Context) (string, error) {
		material, err := m.levels.ReadingMaterial(ctx, level)
		if err != nil {
			return "", err
		}
		return strings.Join(material, "\n"), nil
	})
	if err != nil {
		return nil, err
	}
	if joined == "" {
		return nil, nil
	}
	return strings.Split(joined, "\n"), nil
}
