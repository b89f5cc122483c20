// Package otw serves the bundled OverTheWire level reference data. The
// payload ships with the binary so level goals stay readable offline once
// cached.
package otw

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/bnema/bandit-cli/internal/ports"
)

//go:embed levels.json
var levelsData []byte

type levelRecord struct {
	Goal            string   `json:"goal"`
	Commands        []string `json:"commands"`
	ReadingMaterial []string `json:"reading_material"`
}

type Source struct {
	once     sync.Once
	levels   map[string]levelRecord
	parseErr error
}

var _ ports.LevelSource = (*Source)(nil)

func NewSource() *Source { return &Source{} }

func (s *Source) load() error {
	s.once.Do(func() {
		s.parseErr = json.Unmarshal(levelsData, &s.levels)
	})
	return s.parseErr
}

func (s *Source) record(level int) (levelRecord, error) {
	if err := s.load(); err != nil {
		return levelRecord{}, fmt.Errorf("load level data: %w", err)
	}
	record, ok := s.levels[strconv.Itoa(level)]
	if !ok {
		return levelRecord{}, fmt.Errorf("no reference data for level %d", level)
	}
	return record, nil
}

func (s *Source) Goal(_ context.Context, level int) (string, error) {
	record, err := s.record(level)
	if err != nil {
		return "", err
	}
	return record.Goal, nil
}

func (s *Source) Commands(_ context.Context, level int) ([]string, error) {
	record, err := s.record(level)
	if err != nil {
		return nil, err
	}
	return record.Commands, nil
}

func (s *Source) ReadingMaterial(_ context.Context, level int) ([]string, error) {
	record, err := s.record(level)
	if err != nil {
		return nil, err
	}
	return record.ReadingMaterial, nil
}
