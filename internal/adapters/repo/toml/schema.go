package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version  int             `toml:"version"`
	Sessions []sessionSchema `toml:"sessions"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported sessions schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type sessionSchema struct {
	ID         string            `toml:"id"`
	Name       string            `toml:"name"`
	Hostname   string            `toml:"hostname"`
	Port       int               `toml:"port"`
	Username   string            `toml:"username"`
	Level      int               `toml:"level"`
	CreatedAt  string            `toml:"created_at"`
	LastUsedAt string            `toml:"last_used_at"`
	Metadata   map[string]string `toml:"metadata,omitempty"`
}
