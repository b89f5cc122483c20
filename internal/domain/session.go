package domain

import (
	"fmt"
	"strings"
	"time"
)

type SessionID string

// Session is the durable descriptor of a remote target the user has
// connected to before. It survives restarts; live connections do not.
type Session struct {
	ID         SessionID
	Name       string
	Hostname   string
	Port       int
	Username   string
	Level      int
	CreatedAt  time.Time
	LastUsedAt time.Time
	Metadata   map[string]string
}

func (s Session) Validate() error {
	if strings.TrimSpace(s.Hostname) == "" {
		return ErrInvalidSession
	}
	if strings.TrimSpace(s.Username) == "" {
		return ErrInvalidSession
	}
	if s.Port < 1 || s.Port > 65535 {
		return ErrInvalidSession
	}
	return nil
}

// Endpoint is the dialable address extracted from a session descriptor.
type Endpoint struct {
	Hostname string
	Port     int
	Username string
}

func (s Session) Endpoint() Endpoint {
	return Endpoint{Hostname: s.Hostname, Port: s.Port, Username: s.Username}
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s@%s:%d", e.Username, e.Hostname, e.Port)
}

// Credentials hold the secret material for a single dial. They are supplied
// per call and must never end up in any persisted store or log line.
type Credentials struct {
	Password string
}
