// Package config loads the tool configuration from ~/.bandit-cli/config.toml
// with documented defaults for every knob. An absent file is fine; a broken
// one is an error the caller reports without crashing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	configDir  = ".bandit-cli"
	configName = "config"
	configType = "toml"
)

type SSH struct {
	Host    string
	Port    int
	Timeout time.Duration
}

type History struct {
	Capacity int
	Path     string
}

type CacheTTL struct {
	Hints        time.Duration
	Explanations time.Duration
	Levels       time.Duration
}

type Cache struct {
	Dir string
	TTL CacheTTL
}

type Mentor struct {
	BaseURL string
	Model   string
}

type Config struct {
	SSH      SSH
	History  History
	Cache    Cache
	Mentor   Mentor
	Sessions string // sessions.toml path
	Debug    bool

	viper *viper.Viper
}

// Load reads the config file if present and fills in defaults otherwise.
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	return LoadFrom(filepath.Join(homeDir, configDir))
}

// LoadFrom reads configuration rooted at the given directory.
func LoadFrom(dir string) (*Config, error) {
	cfg := viper.New()
	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(dir)

	cfg.SetDefault("ssh.host", "bandit.labs.overthewire.org")
	cfg.SetDefault("ssh.port", 2220)
	cfg.SetDefault("ssh.timeout", "10s")
	cfg.SetDefault("history.capacity", 100)
	cfg.SetDefault("history.path", filepath.Join(dir, "history.json"))
	cfg.SetDefault("cache.dir", filepath.Join(dir, "cache"))
	cfg.SetDefault("cache.ttl.hints", "1h")
	cfg.SetDefault("cache.ttl.explanations", "12h")
	cfg.SetDefault("cache.ttl.levels", "24h")
	cfg.SetDefault("mentor.base_url", "https://api.openai.com/v1")
	cfg.SetDefault("mentor.model", "gpt-4o-mini")
	cfg.SetDefault("sessions.path", filepath.Join(dir, "sessions.toml"))
	cfg.SetDefault("debug", false)

	if err := cfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return &Config{
		SSH: SSH{
			Host:    cfg.GetString("ssh.host"),
			Port:    cfg.GetInt("ssh.port"),
			Timeout: cfg.GetDuration("ssh.timeout"),
		},
		History: History{
			Capacity: cfg.GetInt("history.capacity"),
			Path:     cfg.GetString("history.path"),
		},
		Cache: Cache{
			Dir: cfg.GetString("cache.dir"),
			TTL: CacheTTL{
				Hints:        cfg.GetDuration("cache.ttl.hints"),
				Explanations: cfg.GetDuration("cache.ttl.explanations"),
				Levels:       cfg.GetDuration("cache.ttl.levels"),
			},
		},
		Mentor: Mentor{
			BaseURL: cfg.GetString("mentor.base_url"),
			Model:   cfg.GetString("mentor.model"),
		},
		Sessions: cfg.GetString("sessions.path"),
		Debug:    cfg.GetBool("debug"),
		viper:    cfg,
	}, nil
}

// Viper exposes the underlying instance so adapters that take a *viper.Viper
// (the session repository) share the same settings.
func (c *Config) Viper() *viper.Viper { return c.viper }
