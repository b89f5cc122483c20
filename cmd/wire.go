package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/bnema/bandit-cli/internal/adapters/cache/filecache"
	historyfile "github.com/bnema/bandit-cli/internal/adapters/history/file"
	"github.com/bnema/bandit-cli/internal/adapters/levels/otw"
	"github.com/bnema/bandit-cli/internal/adapters/mentor/openaiapi"
	tomlrepo "github.com/bnema/bandit-cli/internal/adapters/repo/toml"
	"github.com/bnema/bandit-cli/internal/adapters/transport/sshshell"
	"github.com/bnema/bandit-cli/internal/application"
	"github.com/bnema/bandit-cli/internal/config"
	"github.com/bnema/bandit-cli/internal/conn"
	"github.com/bnema/bandit-cli/internal/history"
	"github.com/bnema/bandit-cli/internal/logging"
	"github.com/bnema/bandit-cli/internal/offline"
)

const offlineMarkerFile = "offline"

type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	dataDir string

	offline     *offline.Controller
	sessions    *application.SessionService
	sessionRepo *tomlrepo.Repository
	cache       *application.CacheService
	mentor      *application.MentorService
	history     *history.Log
	manager     *conn.Manager
}

func wireApp() (*app, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	dataDir := filepath.Join(homeDir, ".bandit-cli")

	cfg, err := config.LoadFrom(dataDir)
	if err != nil {
		return nil, fmt.Errorf("wire config: %w", err)
	}

	logger, err := logging.New(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}

	controller := offline.NewController()
	// The mode survives between invocations through a marker file.
	if _, err := os.Stat(filepath.Join(dataDir, offlineMarkerFile)); err == nil {
		controller.SetOffline(true)
	}

	sessionRepo, err := tomlrepo.NewRepository(cfg.Viper())
	if err != nil {
		return nil, fmt.Errorf("wire session repository: %w", err)
	}

	cacheService := application.NewCacheService(filecache.NewStore(cfg.Cache.Dir), controller, nil, logger)
	mentorClient := openaiapi.NewClient(http.DefaultClient, cfg.Mentor.BaseURL, cfg.Mentor.Model, os.Getenv("OPENAI_API_KEY"))
	mentorService := application.NewMentorService(cacheService, mentorClient, otw.NewSource(), application.TTLPolicy{
		Hints:        cfg.Cache.TTL.Hints,
		Explanations: cfg.Cache.TTL.Explanations,
		Levels:       cfg.Cache.TTL.Levels,
	})

	historyLog := history.NewLog(context.Background(), historyfile.NewStore(cfg.History.Path), cfg.History.Capacity, nil, logger)

	a := &app{
		cfg:         cfg,
		logger:      logger,
		dataDir:     dataDir,
		offline:     controller,
		sessions:    application.NewSessionService(sessionRepo, nil),
		sessionRepo: sessionRepo,
		cache:       cacheService,
		mentor:      mentorService,
		history:     historyLog,
		manager:     conn.NewManager(sshshell.New(), controller, cfg.SSH.Timeout, logger),
	}
	a.reportDegradation()
	return a, nil
}

// reportDegradation surfaces corrupt-store recoveries once at startup.
func (a *app) reportDegradation() {
	if err := a.history.LoadErr(); err != nil {
		a.logger.Warn("command history degraded to empty", zap.Error(err))
	}
	if _, err := a.sessions.List(context.Background()); err == nil {
		if corrupt := a.sessionRepo.Corrupt(); corrupt != nil {
			a.logger.Warn("session store degraded to empty", zap.Error(corrupt))
		}
	}
}

func (a *app) shutdown() {
	a.manager.CloseAll()
	a.history.Close()
	_ = a.logger.Sync()
}

func (a *app) persistOfflineMarker() error {
	path := filepath.Join(a.dataDir, offlineMarkerFile)
	if a.offline.IsOffline() {
		if err := os.MkdirAll(a.dataDir, 0o700); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
		if err := os.WriteFile(path, []byte("1\n"), 0o600); err != nil {
			return fmt.Errorf("write offline marker: %w", err)
		}
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove offline marker: %w", err)
	}
	return nil
}
