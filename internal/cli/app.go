package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jengzang/quake-explorer-go/internal/config"
	"github.com/jengzang/quake-explorer-go/internal/database"
	"github.com/jengzang/quake-explorer-go/internal/fetch"
	"github.com/jengzang/quake-explorer-go/internal/metrics"
	"github.com/jengzang/quake-explorer-go/internal/models"
	"github.com/jengzang/quake-explorer-go/internal/repository"
	"github.com/jengzang/quake-explorer-go/internal/service"
	"github.com/jengzang/quake-explorer-go/internal/usgs"
)

// app holds the wired components shared by every command
type app struct {
	cfg     *config.Config
	pages   []models.PageDefinition
	metrics *metrics.Metrics
	store   *repository.ResponseCacheRepository
	client  *fetch.Client
	service *service.ExplorerService
}

// newApp loads configuration and page definitions and wires the
// upstream client, fetch cache and explorer service
func newApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	pages, err := config.LoadPages(cfg.Pages.File)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, pages: pages, metrics: metrics.New()}

	opts := fetch.Options{
		StaleTime:  cfg.Cache.StaleTime,
		PersistTTL: cfg.Cache.PersistTTL,
		Retry: fetch.RetryPolicy{
			MaxRetries:      uint64(cfg.Upstream.MaxRetries),
			InitialInterval: cfg.Upstream.InitialBackoff,
			MaxInterval:     cfg.Upstream.MaxBackoff,
		},
		Retryable: usgs.IsTemporary,
		Metrics:   a.metrics,
	}

	if cfg.Cache.Persist {
		if err := openStore(cfg.Database.Path); err != nil {
			return nil, err
		}
		a.store = repository.NewResponseCacheRepository(database.GetDB())
		opts.Store = a.store
	}

	source := usgs.NewClient(usgs.Config{
		Timeout:           cfg.Upstream.Timeout,
		RequestsPerSecond: cfg.Upstream.RequestsPerSecond,
		Burst:             cfg.Upstream.Burst,
		UserAgent:         cfg.Upstream.UserAgent,
	})
	a.client = fetch.NewClient(source, opts)

	svcOpts := service.Options{
		SessionTTL:  cfg.Sessions.TTL,
		CacheMaxAge: cfg.Cache.StaleTime,
		PersistTTL:  cfg.Cache.PersistTTL,
		Metrics:     a.metrics,
	}
	if a.store != nil {
		svcOpts.Store = a.store
	}
	a.service, err = service.NewExplorerService(a.client, pages, svcOpts)
	if err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func openStore(path string) error {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	if err := database.Init(database.Config{Path: path}); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	return nil
}

func (a *app) close() {
	if a.service != nil {
		a.service.Close()
	}
	if a.store != nil {
		if err := database.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close database")
		}
	}
}

// requireStore fails when response persistence is disabled
func (a *app) requireStore() error {
	if a.store == nil {
		return fmt.Errorf("response persistence is disabled (cache.persist=false)")
	}
	return nil
}
