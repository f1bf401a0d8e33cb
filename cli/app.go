// ABOUTME: Shared wiring for the CLI commands
// ABOUTME: Builds logger, snapshot cache, load journal and endpoint client from the config
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/harperreed/salesdash/cache"
	"github.com/harperreed/salesdash/config"
	"github.com/harperreed/salesdash/db"
	"github.com/harperreed/salesdash/logging"
	"github.com/harperreed/salesdash/loader"
	"github.com/harperreed/salesdash/models"
	"github.com/harperreed/salesdash/transport"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// App holds what every command needs.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Store    cache.Store
	Snapshot *cache.Snapshot
	DB       *sql.DB
	Journal  *db.Journal
	Out      io.Writer
}

// NewApp opens the cache and the journal. A journal that cannot be opened
// is logged and left out; loads still work without it.
func NewApp(cfg *config.Config) (*App, error) {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	store, err := cache.OpenStore(cache.StoreConfig{
		Backend:     cfg.CacheBackend,
		Dir:         cfg.CacheDir,
		RedisAddr:   cfg.RedisAddr,
		RedisPrefix: cfg.RedisPrefix,
	})
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	app := &App{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Snapshot: cache.NewSnapshot(store, cache.WithLogger(logger.Named("cache"))),
		Out:      os.Stdout,
	}

	if cfg.JournalPath != "" {
		database, err := db.OpenDatabase(cfg.JournalPath)
		if err != nil {
			logger.Warn("load journal disabled", zap.String("path", cfg.JournalPath), zap.Error(err))
		} else {
			app.DB = database
			app.Journal = db.NewJournal(database, db.DefaultMaxRows)
		}
	}
	return app, nil
}

// Close releases the cache, the journal and the logger.
func (a *App) Close() {
	if a.DB != nil {
		_ = a.DB.Close()
	}
	if a.Store != nil {
		_ = a.Store.Close()
	}
	_ = a.Logger.Sync()
}

// Client builds the endpoint client. When a token file exists requests
// carry its bearer token.
func (a *App) Client(ctx context.Context) (*transport.Client, error) {
	opts := []transport.Option{transport.WithLogger(a.Logger.Named("transport"))}

	if path := a.Config.TokenFile; path != "" {
		if _, err := os.Stat(path); err == nil {
			// Without client credentials the token is never refreshed.
			oauthConfig, _ := transport.NewOAuthConfig("")
			httpClient, err := transport.NewAuthorizedHTTPClient(ctx, oauthConfig, path)
			if err != nil {
				return nil, fmt.Errorf("failed to load endpoint token: %w", err)
			}
			opts = append(opts, transport.WithHTTPClient(httpClient))
		}
	}
	return transport.NewClient(a.Config.Endpoint, opts...)
}

// headlessLoad builds a coordinator around a Capture for one-shot commands.
func (a *App) headlessLoad(ctx context.Context, filters models.Filters) (*loader.Coordinator, *loader.Capture, error) {
	client, err := a.Client(ctx)
	if err != nil {
		return nil, nil, err
	}
	capture := loader.NewCapture()
	cfg := loader.Config{
		Fetcher:  client,
		Cache:    a.Snapshot,
		Renderer: capture,
		View:     capture,
		Filters:  func() models.Filters { return filters },
		Logger:   a.Logger.Named("loader"),
	}
	if a.Journal != nil {
		cfg.Recorder = a.Journal
	}
	coord, err := loader.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return coord, capture, nil
}
