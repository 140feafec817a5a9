package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/artpar/coinfav/internal/coingecko"
	"github.com/artpar/coinfav/internal/config"
	"github.com/artpar/coinfav/internal/favorites"
	"github.com/artpar/coinfav/internal/kv"
	"github.com/artpar/coinfav/internal/kv/filesystem"
	"github.com/artpar/coinfav/internal/kv/sqlite"
	"github.com/artpar/coinfav/internal/market"
	"github.com/artpar/coinfav/internal/screen"
	"go.uber.org/zap"
)

// File names under the data directory.
const (
	DatabaseFile = "coinfav.db"
	KVDir        = "kv"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() config.Config {
	return config.Default()
}

// App is the main application container with dependency injection.
type App struct {
	config    config.Config
	store     kv.Store
	ownsStore bool
	fetcher   market.Fetcher
	logger    *zap.Logger
	favorites *favorites.Set
}

// Option is a function that configures the App.
type Option func(*App)

// WithConfig sets the application configuration.
func WithConfig(cfg config.Config) Option {
	return func(a *App) {
		a.config = cfg
	}
}

// WithStore injects the durable store. An injected store is not closed by
// App.Close.
func WithStore(store kv.Store) Option {
	return func(a *App) {
		a.store = store
	}
}

// WithFetcher injects the price fetcher in place of the CoinGecko client.
func WithFetcher(fetcher market.Fetcher) Option {
	return func(a *App) {
		a.fetcher = fetcher
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates a new App with the given options.
func New(opts ...Option) (*App, error) {
	a := &App{
		config: DefaultConfig(),
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.store == nil {
		store, err := OpenStore(a.config.Storage)
		if err != nil {
			return nil, err
		}
		a.store = store
		a.ownsStore = true
	}

	if a.fetcher == nil {
		retry := coingecko.NewRetrier(a.config.API.MaxRetries)
		a.logger.Debug("price api client",
			zap.String("base_url", a.config.API.BaseURL),
			zap.Int("max_retries", retry.MaxRetries()))
		a.fetcher = coingecko.NewClient(
			coingecko.WithBaseURL(a.config.API.BaseURL),
			coingecko.WithAPIKey(a.config.API.Key),
			coingecko.WithCurrency(a.config.API.Currency),
			coingecko.WithTimeout(a.config.API.Timeout),
			coingecko.WithRetrier(retry),
			coingecko.WithLogger(a.logger.Named("coingecko")),
		)
	}

	a.favorites = favorites.New(a.store, favorites.WithLogger(a.logger.Named("favorites")))

	a.logger.Debug("app initialized",
		zap.String("backend", a.config.Storage.Backend),
		zap.String("data_dir", a.config.Storage.DataDir))

	return a, nil
}

// OpenStore opens the store backend named by cfg.
func OpenStore(cfg config.StorageConfig) (kv.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return kv.NewMemory(), nil
	case config.BackendFile:
		store, err := filesystem.New(filepath.Join(cfg.DataDir, KVDir))
		if err != nil {
			return nil, fmt.Errorf("failed to open file store: %w", err)
		}
		return store, nil
	case config.BackendSQLite, "":
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		store, err := sqlite.New(filepath.Join(cfg.DataDir, DatabaseFile))
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.Backend)
	}
}

// Config returns the application configuration.
func (a *App) Config() config.Config {
	return a.config
}

// Favorites returns the shared FavoriteSet.
func (a *App) Favorites() *favorites.Set {
	return a.favorites
}

// Fetcher returns the price fetcher.
func (a *App) Fetcher() market.Fetcher {
	return a.fetcher
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// NewListProjector creates a favorites list projector. The caller starts and
// closes it.
func (a *App) NewListProjector() *screen.ListProjector {
	return screen.NewListProjector(a.favorites, a.fetcher, screen.WithLogger(a.logger))
}

// NewDetailProjector creates a detail projector.
func (a *App) NewDetailProjector() *screen.DetailProjector {
	return screen.NewDetailProjector(a.favorites, a.fetcher, screen.WithLogger(a.logger))
}

// NewMarketProjector creates a market listing projector.
func (a *App) NewMarketProjector() *screen.MarketProjector {
	return screen.NewMarketProjector(a.favorites, a.fetcher, screen.WithLogger(a.logger))
}

// Close releases favorites subscribers and closes an owned store.
func (a *App) Close() error {
	a.favorites.Close()
	if !a.ownsStore {
		return nil
	}
	if err := a.store.Close(); err != nil && !errors.Is(err, kv.ErrStoreClosed) {
		return fmt.Errorf("failed to close store: %w", err)
	}
	return nil
}
