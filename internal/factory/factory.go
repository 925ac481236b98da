package factory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/nats-io/nats.go"

	"github.com/mcoot/competition-console/internal/api"
	"github.com/mcoot/competition-console/internal/config"
	"github.com/mcoot/competition-console/internal/dependencies/clock"
	"github.com/mcoot/competition-console/internal/dependencies/random"
	"github.com/mcoot/competition-console/internal/events"
	"github.com/mcoot/competition-console/internal/events/natsbus"
	"github.com/mcoot/competition-console/internal/services/auth"
	"github.com/mcoot/competition-console/internal/services/country"
	"github.com/mcoot/competition-console/internal/services/numbers"
	"github.com/mcoot/competition-console/internal/services/registry"
	"github.com/mcoot/competition-console/internal/services/timer"
	"github.com/mcoot/competition-console/internal/sse"
	"github.com/mcoot/competition-console/internal/storage"
	"github.com/mcoot/competition-console/internal/storage/memory"
	"github.com/mcoot/competition-console/internal/storage/postgres"
	redisstorage "github.com/mcoot/competition-console/internal/storage/redis"
	"github.com/mcoot/competition-console/internal/storage/sqlite"
)

// App contains all wired application components
type App struct {
	Config config.Config
	Logger *slog.Logger

	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Change notification
	Publisher   events.Publisher
	HubManager  *sse.HubManager
	Broadcaster *sse.Broadcaster
	natsConn    *nats.Conn
	relay       *natsbus.Relay

	// Services
	Countries       *country.Service
	Registry        *registry.Service
	NumberEngine    *numbers.Engine
	TimerController *timer.Controller
	Watcher         *timer.Watcher
	AuthService     *auth.Service
}

// New creates a new application with all dependencies wired from cfg
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	store, err := OpenStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	hubManager := sse.NewHubManager(logger)
	broadcaster := sse.NewBroadcaster(hubManager, logger)

	var (
		publisher events.Publisher = broadcaster
		nc        *nats.Conn
		relay     *natsbus.Relay
	)
	if cfg.Events.NATSURL != "" {
		natsCfg := natsbus.DefaultConfig()
		natsCfg.URL = cfg.Events.NATSURL
		nc, err = natsbus.Connect(natsCfg, logger)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		// Local events go out over NATS and come back through the relay,
		// so every instance's SSE clients see the same feed
		relay = natsbus.NewRelay(nc, broadcaster, logger)
		if err := relay.Start(); err != nil {
			nc.Close()
			_ = store.Close()
			return nil, err
		}
		publisher = natsbus.NewPublisher(nc, logger)
	}

	authCfg := auth.DefaultConfig()
	authCfg.SessionDuration = cfg.Auth.SessionDuration

	app := newWithDependencies(cfg, store, clock.New(), random.New(), publisher, hubManager, authCfg, logger)
	app.Broadcaster = broadcaster
	app.natsConn = nc
	app.relay = relay
	return app, nil
}

// OpenStorage connects to the backend selected by cfg.Type
func OpenStorage(ctx context.Context, cfg config.StorageConfig) (storage.Storage, error) {
	switch cfg.Type {
	case config.StorageMemory, "":
		return memory.New(), nil
	case config.StorageRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		store, err := redisstorage.New(redisCfg)
		if err != nil {
			return nil, fmt.Errorf("open redis storage: %w", err)
		}
		return store, nil
	case config.StorageSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite storage: %w", err)
		}
		return store, nil
	case config.StoragePostgres:
		store, err := postgres.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres storage: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("invalid storage type %q", cfg.Type)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	cfg config.Config,
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	publisher events.Publisher,
	hubManager *sse.HubManager,
	authCfg auth.Config,
	logger *slog.Logger,
) *App {
	countries := country.New()
	controller := timer.NewController(store, clk, publisher, logger.With(slog.String("service", "timer")), timer.Config{
		Cap:         cfg.Competition.SessionCap,
		Days:        cfg.Competition.Days,
		ClampOnStop: cfg.Competition.ClampOnStop,
	})

	return &App{
		Config:     cfg,
		Logger:     logger,
		Storage:    store,
		Clock:      clk,
		Random:     rnd,
		Publisher:  publisher,
		HubManager: hubManager,
		Countries:  countries,
		Registry:   registry.New(store, clk, countries, publisher, logger.With(slog.String("service", "registry"))),
		NumberEngine: numbers.NewEngine(store, rnd, clk, publisher,
			logger.With(slog.String("service", "numbers"))),
		TimerController: controller,
		Watcher: timer.NewWatcher(controller, timer.WatcherConfig{
			Interval: cfg.Competition.WatchInterval,
			AutoStop: cfg.Competition.AutoStopAtCap,
		}),
		AuthService: auth.New(store, clk, logger.With(slog.String("service", "auth")), authCfg),
	}
}

// Router builds the HTTP handler serving the API
func (a *App) Router() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:          a.Logger,
		Storage:         a.Storage,
		StorageType:     a.Config.Storage.Type,
		AuthService:     a.AuthService,
		Registry:        a.Registry,
		NumberEngine:    a.NumberEngine,
		TimerController: a.TimerController,
		Countries:       a.Countries,
		HubManager:      a.HubManager,
		SSEKeepalive:    a.Config.Events.SSEKeepalive,
		CORSOrigins:     a.Config.Server.CORSOrigins,
	})
}

// RunBackground starts the cap watcher and auth session cleanup; both stop with ctx
func (a *App) RunBackground(ctx context.Context) {
	go a.Watcher.Run(ctx)
	go a.AuthService.RunCleanup(ctx, a.Config.Auth.CleanupInterval)
}

// Close releases the event transport and storage
func (a *App) Close() error {
	var errs []error
	if a.relay != nil {
		errs = append(errs, a.relay.Stop())
	}
	if a.natsConn != nil {
		if err := a.natsConn.Drain(); err != nil {
			a.natsConn.Close()
		}
	}
	a.HubManager.Close()
	errs = append(errs, a.Storage.Close())
	return errors.Join(errs...)
}
