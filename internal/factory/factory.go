package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/farklegame/internal/config"
	"github.com/mcoot/farklegame/internal/dependencies/clock"
	"github.com/mcoot/farklegame/internal/dependencies/random"
	"github.com/mcoot/farklegame/internal/services/auth"
	"github.com/mcoot/farklegame/internal/services/coordinator"
	"github.com/mcoot/farklegame/internal/services/room"
	"github.com/mcoot/farklegame/internal/storage"
	"github.com/mcoot/farklegame/internal/storage/memory"
	"github.com/mcoot/farklegame/internal/storage/postgres"
	redisstorage "github.com/mcoot/farklegame/internal/storage/redis"
	"github.com/mcoot/farklegame/internal/storage/sqlite"
	"github.com/mcoot/farklegame/internal/web/ws"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Coordinator    *coordinator.Coordinator
	AuthService    *auth.Service
	RoomController *room.Controller
	HubManager     *ws.HubManager
	Broadcaster    *ws.Broadcaster
	Gateway        *ws.Gateway
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLitePath is the database file (required if StorageType is "sqlite")
	SQLitePath string
	// PostgresURL is the connection string (required if StorageType is "postgres")
	PostgresURL string
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// RoomConfig holds room controller settings (optional)
	RoomConfig room.Config
	// GatewayConfig holds websocket settings (optional)
	GatewayConfig ws.Config
}

// ConfigFromEnv maps the server environment onto a factory Config
func ConfigFromEnv(env config.Config, logger *slog.Logger) Config {
	cfg := Config{
		Logger:      logger,
		StorageType: env.StorageType,
		SQLitePath:  env.SQLitePath,
		PostgresURL: env.PostgresURL,
		AuthConfig:  auth.Config{Secret: env.JWTSecret, TokenTTL: env.TokenTTL},
		RoomConfig:  room.Config{MaxUpdateAttempts: env.MaxUpdateAttempts},
	}
	if env.StorageType == config.StorageRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = env.RedisURL
		redisCfg.KeyPrefix = env.RedisKeyPrefix
		redisCfg.RoomTTL = env.RoomTTL
		cfg.RedisConfig = &redisCfg
	}
	cfg.GatewayConfig = ws.DefaultConfig()
	cfg.GatewayConfig.OriginPatterns = env.AllowedOrigins
	return cfg
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	return newWithDependencies(store, clk, rnd, withDefaults(cfg), logger), nil
}

func openStorage(ctx context.Context, cfg Config) (storage.Storage, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = config.StorageMemory
	}

	switch storageType {
	case config.StorageMemory:
		return memory.New(), nil
	case config.StorageRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, fmt.Errorf("open redis storage: %w", err)
		}
		return redisStore, nil
	case config.StorageSQLite:
		sqliteStore, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite storage: %w", err)
		}
		return sqliteStore, nil
	case config.StoragePostgres:
		pgStore, err := postgres.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres storage: %w", err)
		}
		return pgStore, nil
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be memory, redis, sqlite or postgres", storageType)
	}
}

func withDefaults(cfg Config) Config {
	if cfg.AuthConfig.TokenTTL == 0 {
		secret := cfg.AuthConfig.Secret
		cfg.AuthConfig = auth.DefaultConfig()
		cfg.AuthConfig.Secret = secret
	}
	if cfg.RoomConfig.MaxUpdateAttempts == 0 {
		cfg.RoomConfig = room.DefaultConfig()
	}
	if cfg.GatewayConfig.LeaveTimeout == 0 {
		origins := cfg.GatewayConfig.OriginPatterns
		cfg.GatewayConfig = ws.DefaultConfig()
		cfg.GatewayConfig.OriginPatterns = origins
	}
	return cfg
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) *App {
	coord := coordinator.New()
	hubManager := ws.NewHubManager(logger)
	broadcaster := ws.NewBroadcaster(hubManager, logger)
	authService := auth.New(store, clk, cfg.AuthConfig)
	roomController := room.NewController(store, coord, clk, rnd, broadcaster, cfg.RoomConfig, logger)
	gateway := ws.NewGateway(roomController, hubManager, cfg.GatewayConfig, logger)

	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		Coordinator:    coord,
		AuthService:    authService,
		RoomController: roomController,
		HubManager:     hubManager,
		Broadcaster:    broadcaster,
		Gateway:        gateway,
	}
}

// Close disconnects websocket clients and releases the storage backend
func (a *App) Close() error {
	a.HubManager.CloseAll()
	if closer, ok := a.Storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
