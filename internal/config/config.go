package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage backends
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Config is the server configuration read from FARKLE_* environment variables
type Config struct {
	Host string `env:"HOST"`
	Port int    `env:"PORT" envDefault:"8080"`

	StorageType string `env:"STORAGE_TYPE" envDefault:"memory"`
	RedisURL    string `env:"REDIS_URL"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"farkle.db"`
	PostgresURL string `env:"POSTGRES_URL"`
	// RedisKeyPrefix namespaces redis keys so deployments can share a database
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"farkle"`
	// RoomTTL expires idle rooms in redis; zero keeps them forever
	RoomTTL time.Duration `env:"ROOM_TTL" envDefault:"24h"`

	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	MaxUpdateAttempts int      `env:"MAX_UPDATE_ATTEMPTS" envDefault:"3"`
	AllowedOrigins    []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads a .env file if one exists, then parses the environment
func Load(dotenvFiles ...string) (Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, file := range dotenvFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}
	return Parse()
}

// Parse reads the configuration from the environment only
func Parse() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "FARKLE_"}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the selected storage backend has what it needs
func (c Config) Validate() error {
	switch c.StorageType {
	case StorageMemory:
	case StorageRedis:
		if c.RedisURL == "" {
			return errors.New("FARKLE_REDIS_URL is required when FARKLE_STORAGE_TYPE=redis")
		}
	case StorageSQLite:
		if c.SQLitePath == "" {
			return errors.New("FARKLE_SQLITE_PATH is required when FARKLE_STORAGE_TYPE=sqlite")
		}
	case StoragePostgres:
		if c.PostgresURL == "" {
			return errors.New("FARKLE_POSTGRES_URL is required when FARKLE_STORAGE_TYPE=postgres")
		}
	default:
		return fmt.Errorf("invalid FARKLE_STORAGE_TYPE %q: must be memory, redis, sqlite or postgres", c.StorageType)
	}
	if c.MaxUpdateAttempts < 1 {
		return errors.New("FARKLE_MAX_UPDATE_ATTEMPTS must be at least 1")
	}
	return nil
}
