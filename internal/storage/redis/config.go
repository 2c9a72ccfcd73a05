package redis

import "time"

// DefaultKeyPrefix namespaces every key this store writes
const DefaultKeyPrefix = "farkle"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379/0)
	URL string

	PoolSize     int
	MinIdleConns int
	// DialTimeout bounds the startup ping as well as each new connection
	DialTimeout time.Duration

	// KeyPrefix lets several deployments share one Redis database
	KeyPrefix string

	// RoomTTL expires idle rooms and their name index entry. Zero keeps them forever.
	// Every write refreshes the TTL; profiles never expire.
	RoomTTL time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		KeyPrefix:    DefaultKeyPrefix,
		RoomTTL:      24 * time.Hour,
	}
}
