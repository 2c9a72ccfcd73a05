package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/farklegame/internal/model"
	"github.com/mcoot/farklegame/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
	keys   keyspace
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().DialTimeout
	}
	opts.DialTimeout = timeout

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
		keys:   newKeyspace(cfg.KeyPrefix),
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Room operations

func (s *Storage) CreateRoom(ctx context.Context, room *model.Room) error {
	stored := room.Clone()
	stored.Version = 1
	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}

	// The name index doubles as the uniqueness guard
	claimed, err := s.client.SetNX(ctx, s.keys.roomName(room.Name), string(room.ID), s.cfg.RoomTTL).Result()
	if err != nil {
		return err
	}
	if !claimed {
		return model.ErrRoomNameTaken
	}

	if err := s.client.Set(ctx, s.keys.room(room.ID), data, s.cfg.RoomTTL).Err(); err != nil {
		_ = s.client.Del(ctx, s.keys.roomName(room.Name)).Err()
		return err
	}
	room.Version = 1
	return nil
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	data, err := s.client.Get(ctx, s.keys.room(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}
	return decodeRoom(data)
}

func (s *Storage) GetRoomByName(ctx context.Context, name string) (*model.Room, error) {
	id, err := s.client.Get(ctx, s.keys.roomName(name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}
	return s.GetRoom(ctx, model.RoomID(id))
}

func (s *Storage) UpdateRoom(ctx context.Context, room *model.Room, expectedVersion int64) (*model.Room, error) {
	key := s.keys.room(room.ID)
	var saved *model.Room

	// WATCH aborts the transaction if another writer touches the key
	// between our version check and EXEC
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrRoomNotFound
			}
			return err
		}
		current, err := decodeRoom(data)
		if err != nil {
			return err
		}
		if current.Version != expectedVersion {
			return model.ErrVersionConflict
		}

		stored := room.Clone()
		stored.Name = current.Name
		stored.Version = expectedVersion + 1
		payload, err := json.Marshal(stored)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.cfg.RoomTTL)
			if s.cfg.RoomTTL > 0 {
				pipe.Expire(ctx, s.keys.roomName(current.Name), s.cfg.RoomTTL)
			}
			return nil
		})
		if err != nil {
			return err
		}
		saved = stored
		return nil
	}, key)
	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return nil, model.ErrVersionConflict
		}
		return nil, err
	}
	return saved, nil
}

// Profile operations

func (s *Storage) SaveProfile(ctx context.Context, profile *model.PlayerProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.keys.profile(profile.ID), data, 0).Err()
}

func (s *Storage) GetProfile(ctx context.Context, id model.PlayerID) (*model.PlayerProfile, error) {
	data, err := s.client.Get(ctx, s.keys.profile(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrProfileNotFound
		}
		return nil, err
	}

	var profile model.PlayerProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func decodeRoom(data []byte) (*model.Room, error) {
	var room model.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("decode room: %w", err)
	}
	if room.Players == nil {
		room.Players = []model.Player{}
	}
	if room.Chat == nil {
		room.Chat = []model.Message{}
	}
	return &room, nil
}
