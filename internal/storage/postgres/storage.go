// Package postgres provides a PostgreSQL-backed storage implementation using pgx.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcoot/farklegame/internal/model"
	"github.com/mcoot/farklegame/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS farkle_rooms (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    version BIGINT NOT NULL,
    state JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS farkle_profiles (
    id TEXT PRIMARY KEY,
    state JSONB NOT NULL
);
`

// uniqueViolation is the SQLSTATE for a unique constraint failure
const uniqueViolation = "23505"

// Storage persists rooms and profiles in PostgreSQL
type Storage struct {
	pool *pgxpool.Pool
}

// New connects to url, verifies the connection and ensures the schema exists
func New(ctx context.Context, url string) (*Storage, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Storage{pool: pool}, nil
}

// Close releases the pool
func (s *Storage) Close() error {
	s.pool.Close()
	return nil
}

var _ storage.Storage = (*Storage)(nil)

// Room operations

func (s *Storage) CreateRoom(ctx context.Context, room *model.Room) error {
	stored := room.Clone()
	stored.Version = 1
	state, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO farkle_rooms (id, name, version, state) VALUES ($1, $2, $3, $4)`,
		string(room.ID), room.Name, stored.Version, state,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.ErrRoomNameTaken
		}
		return fmt.Errorf("insert room: %w", err)
	}
	room.Version = 1
	return nil
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	row := s.pool.QueryRow(ctx, `SELECT name, version, state FROM farkle_rooms WHERE id = $1`, string(id))
	return scanRoom(row)
}

func (s *Storage) GetRoomByName(ctx context.Context, name string) (*model.Room, error) {
	row := s.pool.QueryRow(ctx, `SELECT name, version, state FROM farkle_rooms WHERE name = $1`, name)
	return scanRoom(row)
}

func (s *Storage) UpdateRoom(ctx context.Context, room *model.Room, expectedVersion int64) (*model.Room, error) {
	stored := room.Clone()
	stored.Version = expectedVersion + 1
	state, err := json.Marshal(stored)
	if err != nil {
		return nil, err
	}

	var saved *model.Room
	err = pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var name string
		err := tx.QueryRow(ctx,
			`UPDATE farkle_rooms SET state = $1, version = $2, updated_at = now()
			 WHERE id = $3 AND version = $4
			 RETURNING name`,
			state, stored.Version, string(room.ID), expectedVersion,
		).Scan(&name)
		if err == nil {
			stored.Name = name
			saved = stored
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("update room: %w", err)
		}

		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM farkle_rooms WHERE id = $1)`, string(room.ID),
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return model.ErrRoomNotFound
		}
		return model.ErrVersionConflict
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// Profile operations

func (s *Storage) SaveProfile(ctx context.Context, profile *model.PlayerProfile) error {
	state, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO farkle_profiles (id, state) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET state = EXCLUDED.state`,
		string(profile.ID), state,
	)
	return err
}

func (s *Storage) GetProfile(ctx context.Context, id model.PlayerID) (*model.PlayerProfile, error) {
	var state []byte
	err := s.pool.QueryRow(ctx, `SELECT state FROM farkle_profiles WHERE id = $1`, string(id)).Scan(&state)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrProfileNotFound
		}
		return nil, err
	}
	var profile model.PlayerProfile
	if err := json.Unmarshal(state, &profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &profile, nil
}

func scanRoom(row pgx.Row) (*model.Room, error) {
	var (
		name    string
		version int64
		state   []byte
	)
	if err := row.Scan(&name, &version, &state); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}
	var room model.Room
	if err := json.Unmarshal(state, &room); err != nil {
		return nil, fmt.Errorf("decode room: %w", err)
	}
	room.Name = name
	room.Version = version
	if room.Players == nil {
		room.Players = []model.Player{}
	}
	if room.Chat == nil {
		room.Chat = []model.Message{}
	}
	return &room, nil
}
