// Package sqlite provides a SQLite-backed storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/mcoot/farklegame/internal/model"
	"github.com/mcoot/farklegame/internal/storage"
)

//go:embed schema.sql
var schema string

// Storage persists rooms and profiles in a single SQLite file
type Storage struct {
	db *sql.DB
}

// Open opens a SQLite store at path and applies the schema.
func Open(path string) (*Storage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer at a time keeps SQLITE_BUSY out of the conditional update path
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close closes the SQLite handle
func (s *Storage) Close() error {
	return s.db.Close()
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
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO rooms (id, name, version, state, updated_at) VALUES (?, ?, ?, ?, ?)`,
		string(room.ID), room.Name, stored.Version, string(state), time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrRoomNameTaken
		}
		return fmt.Errorf("insert room: %w", err)
	}
	room.Version = 1
	return nil
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	row := s.db.QueryRowContext(ctx, `SELECT name, version, state FROM rooms WHERE id = ?`, string(id))
	return scanRoom(row)
}

func (s *Storage) GetRoomByName(ctx context.Context, name string) (*model.Room, error) {
	row := s.db.QueryRowContext(ctx, `SELECT name, version, state FROM rooms WHERE name = ?`, name)
	return scanRoom(row)
}

func (s *Storage) UpdateRoom(ctx context.Context, room *model.Room, expectedVersion int64) (*model.Room, error) {
	stored := room.Clone()
	stored.Version = expectedVersion + 1
	state, err := json.Marshal(stored)
	if err != nil {
		return nil, err
	}

	var name string
	err = s.db.QueryRowContext(ctx,
		`UPDATE rooms SET state = ?, version = ?, updated_at = ?
		 WHERE id = ? AND version = ?
		 RETURNING name`,
		string(state), stored.Version, time.Now().UTC().UnixMilli(), string(room.ID), expectedVersion,
	).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.missOrConflict(ctx, room.ID)
		}
		return nil, fmt.Errorf("update room: %w", err)
	}
	stored.Name = name
	return stored, nil
}

// missOrConflict explains why a conditional update matched no row
func (s *Storage) missOrConflict(ctx context.Context, id model.RoomID) error {
	var found int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM rooms WHERE id = ?`, string(id)).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrRoomNotFound
	}
	if err != nil {
		return err
	}
	return model.ErrVersionConflict
}

// Profile operations

func (s *Storage) SaveProfile(ctx context.Context, profile *model.PlayerProfile) error {
	state, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, state) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET state = excluded.state`,
		string(profile.ID), string(state),
	)
	return err
}

func (s *Storage) GetProfile(ctx context.Context, id model.PlayerID) (*model.PlayerProfile, error) {
	var state string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM profiles WHERE id = ?`, string(id)).Scan(&state)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrProfileNotFound
		}
		return nil, err
	}
	var profile model.PlayerProfile
	if err := json.Unmarshal([]byte(state), &profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &profile, nil
}

func scanRoom(row *sql.Row) (*model.Room, error) {
	var (
		name    string
		version int64
		state   string
	)
	if err := row.Scan(&name, &version, &state); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}
	var room model.Room
	if err := json.Unmarshal([]byte(state), &room); err != nil {
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

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
