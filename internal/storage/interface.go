package storage

import (
	"context"

	"github.com/mcoot/farklegame/internal/model"
)

// RoomStore persists the room aggregate with optimistic concurrency.
// Implementations return copies; callers never share memory with the store.
type RoomStore interface {
	// CreateRoom inserts a new room at version 1.
	// Returns model.ErrRoomNameTaken if the name is already used.
	CreateRoom(ctx context.Context, room *model.Room) error

	// GetRoom returns model.ErrRoomNotFound if no room has the ID
	GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error)

	// GetRoomByName returns model.ErrRoomNotFound if no room has the name
	GetRoomByName(ctx context.Context, name string) (*model.Room, error)

	// UpdateRoom replaces the stored room if its version still equals
	// expectedVersion, and returns the stored copy at expectedVersion+1.
	// Returns model.ErrVersionConflict otherwise.
	UpdateRoom(ctx context.Context, room *model.Room, expectedVersion int64) (*model.Room, error)
}

// ProfileStore holds the player profiles the identity verifier resolves
type ProfileStore interface {
	SaveProfile(ctx context.Context, profile *model.PlayerProfile) error
	// GetProfile returns model.ErrProfileNotFound if the profile is unknown
	GetProfile(ctx context.Context, id model.PlayerID) (*model.PlayerProfile, error)
}

// Storage defines the interface for data persistence
type Storage interface {
	RoomStore
	ProfileStore
}
