package memory

import (
	"context"
	"sync"

	"github.com/mcoot/farklegame/internal/model"
	"github.com/mcoot/farklegame/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	rooms     map[model.RoomID]*model.Room
	nameIndex map[string]model.RoomID
	profiles  map[model.PlayerID]*model.PlayerProfile
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		rooms:     make(map[model.RoomID]*model.Room),
		nameIndex: make(map[string]model.RoomID),
		profiles:  make(map[model.PlayerID]*model.PlayerProfile),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Room operations

func (s *Storage) CreateRoom(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nameIndex[room.Name]; ok {
		return model.ErrRoomNameTaken
	}
	stored := room.Clone()
	stored.Version = 1
	s.rooms[room.ID] = stored
	s.nameIndex[room.Name] = room.ID
	room.Version = 1
	return nil
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return room.Clone(), nil
}

func (s *Storage) GetRoomByName(ctx context.Context, name string) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.nameIndex[name]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return s.rooms[id].Clone(), nil
}

func (s *Storage) UpdateRoom(ctx context.Context, room *model.Room, expectedVersion int64) (*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.rooms[room.ID]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	if current.Version != expectedVersion {
		return nil, model.ErrVersionConflict
	}
	stored := room.Clone()
	stored.Name = current.Name
	stored.Version = expectedVersion + 1
	s.rooms[room.ID] = stored
	return stored.Clone(), nil
}

// Profile operations

func (s *Storage) SaveProfile(ctx context.Context, profile *model.PlayerProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := *profile
	s.profiles[profile.ID] = &p
	return nil
}

func (s *Storage) GetProfile(ctx context.Context, id model.PlayerID) (*model.PlayerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[id]
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	p := *profile
	return &p, nil
}
