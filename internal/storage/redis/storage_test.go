package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/farklegame/internal/model"
	"github.com/mcoot/farklegame/internal/storage"
	"github.com/mcoot/farklegame/internal/storage/storagetest"
)

func newTestStorage(t *testing.T, mini *miniredis.Miniredis) *Storage {
	client := redis.NewClient(&redis.Options{
		Addr: mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.RoomTTL = time.Hour

	s := NewWithClient(client, cfg)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStorageContract(t *testing.T) {
	suite.Run(t, &storagetest.Suite{
		NewStorage: func(t *testing.T) storage.Storage {
			return newTestStorage(t, miniredis.RunT(t))
		},
	})
}

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())
	s.storage = newTestStorage(s.T(), s.mini)
	s.ctx = context.Background()
}

func (s *StorageSuite) room() *model.Room {
	return &model.Room{
		ID:      "room-1",
		Name:    "Lucky Dice",
		Status:  model.RoomStatusWaiting,
		Players: []model.Player{model.NewPlayer(model.PlayerProfile{ID: "alice@example.com", Name: "Alice"})},
		Chat:    []model.Message{},
	}
}

func (s *StorageSuite) TestRoomTTLApplied() {
	s.Require().NoError(s.storage.CreateRoom(s.ctx, s.room()))

	s.True(s.mini.Exists(s.storage.keys.room("room-1")))
	s.Equal(time.Hour, s.mini.TTL(s.storage.keys.room("room-1")))
	s.Equal(time.Hour, s.mini.TTL(s.storage.keys.roomName("Lucky Dice")))
}

func (s *StorageSuite) TestRoomExpires() {
	s.Require().NoError(s.storage.CreateRoom(s.ctx, s.room()))

	s.mini.FastForward(2 * time.Hour)

	_, err := s.storage.GetRoom(s.ctx, "room-1")
	s.ErrorIs(err, model.ErrRoomNotFound)

	// The name is free again once the index expires
	s.NoError(s.storage.CreateRoom(s.ctx, s.room()))
}

func (s *StorageSuite) TestUpdateRefreshesTTL() {
	room := s.room()
	s.Require().NoError(s.storage.CreateRoom(s.ctx, room))

	s.mini.FastForward(30 * time.Minute)
	_, err := s.storage.UpdateRoom(s.ctx, room, 1)
	s.Require().NoError(err)

	s.Equal(time.Hour, s.mini.TTL(s.storage.keys.room("room-1")))
	s.Equal(time.Hour, s.mini.TTL(s.storage.keys.roomName("Lucky Dice")))
}

func (s *StorageSuite) TestUpdateKeepsOriginalName() {
	room := s.room()
	s.Require().NoError(s.storage.CreateRoom(s.ctx, room))

	room.Name = "Renamed"
	updated, err := s.storage.UpdateRoom(s.ctx, room, 1)
	s.Require().NoError(err)
	s.Equal("Lucky Dice", updated.Name)
}

func (s *StorageSuite) TestProfileHasNoTTL() {
	s.Require().NoError(s.storage.SaveProfile(s.ctx, &model.PlayerProfile{ID: "alice@example.com", Name: "Alice"}))
	s.Equal(time.Duration(0), s.mini.TTL(s.storage.keys.profile("alice@example.com")))
}

func (s *StorageSuite) TestKeyPrefixIsolatesDeployments() {
	client := redis.NewClient(&redis.Options{Addr: s.mini.Addr()})
	cfg := DefaultConfig()
	cfg.KeyPrefix = "staging"
	other := NewWithClient(client, cfg)
	defer func() { _ = other.Close() }()

	s.Require().NoError(s.storage.CreateRoom(s.ctx, s.room()))
	s.True(s.mini.Exists("farkle:room:room-1"))

	_, err := other.GetRoom(s.ctx, "room-1")
	s.ErrorIs(err, model.ErrRoomNotFound)

	// Same name is free under another prefix
	s.Require().NoError(other.CreateRoom(s.ctx, s.room()))
	s.True(s.mini.Exists("staging:idx:room_name:Lucky Dice"))
}

func (s *StorageSuite) TestConnectionError() {
	s.mini.Close()

	_, err := s.storage.GetRoom(s.ctx, "room-1")
	s.Error(err)
	s.NotErrorIs(err, model.ErrRoomNotFound)
}
