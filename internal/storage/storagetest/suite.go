// Package storagetest holds the behaviour every storage backend must share.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/farklegame/internal/model"
	"github.com/mcoot/farklegame/internal/storage"
)

// Suite runs the storage contract against a backend. Embed it or pass it to
// suite.Run with NewStorage set.
type Suite struct {
	suite.Suite
	NewStorage func(t *testing.T) storage.Storage

	Store storage.Storage
	Ctx   context.Context
}

func (s *Suite) SetupTest() {
	s.Store = s.NewStorage(s.T())
	s.Ctx = context.Background()
}

var fixedTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newRoom(id, name string) *model.Room {
	return &model.Room{
		ID:     model.RoomID(id),
		Name:   name,
		Status: model.RoomStatusWaiting,
		Turn:   model.Turn{Current: 0, PlayerID: ""},
		Players: []model.Player{
			model.NewPlayer(model.PlayerProfile{ID: "alice@example.com", Name: "Alice"}),
		},
		Chat: []model.Message{
			{Text: "Alice joined the room", System: true, SentAt: fixedTime},
		},
		CreatedAt: fixedTime,
		UpdatedAt: fixedTime,
	}
}

// Room tests

func (s *Suite) TestCreateAndGetRoom() {
	room := newRoom("room-1", "Lucky Dice")

	err := s.Store.CreateRoom(s.Ctx, room)
	s.Require().NoError(err)
	s.Equal(int64(1), room.Version)

	retrieved, err := s.Store.GetRoom(s.Ctx, "room-1")
	s.Require().NoError(err)
	s.Equal(room.Name, retrieved.Name)
	s.Equal(int64(1), retrieved.Version)
	s.Equal(model.RoomStatusWaiting, retrieved.Status)
	s.Require().Len(retrieved.Players, 1)
	s.Equal(model.PlayerID("alice@example.com"), retrieved.Players[0].ID)
	s.Equal(model.DiceCount, retrieved.Players[0].DiceRemaining)
	s.Require().Len(retrieved.Chat, 1)
	s.True(retrieved.Chat[0].System)
	s.True(fixedTime.Equal(retrieved.CreatedAt))
}

func (s *Suite) TestGetRoomByName() {
	_ = s.Store.CreateRoom(s.Ctx, newRoom("room-1", "Lucky Dice"))

	retrieved, err := s.Store.GetRoomByName(s.Ctx, "Lucky Dice")
	s.Require().NoError(err)
	s.Equal(model.RoomID("room-1"), retrieved.ID)
}

func (s *Suite) TestGetRoomNotFound() {
	_, err := s.Store.GetRoom(s.Ctx, "nonexistent")
	s.ErrorIs(err, model.ErrRoomNotFound)

	_, err = s.Store.GetRoomByName(s.Ctx, "Nobody Here")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *Suite) TestCreateRoomNameTaken() {
	s.Require().NoError(s.Store.CreateRoom(s.Ctx, newRoom("room-1", "Lucky Dice")))

	err := s.Store.CreateRoom(s.Ctx, newRoom("room-2", "Lucky Dice"))
	s.ErrorIs(err, model.ErrRoomNameTaken)

	_, err = s.Store.GetRoom(s.Ctx, "room-2")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *Suite) TestUpdateRoomIncrementsVersion() {
	room := newRoom("room-1", "Lucky Dice")
	_ = s.Store.CreateRoom(s.Ctx, room)

	room.Players[0].Ready = true
	room.Players[0].CurrentRoll = []int{1, 5, 3}
	room.Turn = model.Turn{Current: 2, PlayerID: "alice@example.com"}

	updated, err := s.Store.UpdateRoom(s.Ctx, room, 1)
	s.Require().NoError(err)
	s.Equal(int64(2), updated.Version)

	retrieved, err := s.Store.GetRoom(s.Ctx, "room-1")
	s.Require().NoError(err)
	s.Equal(int64(2), retrieved.Version)
	s.True(retrieved.Players[0].Ready)
	s.Equal([]int{1, 5, 3}, retrieved.Players[0].CurrentRoll)
	s.Equal(2, retrieved.Turn.Current)
	s.Equal(model.PlayerID("alice@example.com"), retrieved.Turn.PlayerID)
}

func (s *Suite) TestUpdateRoomVersionConflict() {
	room := newRoom("room-1", "Lucky Dice")
	_ = s.Store.CreateRoom(s.Ctx, room)

	_, err := s.Store.UpdateRoom(s.Ctx, room, 1)
	s.Require().NoError(err)

	// A writer still holding version 1 loses
	room.Players[0].Ready = true
	_, err = s.Store.UpdateRoom(s.Ctx, room, 1)
	s.ErrorIs(err, model.ErrVersionConflict)

	retrieved, _ := s.Store.GetRoom(s.Ctx, "room-1")
	s.Equal(int64(2), retrieved.Version)
	s.False(retrieved.Players[0].Ready)
}

func (s *Suite) TestUpdateRoomNotFound() {
	_, err := s.Store.UpdateRoom(s.Ctx, newRoom("missing", "Missing"), 1)
	s.Error(err)
}

func (s *Suite) TestReturnedRoomsAreCopies() {
	_ = s.Store.CreateRoom(s.Ctx, newRoom("room-1", "Lucky Dice"))

	first, _ := s.Store.GetRoom(s.Ctx, "room-1")
	first.Players[0].Score = 999
	first.Chat = append(first.Chat, model.Message{Text: "not saved"})

	second, _ := s.Store.GetRoom(s.Ctx, "room-1")
	s.Equal(0, second.Players[0].Score)
	s.Len(second.Chat, 1)
}

func (s *Suite) TestChatOrderPreserved() {
	room := newRoom("room-1", "Lucky Dice")
	_ = s.Store.CreateRoom(s.Ctx, room)

	for _, text := range []string{"one", "two", "three"} {
		room.AppendMessage(model.Message{Text: text, From: "alice@example.com", SentAt: fixedTime})
	}
	_, err := s.Store.UpdateRoom(s.Ctx, room, 1)
	s.Require().NoError(err)

	retrieved, _ := s.Store.GetRoom(s.Ctx, "room-1")
	s.Require().Len(retrieved.Chat, 4)
	s.Equal("one", retrieved.Chat[1].Text)
	s.Equal("two", retrieved.Chat[2].Text)
	s.Equal("three", retrieved.Chat[3].Text)
}

// Profile tests

func (s *Suite) TestSaveAndGetProfile() {
	profile := &model.PlayerProfile{ID: "alice@example.com", Email: "alice@example.com", Name: "Alice", Exp: 10}

	s.Require().NoError(s.Store.SaveProfile(s.Ctx, profile))

	retrieved, err := s.Store.GetProfile(s.Ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Equal(*profile, *retrieved)
}

func (s *Suite) TestSaveProfileOverwrites() {
	_ = s.Store.SaveProfile(s.Ctx, &model.PlayerProfile{ID: "alice@example.com", Name: "Alice"})
	_ = s.Store.SaveProfile(s.Ctx, &model.PlayerProfile{ID: "alice@example.com", Name: "Alice B"})

	retrieved, err := s.Store.GetProfile(s.Ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Equal("Alice B", retrieved.Name)
}

func (s *Suite) TestGetProfileNotFound() {
	_, err := s.Store.GetProfile(s.Ctx, "nobody@example.com")
	s.ErrorIs(err, model.ErrProfileNotFound)
}
