// Package room implements the farkle room state machine: seating, readiness,
// turn rotation, rolling, scoring, banking and chat.
package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/farklegame/internal/dependencies/clock"
	"github.com/mcoot/farklegame/internal/dependencies/random"
	"github.com/mcoot/farklegame/internal/model"
	"github.com/mcoot/farklegame/internal/services/auth"
	"github.com/mcoot/farklegame/internal/services/coordinator"
	"github.com/mcoot/farklegame/internal/storage"
)

// Publisher receives every committed event, in the order the room's versions were written.
// Publish is called inside the room's exclusive section and must not block.
type Publisher interface {
	Publish(ctx context.Context, event model.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, model.Event) {}

// Config holds configuration for the room controller
type Config struct {
	// MaxUpdateAttempts bounds reload-and-retry on a version conflict
	MaxUpdateAttempts int
}

// DefaultConfig returns default controller configuration
func DefaultConfig() Config {
	return Config{
		MaxUpdateAttempts: 3,
	}
}

// Controller manages the room state machine
type Controller struct {
	storage     storage.RoomStore
	coordinator *coordinator.Coordinator
	clock       clock.Clock
	random      random.Random
	publisher   Publisher
	cfg         Config
	logger      *slog.Logger
}

// NewController creates a new RoomController. A nil publisher discards events.
func NewController(
	storage storage.RoomStore,
	coordinator *coordinator.Coordinator,
	clock clock.Clock,
	random random.Random,
	publisher Publisher,
	cfg Config,
	logger *slog.Logger,
) *Controller {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if cfg.MaxUpdateAttempts <= 0 {
		cfg.MaxUpdateAttempts = DefaultConfig().MaxUpdateAttempts
	}
	return &Controller{
		storage:     storage,
		coordinator: coordinator,
		clock:       clock,
		random:      random,
		publisher:   publisher,
		cfg:         cfg,
		logger:      logger.With(slog.String("component", "room")),
	}
}

// outcome describes what a successful step publishes
type outcome struct {
	event model.EventType
	// payload builds the event payload from the persisted room
	payload func(saved *model.Room) any
	// readOnly publishes without writing, leaving the version unchanged
	readOnly bool
}

// step validates and applies one operation to a freshly loaded room
type step func(room *model.Room) (*outcome, error)

func roomKey(id model.RoomID) string {
	return "room:" + string(id)
}

func nameKey(name string) string {
	return "name:" + name
}

// mutate runs a read-modify-write cycle for one room inside its exclusive section.
// The write is conditional on the version read; a conflict means another process
// wrote the room, so the step is re-applied to a fresh copy a bounded number of times.
func (c *Controller) mutate(ctx context.Context, roomID model.RoomID, actor model.PlayerID, apply step) (*model.Room, error) {
	var saved *model.Room
	err := c.coordinator.Do(ctx, roomKey(roomID), func(ctx context.Context) error {
		for attempt := 1; ; attempt++ {
			room, err := c.storage.GetRoom(ctx, roomID)
			if err != nil {
				return err
			}

			out, err := apply(room)
			if err != nil {
				return err
			}

			if out.readOnly {
				saved = room
				c.publish(ctx, saved, actor, out)
				return nil
			}

			room.UpdatedAt = c.clock.Now()
			saved, err = c.storage.UpdateRoom(ctx, room, room.Version)
			if err == nil {
				c.publish(ctx, saved, actor, out)
				return nil
			}
			if !errors.Is(err, model.ErrVersionConflict) {
				return fmt.Errorf("update room: %w", err)
			}

			c.logger.Warn("version conflict",
				slog.String("room_id", string(roomID)),
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", c.cfg.MaxUpdateAttempts),
			)
			if attempt >= c.cfg.MaxUpdateAttempts {
				return model.ErrConcurrentUpdate
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (c *Controller) publish(ctx context.Context, saved *model.Room, actor model.PlayerID, out *outcome) {
	c.publisher.Publish(ctx, model.Event{
		Type:     out.event,
		RoomID:   saved.ID,
		PlayerID: actor,
		Version:  saved.Version,
		Payload:  out.payload(saved.Clone()),
	})
}

func playersPayload(saved *model.Room) any {
	return saved.Players
}

func roomPayload(saved *model.Room) any {
	return saved
}

// GetRoom retrieves a room by ID
func (c *Controller) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	return c.storage.GetRoom(ctx, id)
}

// Create opens a new room with the creator seated
func (c *Controller) Create(ctx context.Context, name string, creator model.PlayerProfile, password string) (*model.Room, error) {
	if err := ValidateRoomName(name); err != nil {
		return nil, err
	}

	var hash string
	if password != "" {
		var err error
		if hash, err = auth.HashPassword(password); err != nil {
			return nil, err
		}
	}

	var room *model.Room
	err := c.coordinator.Do(ctx, nameKey(name), func(ctx context.Context) error {
		if _, err := c.storage.GetRoomByName(ctx, name); err == nil {
			return model.ErrRoomNameTaken
		} else if !errors.Is(err, model.ErrRoomNotFound) {
			return err
		}

		now := c.clock.Now()
		player := model.NewPlayer(creator)
		room = &model.Room{
			ID:           model.RoomID(uuid.NewString()),
			Name:         name,
			PasswordHash: hash,
			Status:       model.RoomStatusWaiting,
			Turn:         model.Turn{Current: 0, PlayerID: ""},
			Players:      []model.Player{player},
			Chat:         []model.Message{joinMessage(player, now)},
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return c.storage.CreateRoom(ctx, room)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("room created",
		slog.String("room_id", string(room.ID)),
		slog.String("room_name", room.Name),
		slog.String("player_id", string(creator.ID)),
		slog.Bool("password", room.HasPassword()),
	)
	return room, nil
}

// Enter seats a player in a room looked up by name
func (c *Controller) Enter(ctx context.Context, name string, profile model.PlayerProfile, password string) (*model.Room, error) {
	if err := ValidateRoomName(name); err != nil {
		return nil, err
	}
	found, err := c.storage.GetRoomByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return c.mutate(ctx, found.ID, profile.ID, func(room *model.Room) (*outcome, error) {
		if err := checkPassword(room, password); err != nil {
			return nil, err
		}
		if err := c.seat(room, profile); err != nil {
			return nil, err
		}
		return &outcome{event: model.EventJoinRoom, payload: playersPayload}, nil
	})
}

// Join seats a player in a room by ID, or reaffirms an existing seat without a
// write. Either way the roster is broadcast.
func (c *Controller) Join(ctx context.Context, roomID model.RoomID, profile model.PlayerProfile, password string) (*model.Room, error) {
	return c.mutate(ctx, roomID, profile.ID, func(room *model.Room) (*outcome, error) {
		if room.GetPlayer(profile.ID) != nil {
			return &outcome{event: model.EventJoinRoom, payload: playersPayload, readOnly: true}, nil
		}
		if err := checkPassword(room, password); err != nil {
			return nil, err
		}
		if err := c.seat(room, profile); err != nil {
			return nil, err
		}
		return &outcome{event: model.EventJoinRoom, payload: playersPayload}, nil
	})
}

func (c *Controller) seat(room *model.Room, profile model.PlayerProfile) error {
	if room.GetPlayer(profile.ID) != nil {
		return model.ErrAlreadyInRoom
	}
	if room.Status != model.RoomStatusWaiting {
		return model.ErrGameNotWaiting
	}
	if room.IsFull() {
		return model.ErrRoomFull
	}
	player := model.NewPlayer(profile)
	room.Players = append(room.Players, player)
	room.AppendMessage(joinMessage(player, c.clock.Now()))
	return nil
}

// Leave unseats a player. Leaving a started game sends the room back to waiting.
func (c *Controller) Leave(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) (*model.Room, error) {
	return c.mutate(ctx, roomID, playerID, func(room *model.Room) (*outcome, error) {
		player := room.GetPlayer(playerID)
		if player == nil {
			return nil, model.ErrPlayerNotFound
		}
		name := player.DisplayName
		room.RemovePlayer(playerID)

		if room.Status == model.RoomStatusStarted {
			room.Status = model.RoomStatusWaiting
			room.Turn = model.Turn{Current: 0, PlayerID: ""}
			for i := range room.Players {
				room.Players[i].Ready = false
				room.Players[i].ResetTurn()
			}
			c.logger.Info("game interrupted",
				slog.String("room_id", string(room.ID)),
				slog.String("player_id", string(playerID)),
			)
		}

		room.AppendMessage(model.Message{
			Text:   name + " left the room",
			System: true,
			SentAt: c.clock.Now(),
		})
		return &outcome{event: model.EventLeftRoom, payload: playersPayload}, nil
	})
}

func joinMessage(player model.Player, at time.Time) model.Message {
	return model.Message{
		Text:   player.DisplayName + " joined the room",
		System: true,
		SentAt: at,
	}
}
