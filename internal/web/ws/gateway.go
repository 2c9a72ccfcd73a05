package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/mcoot/farklegame/internal/api/apierr"
	"github.com/mcoot/farklegame/internal/api/response"
	"github.com/mcoot/farklegame/internal/model"
)

// Inbound event names
const (
	EventChat    = "chatServer"
	EventReady   = "readyServer"
	EventUnready = "unreadyServer"
	EventRoll    = "rollServer"
	EventScore   = "scoreServer"
	EventBank    = "bankServer"
)

// RoomService is the set of room operations reachable over a connection
type RoomService interface {
	GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error)
	Join(ctx context.Context, roomID model.RoomID, profile model.PlayerProfile, password string) (*model.Room, error)
	Leave(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) (*model.Room, error)
	Ready(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) (*model.Room, error)
	Unready(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) (*model.Room, error)
	RollDice(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) (*model.RollResult, error)
	Score(ctx context.Context, roomID model.RoomID, playerID model.PlayerID, indices []int) (*model.Player, error)
	Bank(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) (*model.Room, error)
	Chat(ctx context.Context, roomID model.RoomID, playerID model.PlayerID, text string) (*model.Message, error)
}

// ChatPayload is the data of a chatServer event
type ChatPayload struct {
	Message string `json:"message"`
}

// ScorePayload is the data of a scoreServer event
type ScorePayload struct {
	Dice []int `json:"dice"`
}

// Config holds gateway settings
type Config struct {
	// OriginPatterns lists extra browser origins allowed to connect
	OriginPatterns []string
	// LeaveTimeout bounds the leave issued after the last connection of a player closes
	LeaveTimeout time.Duration
}

// DefaultConfig returns the default gateway configuration
func DefaultConfig() Config {
	return Config{
		LeaveTimeout: 10 * time.Second,
	}
}

// Gateway connects websocket sessions to room operations
type Gateway struct {
	rooms  RoomService
	hubs   *HubManager
	config Config
	logger *slog.Logger
}

// NewGateway creates a new Gateway
func NewGateway(rooms RoomService, hubs *HubManager, config Config, logger *slog.Logger) *Gateway {
	return &Gateway{
		rooms:  rooms,
		hubs:   hubs,
		config: config,
		logger: logger.With(slog.String("component", "ws-gateway")),
	}
}

// ServeRoom upgrades the request and runs a session for profile in a room
// until either side disconnects. The room must exist before the upgrade.
func (g *Gateway) ServeRoom(w http.ResponseWriter, r *http.Request, roomID model.RoomID, profile model.PlayerProfile) {
	if _, err := g.rooms.GetRoom(r.Context(), roomID); err != nil {
		apierr.WriteError(w, err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: g.config.OriginPatterns,
	})
	if err != nil {
		g.logger.Warn("ws accept failed", slog.Any("error", err))
		return
	}
	defer conn.CloseNow()

	logger := g.logger.With(
		slog.String("room_id", string(roomID)),
		slog.String("player_id", string(profile.ID)))

	// Subscribe before joining so the joiner sees its own joinRoom
	client := NewClient(conn, profile.ID)
	g.hubs.Attach(roomID, client)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if _, err := g.rooms.Join(context.WithoutCancel(ctx), roomID, profile, r.URL.Query().Get("password")); err != nil {
		g.hubs.Detach(roomID, client)
		logger.Info("ws join rejected", slog.Any("error", err))
		if msg, merr := errorMessage(err); merr == nil {
			_ = client.write(ctx, msg)
		}
		code := apierr.FromError(err).Code
		_ = conn.Close(websocket.StatusPolicyViolation, code)
		return
	}
	logger.Info("ws session started")

	go client.writePump(ctx)

	readErr := client.readPump(ctx, func(ctx context.Context, msg inbound) {
		g.dispatch(ctx, roomID, client, msg)
	})
	cancel()

	remaining := g.hubs.Detach(roomID, client)
	logger.Info("ws session ended",
		slog.Int("close_status", int(websocket.CloseStatus(readErr))),
		slog.Int("remaining_connections", remaining))

	if remaining == 0 {
		g.leave(r.Context(), roomID, profile.ID, logger)
	}
}

// leave unseats a player whose last connection closed. The request context is
// already done by now so it only contributes values.
func (g *Gateway) leave(ctx context.Context, roomID model.RoomID, playerID model.PlayerID, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.config.LeaveTimeout)
	defer cancel()

	if _, err := g.rooms.Leave(ctx, roomID, playerID); err != nil && !errors.Is(err, model.ErrPlayerNotFound) {
		logger.Error("ws leave failed", slog.Any("error", err))
	}
}

// dispatch runs the room operation an inbound event maps to. Broadcasts come
// from the room service; only failures are answered here, to the sender.
func (g *Gateway) dispatch(ctx context.Context, roomID model.RoomID, client *Client, msg inbound) {
	// Operations run to completion even if the connection drops mid-flight
	ctx = context.WithoutCancel(ctx)
	playerID := client.playerID

	var err error
	switch msg.Event {
	case EventChat:
		var p ChatPayload
		if err = decode(msg.Data, &p); err == nil {
			_, err = g.rooms.Chat(ctx, roomID, playerID, p.Message)
		}
	case EventReady:
		_, err = g.rooms.Ready(ctx, roomID, playerID)
	case EventUnready:
		_, err = g.rooms.Unready(ctx, roomID, playerID)
	case EventRoll:
		_, err = g.rooms.RollDice(ctx, roomID, playerID)
	case EventScore:
		var p ScorePayload
		if err = decode(msg.Data, &p); err == nil {
			_, err = g.rooms.Score(ctx, roomID, playerID, p.Dice)
		}
	case EventBank:
		_, err = g.rooms.Bank(ctx, roomID, playerID)
	case "":
		err = model.ErrMalformedMessage
	default:
		err = model.ErrUnknownEvent
	}

	if err != nil {
		g.sendError(client, msg.Event, err)
	}
}

func (g *Gateway) sendError(client *Client, event string, err error) {
	if model.KindOf(err) == "" {
		g.logger.Error("ws operation failed",
			slog.String("event", event),
			slog.String("player_id", string(client.playerID)),
			slog.Any("error", err))
	}
	msg, merr := errorMessage(err)
	if merr != nil {
		return
	}
	if !client.enqueue(msg) {
		g.logger.Warn("ws error reply dropped", slog.String("player_id", string(client.playerID)))
	}
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return model.ErrMalformedMessage
	}
	if err := json.Unmarshal(data, v); err != nil {
		return model.ErrMalformedMessage
	}
	return nil
}

func errorMessage(err error) ([]byte, error) {
	return json.Marshal(response.Envelope{
		Event: string(model.EventError),
		Data:  apierr.FromError(err),
	})
}
