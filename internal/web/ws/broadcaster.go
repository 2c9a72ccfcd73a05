package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mcoot/farklegame/internal/api/response"
	"github.com/mcoot/farklegame/internal/model"
)

// Broadcaster publishes committed room events to the room's subscribers
type Broadcaster struct {
	hubManager *HubManager
	logger     *slog.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hubManager *HubManager, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubManager: hubManager,
		logger:     logger.With(slog.String("component", "ws-broadcaster")),
	}
}

// Publish sends an event to every connection subscribed to its room
func (b *Broadcaster) Publish(_ context.Context, event model.Event) {
	hub := b.hubManager.GetHub(event.RoomID)
	if hub == nil {
		return
	}

	msg, err := json.Marshal(response.Envelope{
		Event: string(event.Type),
		Data:  response.EventData(event),
	})
	if err != nil {
		b.logger.Error("ws failed to encode event",
			slog.String("room_id", string(event.RoomID)),
			slog.String("event", string(event.Type)),
			slog.Any("error", err))
		return
	}

	hub.Broadcast(msg)
}
