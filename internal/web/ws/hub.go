package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/farklegame/internal/model"
)

// hubBufferSize bounds the broadcast queue of a single room
const hubBufferSize = 256

type membership struct {
	client *Client
	// Connections the client's player holds in the hub after the change
	reply chan int
}

// Hub manages the websocket clients subscribed to a single room
type Hub struct {
	roomID  model.RoomID
	clients map[*Client]bool
	mu      sync.RWMutex
	logger  *slog.Logger

	// Channels for managing clients
	register   chan membership
	unregister chan membership
	broadcast  chan []byte
	done       chan struct{}
}

// NewHub creates a new Hub for a room
func NewHub(roomID model.RoomID, logger *slog.Logger) *Hub {
	return &Hub{
		roomID:     roomID,
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("room_id", string(roomID))),
		register:   make(chan membership),
		unregister: make(chan membership),
		broadcast:  make(chan []byte, hubBufferSize),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Debug("ws hub started")
	for {
		select {
		case m := <-h.register:
			if h.stopping() {
				m.client.closeSend()
				m.reply <- -1
				continue
			}
			h.mu.Lock()
			h.clients[m.client] = true
			clientCount := len(h.clients)
			held := h.connectionsLocked(m.client.playerID)
			h.mu.Unlock()
			m.reply <- held
			h.logger.Info("ws client registered",
				slog.String("player_id", string(m.client.playerID)),
				slog.Int("total_clients", clientCount))

		case m := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[m.client]
			if ok {
				delete(h.clients, m.client)
				m.client.closeSend()
			}
			clientCount := len(h.clients)
			held := h.connectionsLocked(m.client.playerID)
			h.mu.Unlock()
			m.reply <- held
			if ok {
				h.logger.Info("ws client unregistered",
					slog.String("player_id", string(m.client.playerID)),
					slog.Duration("connection_duration", time.Since(m.client.connectedAt)),
					slog.Int("total_clients", clientCount))
			}

		case message := <-h.broadcast:
			h.fanOut(message)

		case <-h.done:
			h.mu.Lock()
			clientCount := len(h.clients)
			for client := range h.clients {
				client.closeSend()
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Debug("ws hub stopped", slog.Int("disconnected_clients", clientCount))
			return
		}
	}
}

// fanOut delivers a message to every client. A client whose buffer is full
// is dropped rather than allowed to stall the room.
func (h *Hub) fanOut(message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if client.enqueue(message) {
			continue
		}
		delete(h.clients, client)
		client.closeSend()
		h.logger.Warn("ws slow client dropped",
			slog.String("player_id", string(client.playerID)))
	}
}

func (h *Hub) stopping() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

func (h *Hub) connectionsLocked(playerID model.PlayerID) int {
	n := 0
	for client := range h.clients {
		if client.playerID == playerID {
			n++
		}
	}
	return n
}

// Register adds a client to the hub, returning false if the hub has stopped
func (h *Hub) Register(client *Client) bool {
	m := membership{client: client, reply: make(chan int, 1)}
	select {
	case h.register <- m:
		return <-m.reply >= 0
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub and reports how many connections
// its player still holds
func (h *Hub) Unregister(client *Client) int {
	m := membership{client: client, reply: make(chan int, 1)}
	select {
	case h.unregister <- m:
		return <-m.reply
	case <-h.done:
		return 0
	}
}

// Broadcast queues a message for all clients
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("ws broadcast dropped - hub buffer full")
	}
}

// Close shuts down the hub
func (h *Hub) Close() {
	close(h.done)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HasPlayer returns true if the player holds at least one connection
func (h *Hub) HasPlayer(playerID model.PlayerID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.connectionsLocked(playerID) > 0
}

// HubManager manages hubs for all rooms
type HubManager struct {
	hubs   map[model.RoomID]*Hub
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHubManager creates a new HubManager
func NewHubManager(logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:   make(map[model.RoomID]*Hub),
		logger: logger.With(slog.String("component", "ws")),
	}
}

// Attach registers a client with its room's hub, starting the hub if needed
func (m *HubManager) Attach(roomID model.RoomID, client *Client) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	hub, ok := m.hubs[roomID]
	if !ok {
		hub = NewHub(roomID, m.logger)
		m.hubs[roomID] = hub
		go hub.Run()
	}
	hub.Register(client)
	return hub
}

// Detach unregisters a client and stops the hub once nobody is left.
// It returns the number of connections the client's player still holds.
func (m *HubManager) Detach(roomID model.RoomID, client *Client) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	hub, ok := m.hubs[roomID]
	if !ok {
		return 0
	}
	remaining := hub.Unregister(client)
	if hub.ClientCount() == 0 {
		hub.Close()
		delete(m.hubs, roomID)
		m.logger.Debug("ws hub removed", slog.String("room_id", string(roomID)))
	}
	return remaining
}

// GetHub returns the hub for a room, or nil if nobody is subscribed
func (m *HubManager) GetHub(roomID model.RoomID) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[roomID]
}

// HubCount returns the number of rooms with live subscribers
func (m *HubManager) HubCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.hubs)
}

// CloseAll stops every hub, disconnecting their clients
func (m *HubManager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, hub := range m.hubs {
		hub.Close()
		delete(m.hubs, id)
	}
}
