package model

import "time"

// RoomID uniquely identifies a room
type RoomID string

// RoomStatus represents the current phase of a room
type RoomStatus string

const (
	RoomStatusWaiting  RoomStatus = "waiting"  // Seating and readiness
	RoomStatusStarted  RoomStatus = "started"  // Game in progress
	RoomStatusFinished RoomStatus = "finished" // Reserved, no transition leads here
)

const (
	// MaxPlayers is the number of seats in a room
	MaxPlayers = 2
	// MaxRoomNameLength bounds room names
	MaxRoomNameLength = 25
	// MaxMessageLength bounds chat messages
	MaxMessageLength = 350
)

// Turn tracks whose turn it is and how many turns have begun
type Turn struct {
	Current  int
	PlayerID PlayerID // Empty while waiting
}

// Message is one chat log entry
type Message struct {
	Text   string
	System bool     // True for messages generated by the server
	From   PlayerID // Empty for system messages
	SentAt time.Time
}

// Room is a single game session and the only aggregate the engine persists
type Room struct {
	ID           RoomID
	Name         string
	PasswordHash string // bcrypt hash, empty for open rooms
	Status       RoomStatus
	Turn         Turn
	Players      []Player  // Seat order
	Chat         []Message // Append-only
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword returns true if entering the room requires a password
func (r *Room) HasPassword() bool {
	return r.PasswordHash != ""
}

// GetPlayer returns the seated player with the given ID, or nil if not seated
func (r *Room) GetPlayer(id PlayerID) *Player {
	for i := range r.Players {
		if r.Players[i].ID == id {
			return &r.Players[i]
		}
	}
	return nil
}

// IsFull returns true if every seat is taken
func (r *Room) IsFull() bool {
	return len(r.Players) >= MaxPlayers
}

// AllReady returns true if there is at least one player and every seated player is ready
func (r *Room) AllReady() bool {
	if len(r.Players) == 0 {
		return false
	}
	for _, p := range r.Players {
		if !p.Ready {
			return false
		}
	}
	return true
}

// TurnHolder returns the player whose turn it is, or nil if no turn is active
func (r *Room) TurnHolder() *Player {
	if r.Turn.PlayerID == "" {
		return nil
	}
	return r.GetPlayer(r.Turn.PlayerID)
}

// NextPlayer returns the seat after the given player, wrapping around
func (r *Room) NextPlayer(id PlayerID) *Player {
	for i := range r.Players {
		if r.Players[i].ID == id {
			return &r.Players[(i+1)%len(r.Players)]
		}
	}
	return nil
}

// RemovePlayer unseats a player, returning false if they were not seated
func (r *Room) RemovePlayer(id PlayerID) bool {
	for i := range r.Players {
		if r.Players[i].ID == id {
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			return true
		}
	}
	return false
}

// AppendMessage adds a message to the end of the chat log
func (r *Room) AppendMessage(msg Message) {
	r.Chat = append(r.Chat, msg)
}

// LastMessage returns the most recent chat entry, or nil if the log is empty
func (r *Room) LastMessage() *Message {
	if len(r.Chat) == 0 {
		return nil
	}
	return &r.Chat[len(r.Chat)-1]
}

// Clone returns a deep copy so callers can mutate without touching shared state
func (r *Room) Clone() *Room {
	c := *r
	c.Players = make([]Player, len(r.Players))
	for i, p := range r.Players {
		c.Players[i] = p.Clone()
	}
	c.Chat = make([]Message, len(r.Chat))
	copy(c.Chat, r.Chat)
	return &c
}
