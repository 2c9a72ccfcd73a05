package model

// EventType identifies a real-time broadcast to room subscribers
type EventType string

const (
	EventJoinRoom EventType = "joinRoom"       // Payload: []Player
	EventLeftRoom EventType = "leftRoom"       // Payload: []Player
	EventChat     EventType = "chatClient"     // Payload: Message
	EventReady    EventType = "readyClient"    // Payload: []Player
	EventUnready  EventType = "unreadyClient"  // Payload: []Player
	EventStart    EventType = "startClient"    // Payload: *Room
	EventRoll     EventType = "rollClient"     // Payload: RollPayload
	EventSkipTurn EventType = "skipTurnClient" // Payload: SkipTurnPayload
	EventScore    EventType = "scoreClient"    // Payload: Player
	EventError    EventType = "error"          // Sent to a single connection only
)

// Event is a committed state transition, published in persistence order
type Event struct {
	Type     EventType
	RoomID   RoomID
	PlayerID PlayerID // The player who triggered the transition
	Version  int64    // Room version after the transition
	Payload  any
}

// RollPayload contains data for roll events
type RollPayload struct {
	PlayerID PlayerID
	Dice     []int
}

// SkipTurnPayload contains data for skip turn events, raised by a bank or a farkle
type SkipTurnPayload struct {
	Room   *Room
	Farkle bool
	Dice   []int // The busted roll, empty on bank
}

// RollResult is the outcome of a roll as returned to the caller
type RollResult struct {
	Dice   []int
	Farkle bool
	Room   *Room
}
