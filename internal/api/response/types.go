package response

import (
	"time"

	"github.com/mcoot/farklegame/internal/model"
)

// Player represents a seated player in API responses
type Player struct {
	ID            string `json:"id"`
	DisplayName   string `json:"display_name"`
	Ready         bool   `json:"ready"`
	Score         int    `json:"score"`
	DiceRemaining int    `json:"dice_remaining"`
	CurrentRoll   []int  `json:"current_roll"`
	Bank          int    `json:"bank"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p model.Player) Player {
	roll := p.CurrentRoll
	if roll == nil {
		roll = []int{}
	}
	return Player{
		ID:            string(p.ID),
		DisplayName:   p.DisplayName,
		Ready:         p.Ready,
		Score:         p.Score,
		DiceRemaining: p.DiceRemaining,
		CurrentRoll:   roll,
		Bank:          p.Bank,
	}
}

// PlayersFromModel converts the seat list, keeping seat order
func PlayersFromModel(players []model.Player) []Player {
	result := make([]Player, len(players))
	for i, p := range players {
		result[i] = PlayerFromModel(p)
	}
	return result
}

// Message represents a chat entry
type Message struct {
	Text   string    `json:"text"`
	System bool      `json:"system"`
	From   string    `json:"from"`
	SentAt time.Time `json:"sent_at"`
}

// MessageFromModel converts model.Message
func MessageFromModel(m model.Message) Message {
	return Message{
		Text:   m.Text,
		System: m.System,
		From:   string(m.From),
		SentAt: m.SentAt,
	}
}

// Turn represents the turn counter and holder
type Turn struct {
	Current  int    `json:"current"`
	PlayerID string `json:"player_id"`
}

// Room represents a room in API responses. The password hash never leaves the server.
type Room struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	HasPassword bool      `json:"has_password"`
	Status      string    `json:"status"`
	Turn        Turn      `json:"turn"`
	Players     []Player  `json:"players"`
	Chat        []Message `json:"chat"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RoomFromModel converts model.Room
func RoomFromModel(r *model.Room) Room {
	chat := make([]Message, len(r.Chat))
	for i, m := range r.Chat {
		chat[i] = MessageFromModel(m)
	}
	return Room{
		ID:          string(r.ID),
		Name:        r.Name,
		HasPassword: r.HasPassword(),
		Status:      string(r.Status),
		Turn: Turn{
			Current:  r.Turn.Current,
			PlayerID: string(r.Turn.PlayerID),
		},
		Players:   PlayersFromModel(r.Players),
		Chat:      chat,
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// Roll is the payload of a roll event
type Roll struct {
	PlayerID string `json:"player_id"`
	Dice     []int  `json:"dice"`
}

// SkipTurn is the payload of a bank or farkle event
type SkipTurn struct {
	Room   Room  `json:"room"`
	Farkle bool  `json:"farkle"`
	Dice   []int `json:"dice"`
}

// Envelope frames every websocket message
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// EventData converts a committed event's payload to its wire form
func EventData(event model.Event) any {
	switch p := event.Payload.(type) {
	case []model.Player:
		return PlayersFromModel(p)
	case model.Player:
		return PlayerFromModel(p)
	case model.Message:
		return MessageFromModel(p)
	case *model.Room:
		return RoomFromModel(p)
	case model.RollPayload:
		return Roll{PlayerID: string(p.PlayerID), Dice: nonNil(p.Dice)}
	case model.SkipTurnPayload:
		return SkipTurn{Room: RoomFromModel(p.Room), Farkle: p.Farkle, Dice: nonNil(p.Dice)}
	default:
		return p
	}
}

// Profile represents the authenticated account
type Profile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Exp   int    `json:"exp"`
}

// ProfileFromModel converts a model.PlayerProfile to a Profile response
func ProfileFromModel(p *model.PlayerProfile) Profile {
	return Profile{
		ID:    string(p.ID),
		Email: p.Email,
		Name:  p.Name,
		Exp:   p.Exp,
	}
}

// Health is the response for the health check
type Health struct {
	Status string `json:"status"`
}

func nonNil(dice []int) []int {
	if dice == nil {
		return []int{}
	}
	return dice
}
