package model

// PlayerID is the stable identity of a player (their account email)
type PlayerID string

// DiceCount is the size of a fresh dice pool
const DiceCount = 6

// PlayerProfile is a known account as resolved by the identity verifier
type PlayerProfile struct {
	ID    PlayerID
	Email string
	Name  string
	Exp   int
}

// Player is a seat in a room
type Player struct {
	ID            PlayerID
	DisplayName   string
	Ready         bool
	Score         int   // Running, un-banked points for the current turn
	DiceRemaining int   // Dice available for the next roll (1-6)
	CurrentRoll   []int // Pending roll awaiting scoring, empty if none
	Bank          int   // Points made safe from a farkle
}

// NewPlayer seats a profile with a fresh dice pool
func NewPlayer(profile PlayerProfile) Player {
	return Player{
		ID:            profile.ID,
		DisplayName:   profile.Name,
		DiceRemaining: DiceCount,
		CurrentRoll:   []int{},
	}
}

// HasPendingRoll returns true if the player rolled and has not scored yet
func (p *Player) HasPendingRoll() bool {
	return len(p.CurrentRoll) > 0
}

// ResetTurn clears the per-turn state after a bank or a farkle
func (p *Player) ResetTurn() {
	p.Score = 0
	p.DiceRemaining = DiceCount
	p.CurrentRoll = []int{}
}

// Clone returns a copy that shares no memory with p
func (p Player) Clone() Player {
	roll := make([]int, len(p.CurrentRoll))
	copy(roll, p.CurrentRoll)
	p.CurrentRoll = roll
	return p
}
