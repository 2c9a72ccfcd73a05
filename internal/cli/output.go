package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format, w: os.Stdout}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError writes err to stderr. API errors keep their code in JSON mode.
func (o *Output) PrintError(err error) {
	if o.format != "json" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return
	}

	body := ErrorResponse{Error: APIError{Message: err.Error()}}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		body.Error = *apiErr
	}
	data, _ := json.Marshal(body)
	fmt.Fprintln(os.Stderr, string(data))
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Room:
		o.printRoom(v)
	case Player:
		o.printPlayer(v)
	case Profile:
		o.printProfile(v)
	case TokenResult:
		fmt.Fprintln(o.w, v.Token)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID            string `json:"id"`
	DisplayName   string `json:"display_name"`
	Ready         bool   `json:"ready"`
	Score         int    `json:"score"`
	DiceRemaining int    `json:"dice_remaining"`
	CurrentRoll   []int  `json:"current_roll"`
	Bank          int    `json:"bank"`
}

// Message response type
type Message struct {
	Text   string `json:"text"`
	System bool   `json:"system"`
	From   string `json:"from"`
}

// Turn response type
type Turn struct {
	Current  int    `json:"current"`
	PlayerID string `json:"player_id"`
}

// Room response type
type Room struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	HasPassword bool      `json:"has_password"`
	Status      string    `json:"status"`
	Turn        Turn      `json:"turn"`
	Players     []Player  `json:"players"`
	Chat        []Message `json:"chat"`
	Version     int64     `json:"version"`
}

// Profile response type
type Profile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Exp   int    `json:"exp"`
}

// TokenResult is a signed development token
type TokenResult struct {
	Token string `json:"token"`
}

// HealthResult response type
type HealthResult struct {
	Status    string `json:"status"`
	Server    string `json:"server,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

func (o *Output) printRoom(r Room) {
	lock := ""
	if r.HasPassword {
		lock = " [password]"
	}
	fmt.Fprintf(o.w, "Room: %s (%s)%s\n", r.Name, r.ID, lock)
	fmt.Fprintf(o.w, "Status: %s\n", r.Status)
	if r.Turn.PlayerID != "" {
		fmt.Fprintf(o.w, "Turn: %d (%s)\n", r.Turn.Current, r.Turn.PlayerID)
	}
	fmt.Fprintf(o.w, "Players (%d):\n", len(r.Players))
	for _, p := range r.Players {
		o.printPlayerLine(p, r.Turn.PlayerID)
	}
	if len(r.Chat) > 0 {
		fmt.Fprintln(o.w, "Chat:")
		for _, m := range r.Chat {
			from := m.From
			if m.System {
				from = "*"
			}
			fmt.Fprintf(o.w, "  %s: %s\n", from, m.Text)
		}
	}
}

func (o *Output) printPlayerLine(p Player, turnHolder string) {
	marker := " "
	if p.ID == turnHolder {
		marker = ">"
	}
	ready := ""
	if p.Ready {
		ready = " [ready]"
	}
	fmt.Fprintf(o.w, " %s %s (%s)%s bank=%d score=%d dice=%d", marker, p.DisplayName, p.ID, ready, p.Bank, p.Score, p.DiceRemaining)
	if len(p.CurrentRoll) > 0 {
		fmt.Fprintf(o.w, " roll=%s", formatDice(p.CurrentRoll))
	}
	fmt.Fprintln(o.w)
}

func (o *Output) printPlayer(p Player) {
	o.printPlayerLine(p, "")
}

func (o *Output) printProfile(p Profile) {
	fmt.Fprintf(o.w, "Profile: %s (%s)\n", p.Name, p.ID)
	fmt.Fprintf(o.w, "Email: %s\n", p.Email)
	fmt.Fprintf(o.w, "Exp: %d\n", p.Exp)
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	if h.Server != "" {
		fmt.Fprintf(o.w, "Server: %s (%dms)\n", h.Server, h.LatencyMS)
	}
}

func formatDice(dice []int) string {
	parts := make([]string, len(dice))
	for i, d := range dice {
		parts[i] = fmt.Sprintf("%d", d)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
