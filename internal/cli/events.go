package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/spf13/cobra"
)

func newEventsCmd() *cobra.Command {
	var jsonOutput bool
	var password string

	cmd := &cobra.Command{
		Use:   "events <room-id>",
		Short: "Stream websocket events from a room",
		Long: `Connect to the room's websocket and stream events in real-time.
Connecting takes a seat in the room; disconnecting gives it up.

Events include:
  - joinRoom / leftRoom: roster changed
  - chatClient: chat message
  - readyClient / unreadyClient: readiness changed
  - startClient: game started
  - rollClient: dice rolled
  - scoreClient: dice scored
  - skipTurnClient: turn banked or farkled
  - error: a request from this connection failed

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			conn, err := dialRoom(ctx, args[0], password)
			if err != nil {
				return err
			}
			defer conn.CloseNow()

			if !jsonOutput {
				fmt.Printf("Connected to room %s\n", args[0])
			}
			err = streamEvents(ctx, conn, os.Stdout, jsonOutput)
			_ = conn.Close(websocket.StatusNormalClosure, "")
			if !jsonOutput {
				fmt.Println("Disconnected")
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")
	cmd.Flags().StringVar(&password, "password", "", "Room password")

	return cmd
}

func newPlayCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "play <room-id>",
		Short: "Play interactively in a room",
		Long: `Connect to a room and send commands read from stdin, one per line:

  ready | unready | roll | bank
  score <index>...   set aside dice by position in the pending roll
  chat <message>

Events are printed as they arrive. End input or press Ctrl+C to leave.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			conn, err := dialRoom(ctx, args[0], password)
			if err != nil {
				return err
			}
			defer conn.CloseNow()

			streamErr := make(chan error, 1)
			go func() {
				streamErr <- streamEvents(ctx, conn, os.Stdout, false)
				cancel()
			}()

			if err := sendCommands(ctx, conn, os.Stdin); err != nil {
				return err
			}
			_ = conn.Close(websocket.StatusNormalClosure, "")
			return <-streamErr
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Room password")

	return cmd
}

// WireEvent is one websocket message
type WireEvent struct {
	Time  time.Time       `json:"time"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func dialRoom(ctx context.Context, roomID, password string) (*websocket.Conn, error) {
	u := client.WebsocketURL("/api/v1/rooms/" + url.PathEscape(roomID) + "/ws")
	if password != "" {
		u += "?" + url.Values{"password": []string{password}}.Encode()
	}

	opts := &websocket.DialOptions{HTTPHeader: http.Header{}}
	if cfg.Token != "" {
		opts.HTTPHeader.Set("Authorization", "Bearer "+cfg.Token)
	}

	conn, resp, err := websocket.Dial(ctx, u, opts)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("connection failed: HTTP %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("connection failed: %w", err)
	}
	return conn, nil
}

func streamEvents(ctx context.Context, conn *websocket.Conn, w io.Writer, jsonOutput bool) error {
	for {
		var evt WireEvent
		if err := wsjson.Read(ctx, conn, &evt); err != nil {
			// Context cancellation and clean closes are expected
			if ctx.Err() != nil {
				return nil
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			case websocket.StatusPolicyViolation:
				return fmt.Errorf("rejected by server: %w", err)
			}
			return fmt.Errorf("stream error: %w", err)
		}
		evt.Time = time.Now()
		printEvent(w, evt, jsonOutput)
	}
}

func sendCommands(ctx context.Context, conn *websocket.Conn, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		msg, err := parseCommand(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			continue
		}
		if err := wsjson.Write(ctx, conn, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("send failed: %w", err)
		}
	}
	return scanner.Err()
}

// outbound is a message sent to the server
type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

var errUsage = errors.New("commands: ready, unready, roll, bank, score <index>..., chat <message>")

func parseCommand(line string) (outbound, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return outbound{}, errUsage
	}

	switch strings.ToLower(fields[0]) {
	case "ready":
		return outbound{Event: "readyServer"}, nil
	case "unready":
		return outbound{Event: "unreadyServer"}, nil
	case "roll":
		return outbound{Event: "rollServer"}, nil
	case "bank":
		return outbound{Event: "bankServer"}, nil
	case "score":
		if len(fields) < 2 {
			return outbound{}, errors.New("score needs at least one dice index")
		}
		indices := make([]int, 0, len(fields)-1)
		for _, f := range fields[1:] {
			i, err := strconv.Atoi(f)
			if err != nil {
				return outbound{}, fmt.Errorf("invalid dice index %q", f)
			}
			indices = append(indices, i)
		}
		return outbound{Event: "scoreServer", Data: map[string][]int{"dice": indices}}, nil
	case "chat", "say":
		text := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
		if text == "" {
			return outbound{}, errors.New("chat needs a message")
		}
		return outbound{Event: "chatServer", Data: map[string]string{"message": text}}, nil
	default:
		return outbound{}, errUsage
	}
}

func printEvent(w io.Writer, evt WireEvent, jsonOutput bool) {
	if jsonOutput {
		jsonData, _ := json.Marshal(evt)
		fmt.Fprintln(w, string(jsonData))
		return
	}

	timestamp := evt.Time.Format("2006-01-02 15:04:05")
	fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, evt.Event, describeEvent(evt))
}

// describeEvent renders the interesting part of an event on one line
func describeEvent(evt WireEvent) string {
	switch evt.Event {
	case "chatClient":
		var m Message
		if json.Unmarshal(evt.Data, &m) == nil {
			if m.System {
				return m.Text
			}
			return m.From + ": " + m.Text
		}
	case "rollClient":
		var r struct {
			PlayerID string `json:"player_id"`
			Dice     []int  `json:"dice"`
		}
		if json.Unmarshal(evt.Data, &r) == nil {
			return r.PlayerID + " rolled " + formatDice(r.Dice)
		}
	case "skipTurnClient":
		var s struct {
			Room   Room  `json:"room"`
			Farkle bool  `json:"farkle"`
			Dice   []int `json:"dice"`
		}
		if json.Unmarshal(evt.Data, &s) == nil {
			if s.Farkle {
				return "farkle " + formatDice(s.Dice) + ", turn passes to " + s.Room.Turn.PlayerID
			}
			return "banked, turn passes to " + s.Room.Turn.PlayerID
		}
	case "scoreClient":
		var p Player
		if json.Unmarshal(evt.Data, &p) == nil {
			return fmt.Sprintf("%s scored, running %d with %d dice left", p.ID, p.Score, p.DiceRemaining)
		}
	case "error":
		var e APIError
		if json.Unmarshal(evt.Data, &e) == nil {
			return e.Error()
		}
	}

	// Truncate data if it's too long for display
	display := string(evt.Data)
	if len(display) > 100 {
		display = display[:100] + "..."
	}
	return display
}
