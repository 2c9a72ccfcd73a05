package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"ready", `{"event":"readyServer"}`},
		{"UNREADY", `{"event":"unreadyServer"}`},
		{"roll", `{"event":"rollServer"}`},
		{"bank", `{"event":"bankServer"}`},
		{"score 0 2 5", `{"event":"scoreServer","data":{"dice":[0,2,5]}}`},
		{"chat good luck  both", `{"event":"chatServer","data":{"message":"good luck  both"}}`},
		{"say hi", `{"event":"chatServer","data":{"message":"hi"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			msg, err := parseCommand(tt.line)
			require.NoError(t, err)
			data, err := json.Marshal(msg)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestParseCommandErrors(t *testing.T) {
	for _, line := range []string{"", "dance", "score", "score one", "chat"} {
		_, err := parseCommand(line)
		assert.Error(t, err, line)
	}
}

func TestWebsocketURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:8080/api/v1/rooms/x/ws", NewClient("http://localhost:8080/", "").WebsocketURL("/api/v1/rooms/x/ws"))
	assert.Equal(t, "wss://farkle.example.com/ws", NewClient("https://farkle.example.com", "").WebsocketURL("/ws"))
}

func TestDescribeEvent(t *testing.T) {
	tests := []struct {
		event string
		data  string
		want  string
	}{
		{"chatClient", `{"text":"hi","from":"bob@example.com"}`, "bob@example.com: hi"},
		{"chatClient", `{"text":"Bob joined the room","system":true}`, "Bob joined the room"},
		{"rollClient", `{"player_id":"alice@example.com","dice":[1,5,3]}`, "alice@example.com rolled [1 5 3]"},
		{"skipTurnClient", `{"room":{"turn":{"current":2,"player_id":"bob@example.com"}},"farkle":true,"dice":[2,3]}`, "farkle [2 3], turn passes to bob@example.com"},
		{"skipTurnClient", `{"room":{"turn":{"current":2,"player_id":"bob@example.com"}},"farkle":false,"dice":[]}`, "banked, turn passes to bob@example.com"},
		{"scoreClient", `{"id":"alice@example.com","score":150,"dice_remaining":4}`, "alice@example.com scored, running 150 with 4 dice left"},
		{"error", `{"code":"NOT_YOUR_TURN","message":"not this player's turn"}`, "not this player's turn (NOT_YOUR_TURN)"},
		{"readyClient", `[]`, "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			got := describeEvent(WireEvent{Event: tt.event, Data: json.RawMessage(tt.data)})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrintEventJSON(t *testing.T) {
	var buf bytes.Buffer
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	printEvent(&buf, WireEvent{Time: at, Event: "readyClient", Data: json.RawMessage(`[]`)}, true)

	var evt WireEvent
	require.NoError(t, json.Unmarshal(buf.Bytes(), &evt))
	assert.Equal(t, "readyClient", evt.Event)
	assert.True(t, at.Equal(evt.Time))
}

func TestPrintRoomText(t *testing.T) {
	var buf bytes.Buffer
	out := &Output{format: "text", w: &buf}
	out.Print(Room{
		ID:     "r1",
		Name:   "Lucky Dice",
		Status: "started",
		Turn:   Turn{Current: 3, PlayerID: "bob@example.com"},
		Players: []Player{
			{ID: "alice@example.com", DisplayName: "Alice", Bank: 600, DiceRemaining: 6},
			{ID: "bob@example.com", DisplayName: "Bob", Score: 100, DiceRemaining: 5, CurrentRoll: []int{2, 3}},
		},
	})

	text := buf.String()
	assert.Contains(t, text, "Room: Lucky Dice (r1)")
	assert.Contains(t, text, "Turn: 3 (bob@example.com)")
	assert.Contains(t, text, "  Alice (alice@example.com) bank=600 score=0 dice=6")
	assert.Contains(t, text, "> Bob (bob@example.com) bank=0 score=100 dice=5 roll=[2 3]")
}

func TestTokenFileRoundTrip(t *testing.T) {
	c := &Config{TokenFile: filepath.Join(t.TempDir(), "farkle", "token")}
	require.NoError(t, c.SaveToken("abc.def.ghi"))

	loaded := &Config{TokenFile: c.TokenFile}
	require.NoError(t, loaded.LoadToken())
	assert.Equal(t, "abc.def.ghi", loaded.Token)

	info, err := os.Stat(c.TokenFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestClientDecodesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":{"code":"ROOM_FULL","message":"room is full"}}`))
	}))
	defer srv.Close()

	var trace bytes.Buffer
	c := NewClient(srv.URL, "tok")
	c.trace = &trace

	err := c.Post(context.Background(), "/api/v1/rooms/enter", map[string]string{"name": "Lucky Dice"}, nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "ROOM_FULL", apiErr.Code)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "room is full (ROOM_FULL)", err.Error())
	assert.Contains(t, trace.String(), "POST "+srv.URL+"/api/v1/rooms/enter -> 409")
}

func TestClientDecodesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	var result HealthResult
	require.NoError(t, NewClient(srv.URL+"/", "").Get(context.Background(), "/api/v1/health", &result))
	assert.Equal(t, "ok", result.Status)
}

func TestClientNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "").Get(context.Background(), "/", nil)
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
	assert.Contains(t, err.Error(), "HTTP 502")
}

func TestDefaultConfigFromEnv(t *testing.T) {
	t.Setenv("FARKLE_SERVER", "https://farkle.example.com")
	t.Setenv("FARKLE_TOKEN_FILE", "/tmp/farkle-token")
	t.Setenv("FARKLE_OUTPUT", "json")

	c := DefaultConfig()
	assert.Equal(t, "https://farkle.example.com", c.ServerURL)
	assert.Equal(t, "/tmp/farkle-token", c.TokenFile)
	assert.Equal(t, "json", c.Output)
}
