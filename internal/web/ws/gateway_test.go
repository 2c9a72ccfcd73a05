package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/farklegame/internal/api/apierr"
	"github.com/mcoot/farklegame/internal/api/response"
	"github.com/mcoot/farklegame/internal/dependencies/mocks"
	"github.com/mcoot/farklegame/internal/model"
	"github.com/mcoot/farklegame/internal/services/coordinator"
	"github.com/mcoot/farklegame/internal/services/room"
	"github.com/mcoot/farklegame/internal/storage/memory"
	"github.com/mcoot/farklegame/internal/testutil"
)

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type GatewaySuite struct {
	suite.Suite
	ctx        context.Context
	random     *mocks.MockRandom
	hubs       *HubManager
	controller *room.Controller
	server     *httptest.Server
	profiles   map[string]model.PlayerProfile
}

func TestGatewaySuite(t *testing.T) {
	suite.Run(t, new(GatewaySuite))
}

func (s *GatewaySuite) SetupTest() {
	s.ctx = context.Background()
	logger := testutil.NopLogger()
	s.random = mocks.NewMockRandom()
	s.hubs = NewHubManager(logger)
	s.controller = room.NewController(
		memory.New(),
		coordinator.New(),
		mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)),
		s.random,
		NewBroadcaster(s.hubs, logger),
		room.DefaultConfig(),
		logger,
	)
	gateway := NewGateway(s.controller, s.hubs, DefaultConfig(), logger)

	s.profiles = map[string]model.PlayerProfile{
		"alice": {ID: "alice@example.com", Email: "alice@example.com", Name: "Alice"},
		"bob":   {ID: "bob@example.com", Email: "bob@example.com", Name: "Bob"},
		"carol": {ID: "carol@example.com", Email: "carol@example.com", Name: "Carol"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/rooms/{id}/ws", func(w http.ResponseWriter, r *http.Request) {
		profile := s.profiles[r.URL.Query().Get("as")]
		gateway.ServeRoom(w, r, model.RoomID(r.PathValue("id")), profile)
	})
	s.server = httptest.NewServer(mux)
}

func (s *GatewaySuite) TearDownTest() {
	s.server.Close()
	s.hubs.CloseAll()
}

func (s *GatewaySuite) url(roomID model.RoomID, as, password string) string {
	u := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/rooms/" + string(roomID) + "/ws?as=" + as
	if password != "" {
		u += "&password=" + password
	}
	return u
}

func (s *GatewaySuite) dial(roomID model.RoomID, as string) *websocket.Conn {
	conn, _, err := websocket.Dial(s.ctx, s.url(roomID, as, ""), nil)
	s.Require().NoError(err)
	s.T().Cleanup(func() { conn.CloseNow() })
	return conn
}

func (s *GatewaySuite) next(conn *websocket.Conn) envelope {
	ctx, cancel := context.WithTimeout(s.ctx, 2*time.Second)
	defer cancel()
	var env envelope
	s.Require().NoError(wsjson.Read(ctx, conn, &env))
	return env
}

func (s *GatewaySuite) expect(conn *websocket.Conn, event string, into any) {
	env := s.next(conn)
	s.Require().Equal(event, env.Event, "data: %s", env.Data)
	if into != nil {
		s.Require().NoError(json.Unmarshal(env.Data, into))
	}
}

func (s *GatewaySuite) send(conn *websocket.Conn, event string, data any) {
	msg := map[string]any{"event": event}
	if data != nil {
		msg["data"] = data
	}
	s.Require().NoError(wsjson.Write(s.ctx, conn, msg))
}

func (s *GatewaySuite) createRoom(password string) *model.Room {
	r, err := s.controller.Create(s.ctx, "Lucky Dice", s.profiles["alice"], password)
	s.Require().NoError(err)
	return r
}

// connectBoth seats Alice and Bob and drains their join broadcasts
func (s *GatewaySuite) connectBoth(roomID model.RoomID) (*websocket.Conn, *websocket.Conn) {
	alice := s.dial(roomID, "alice")
	s.expect(alice, string(model.EventJoinRoom), nil)
	bob := s.dial(roomID, "bob")
	s.expect(alice, string(model.EventJoinRoom), nil)
	s.expect(bob, string(model.EventJoinRoom), nil)
	return alice, bob
}

func (s *GatewaySuite) TestConnectBroadcastsRoster() {
	r := s.createRoom("")

	alice := s.dial(r.ID, "alice")
	var players []response.Player
	s.expect(alice, string(model.EventJoinRoom), &players)
	s.Require().Len(players, 1)
	s.Equal("Alice", players[0].DisplayName)

	bob := s.dial(r.ID, "bob")
	s.expect(alice, string(model.EventJoinRoom), &players)
	s.Len(players, 2)
	s.expect(bob, string(model.EventJoinRoom), &players)
	s.Equal("Bob", players[1].DisplayName)

	stored, err := s.controller.GetRoom(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Len(stored.Players, 2)
}

func (s *GatewaySuite) TestUnknownRoomIsRejectedBeforeUpgrade() {
	_, resp, err := websocket.Dial(s.ctx, s.url("missing", "alice", ""), nil)
	s.Require().Error(err)
	s.Require().NotNil(resp)
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *GatewaySuite) TestJoinRejectedWhenFull() {
	r := s.createRoom("")
	s.connectBoth(r.ID)

	carol := s.dial(r.ID, "carol")
	var apiErr apierr.APIError
	s.expect(carol, string(model.EventError), &apiErr)
	s.Equal("ROOM_FULL", apiErr.Code)

	ctx, cancel := context.WithTimeout(s.ctx, 2*time.Second)
	defer cancel()
	_, _, err := carol.Read(ctx)
	s.Equal(websocket.StatusPolicyViolation, websocket.CloseStatus(err))
}

func (s *GatewaySuite) TestJoinRequiresPassword() {
	r, err := s.controller.Create(s.ctx, "Secret Club", s.profiles["alice"], "hunter")
	s.Require().NoError(err)

	bob := s.dial(r.ID, "bob")
	var apiErr apierr.APIError
	s.expect(bob, string(model.EventError), &apiErr)
	s.Equal("INVALID_PASSWORD", apiErr.Code)

	conn, _, err := websocket.Dial(s.ctx, s.url(r.ID, "bob", "hunter"), nil)
	s.Require().NoError(err)
	defer conn.CloseNow()
	var players []response.Player
	s.expect(conn, string(model.EventJoinRoom), &players)
	s.Len(players, 2)
}

func (s *GatewaySuite) TestChatReachesEveryone() {
	r := s.createRoom("")
	alice, bob := s.connectBoth(r.ID)

	s.send(bob, EventChat, ChatPayload{Message: "good luck"})

	var msg response.Message
	s.expect(alice, string(model.EventChat), &msg)
	s.Equal("good luck", msg.Text)
	s.Equal("bob@example.com", msg.From)
	s.expect(bob, string(model.EventChat), &msg)
	s.Equal("good luck", msg.Text)
}

func (s *GatewaySuite) TestErrorsGoToSenderOnly() {
	r := s.createRoom("")
	alice, bob := s.connectBoth(r.ID)

	s.send(alice, EventRoll, nil)
	var apiErr apierr.APIError
	s.expect(alice, string(model.EventError), &apiErr)
	s.Equal("GAME_NOT_STARTED", apiErr.Code)

	// Bob's next frame is the chat, not Alice's error
	s.send(alice, EventChat, ChatPayload{Message: "oops"})
	s.expect(bob, string(model.EventChat), nil)
	s.expect(alice, string(model.EventChat), nil)
}

func (s *GatewaySuite) TestMalformedAndUnknownEvents() {
	r := s.createRoom("")
	alice := s.dial(r.ID, "alice")
	s.expect(alice, string(model.EventJoinRoom), nil)

	var apiErr apierr.APIError

	s.Require().NoError(alice.Write(s.ctx, websocket.MessageText, []byte("not json")))
	s.expect(alice, string(model.EventError), &apiErr)
	s.Equal("MALFORMED_MESSAGE", apiErr.Code)

	s.send(alice, "danceServer", nil)
	s.expect(alice, string(model.EventError), &apiErr)
	s.Equal("UNKNOWN_EVENT", apiErr.Code)

	s.send(alice, EventChat, nil)
	s.expect(alice, string(model.EventError), &apiErr)
	s.Equal("MALFORMED_MESSAGE", apiErr.Code)

	s.send(alice, EventScore, "three dice please")
	s.expect(alice, string(model.EventError), &apiErr)
	s.Equal("MALFORMED_MESSAGE", apiErr.Code)

	// The connection survives bad input
	s.send(alice, EventChat, ChatPayload{Message: "still here"})
	s.expect(alice, string(model.EventChat), nil)
}

func (s *GatewaySuite) TestPlayATurn() {
	r := s.createRoom("")
	alice, bob := s.connectBoth(r.ID)

	// Alice goes first, then rolls 1 1 2 3 4 6
	s.random.QueueIntn(0)
	s.random.QueueDice(1, 1, 2, 3, 4, 6)

	s.send(alice, EventReady, nil)
	var players []response.Player
	s.expect(alice, string(model.EventReady), &players)
	s.True(players[0].Ready)
	s.expect(bob, string(model.EventReady), nil)

	s.send(bob, EventReady, nil)
	var started response.Room
	s.expect(alice, string(model.EventStart), &started)
	s.Equal("started", started.Status)
	s.Equal("alice@example.com", started.Turn.PlayerID)
	s.Equal(1, started.Turn.Current)
	s.expect(bob, string(model.EventStart), nil)

	s.send(alice, EventRoll, nil)
	var roll response.Roll
	s.expect(alice, string(model.EventRoll), &roll)
	s.Equal([]int{1, 1, 2, 3, 4, 6}, roll.Dice)
	s.Equal("alice@example.com", roll.PlayerID)
	s.expect(bob, string(model.EventRoll), nil)

	s.send(alice, EventScore, ScorePayload{Dice: []int{0, 1}})
	var scored response.Player
	s.expect(alice, string(model.EventScore), &scored)
	s.Equal(200, scored.Score)
	s.Equal(4, scored.DiceRemaining)
	s.expect(bob, string(model.EventScore), nil)

	s.send(alice, EventBank, nil)
	var skip response.SkipTurn
	s.expect(bob, string(model.EventSkipTurn), &skip)
	s.False(skip.Farkle)
	s.Equal("bob@example.com", skip.Room.Turn.PlayerID)
	s.Equal(2, skip.Room.Turn.Current)
	s.Equal(200, skip.Room.Players[0].Bank)
	s.expect(alice, string(model.EventSkipTurn), nil)

	// Not Alice's turn anymore
	s.send(alice, EventRoll, nil)
	var apiErr apierr.APIError
	s.expect(alice, string(model.EventError), &apiErr)
	s.Equal("NOT_YOUR_TURN", apiErr.Code)
}

func (s *GatewaySuite) TestDisconnectLeavesRoom() {
	r := s.createRoom("")
	alice, bob := s.connectBoth(r.ID)

	s.Require().NoError(bob.Close(websocket.StatusNormalClosure, ""))

	var players []response.Player
	s.expect(alice, string(model.EventLeftRoom), &players)
	s.Require().Len(players, 1)
	s.Equal("alice@example.com", players[0].ID)

	stored, err := s.controller.GetRoom(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Len(stored.Players, 1)
	s.Equal("Bob left the room", stored.LastMessage().Text)
}

func (s *GatewaySuite) TestSecondConnectionKeepsSeat() {
	r := s.createRoom("")
	alice, bob := s.connectBoth(r.ID)

	again := s.dial(r.ID, "bob")
	s.expect(again, string(model.EventJoinRoom), nil)
	s.expect(alice, string(model.EventJoinRoom), nil)
	s.expect(bob, string(model.EventJoinRoom), nil)

	s.Require().NoError(again.Close(websocket.StatusNormalClosure, ""))

	// Bob still holds a connection so nobody leaves
	s.send(alice, EventChat, ChatPayload{Message: "still two?"})
	s.expect(bob, string(model.EventChat), nil)

	stored, err := s.controller.GetRoom(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Len(stored.Players, 2)
}

func (s *GatewaySuite) TestLastDisconnectRemovesHub() {
	r := s.createRoom("")
	alice := s.dial(r.ID, "alice")
	s.expect(alice, string(model.EventJoinRoom), nil)
	s.Equal(1, s.hubs.HubCount())

	s.Require().NoError(alice.Close(websocket.StatusNormalClosure, ""))

	s.Eventually(func() bool {
		stored, err := s.controller.GetRoom(s.ctx, r.ID)
		return err == nil && len(stored.Players) == 0
	}, 2*time.Second, 10*time.Millisecond)
	s.Equal(0, s.hubs.HubCount())
}
