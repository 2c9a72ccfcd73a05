package factory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/farklegame/internal/config"
	"github.com/mcoot/farklegame/internal/model"
	redisstorage "github.com/mcoot/farklegame/internal/storage/redis"
	"github.com/mcoot/farklegame/internal/storage/sqlite"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context

	alice model.PlayerProfile
	bob   model.PlayerProfile
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()

	s.alice = model.PlayerProfile{ID: "alice@example.com", Email: "alice@example.com", Name: "Alice"}
	s.bob = model.PlayerProfile{ID: "bob@example.com", Email: "bob@example.com", Name: "Bob"}
	s.Require().NoError(s.app.Storage.SaveProfile(s.ctx, &s.alice))
	s.Require().NoError(s.app.Storage.SaveProfile(s.ctx, &s.bob))
}

// Test: tokens issued for stored profiles resolve back to them
func (s *IntegrationSuite) TestTokenResolvesProfile() {
	token, err := s.app.AuthService.Issue(&s.alice)
	s.Require().NoError(err)

	profile, err := s.app.AuthService.Verify(s.ctx, token)
	s.Require().NoError(err)
	s.Equal(s.alice, *profile)
}

// Test: Complete game flow from room creation to a banked and a busted turn
func (s *IntegrationSuite) TestCompleteGameFlow() {
	// Step 1: Alice creates a room and Bob enters it
	created, err := s.app.RoomController.Create(s.ctx, "High Rollers", s.alice, "")
	s.Require().NoError(err)
	_, err = s.app.RoomController.Enter(s.ctx, "High Rollers", s.bob, "")
	s.Require().NoError(err)

	// Step 2: Both ready; the second seat is chosen to start
	s.app.MockRandom.QueueIntn(1)
	_, err = s.app.RoomController.Ready(s.ctx, created.ID, s.alice.ID)
	s.Require().NoError(err)
	started, err := s.app.RoomController.Ready(s.ctx, created.ID, s.bob.ID)
	s.Require().NoError(err)
	s.Equal(model.RoomStatusStarted, started.Status)
	s.Equal(s.bob.ID, started.Turn.PlayerID)

	// Step 3: Bob rolls three fives and a one, scores them and banks
	s.app.MockRandom.QueueDice(5, 5, 5, 1, 2, 3)
	roll, err := s.app.RoomController.RollDice(s.ctx, created.ID, s.bob.ID)
	s.Require().NoError(err)
	s.False(roll.Farkle)

	player, err := s.app.RoomController.Score(s.ctx, created.ID, s.bob.ID, []int{0, 1, 2, 3})
	s.Require().NoError(err)
	s.Equal(600, player.Score)
	s.Equal(2, player.DiceRemaining)

	banked, err := s.app.RoomController.Bank(s.ctx, created.ID, s.bob.ID)
	s.Require().NoError(err)
	s.Equal(600, banked.GetPlayer(s.bob.ID).Bank)
	s.Equal(s.alice.ID, banked.Turn.PlayerID)
	s.Equal(2, banked.Turn.Current)

	// Step 4: Alice farkles and the turn comes straight back to Bob
	s.app.MockRandom.QueueDice(2, 3, 4, 6, 2, 3)
	roll, err = s.app.RoomController.RollDice(s.ctx, created.ID, s.alice.ID)
	s.Require().NoError(err)
	s.True(roll.Farkle)
	s.Equal(s.bob.ID, roll.Room.Turn.PlayerID)
	s.Equal(3, roll.Room.Turn.Current)
	s.Zero(roll.Room.GetPlayer(s.alice.ID).Bank)

	// Step 5: Chat and the persisted log
	_, err = s.app.RoomController.Chat(s.ctx, created.ID, s.alice.ID, "unlucky")
	s.Require().NoError(err)

	final, err := s.app.RoomController.GetRoom(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("unlucky", final.LastMessage().Text)
	s.Equal(600, final.GetPlayer(s.bob.ID).Bank)
	s.Zero(s.app.MockRandom.Pending(), "every scripted roll was used")
}

func TestNewMemory(t *testing.T) {
	app, err := New(context.Background(), Config{})
	require.NoError(t, err)
	defer app.Close()

	assert.NotNil(t, app.RoomController)
	assert.NotNil(t, app.Gateway)
}

func TestNewSQLite(t *testing.T) {
	app, err := New(context.Background(), Config{
		StorageType: config.StorageSQLite,
		SQLitePath:  filepath.Join(t.TempDir(), "farkle.db"),
	})
	require.NoError(t, err)
	defer app.Close()

	_, ok := app.Storage.(*sqlite.Storage)
	assert.True(t, ok)
}

func TestNewRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	redisCfg := redisstorage.DefaultConfig()
	redisCfg.URL = "redis://" + mr.Addr()

	app, err := New(context.Background(), Config{
		StorageType: config.StorageRedis,
		RedisConfig: &redisCfg,
	})
	require.NoError(t, err)
	defer app.Close()

	_, ok := app.Storage.(*redisstorage.Storage)
	assert.True(t, ok)
}

func TestNewErrors(t *testing.T) {
	_, err := New(context.Background(), Config{StorageType: "floppy"})
	assert.ErrorContains(t, err, "invalid StorageType")

	_, err = New(context.Background(), Config{StorageType: config.StorageRedis})
	assert.ErrorContains(t, err, "RedisConfig required")

	_, err = New(context.Background(), Config{StorageType: config.StorageSQLite})
	assert.ErrorContains(t, err, "open sqlite storage")
}

func TestConfigFromEnv(t *testing.T) {
	cfg := ConfigFromEnv(config.Config{
		StorageType:       config.StorageRedis,
		RedisURL:          "redis://cache:6379",
		RedisKeyPrefix:    "staging",
		RoomTTL:           0,
		JWTSecret:         "shh",
		MaxUpdateAttempts: 7,
		AllowedOrigins:    []string{"example.com"},
	}, nil)

	require.NotNil(t, cfg.RedisConfig)
	assert.Equal(t, "redis://cache:6379", cfg.RedisConfig.URL)
	assert.Zero(t, cfg.RedisConfig.RoomTTL)
	assert.Equal(t, "staging", cfg.RedisConfig.KeyPrefix)
	assert.Equal(t, "shh", cfg.AuthConfig.Secret)
	assert.Equal(t, 7, cfg.RoomConfig.MaxUpdateAttempts)
	assert.Equal(t, []string{"example.com"}, cfg.GatewayConfig.OriginPatterns)

	cfg = withDefaults(cfg)
	assert.Equal(t, "shh", cfg.AuthConfig.Secret, "defaults keep the secret")
	assert.NotZero(t, cfg.AuthConfig.TokenTTL)
}
