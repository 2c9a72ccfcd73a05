package sqlite

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/farklegame/internal/model"
	"github.com/mcoot/farklegame/internal/storage"
	"github.com/mcoot/farklegame/internal/storage/storagetest"
)

func openTempStore(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "farkle.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStorageContract(t *testing.T) {
	suite.Run(t, &storagetest.Suite{
		NewStorage: func(t *testing.T) storage.Storage {
			return openTempStore(t)
		},
	})
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "farkle.db")
	ctx := t.Context()

	s, err := Open(path)
	require.NoError(t, err)
	room := &model.Room{ID: "room-1", Name: "Lucky Dice", Status: model.RoomStatusWaiting}
	require.NoError(t, s.CreateRoom(ctx, room))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetRoom(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, "Lucky Dice", got.Name)
	assert.Equal(t, int64(1), got.Version)
}

func TestConcurrentUpdatesOneWins(t *testing.T) {
	s := openTempStore(t)
	ctx := t.Context()
	room := &model.Room{ID: "room-1", Name: "Lucky Dice", Status: model.RoomStatusWaiting}
	require.NoError(t, s.CreateRoom(ctx, room))

	const writers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.UpdateRoom(ctx, room.Clone(), 1)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, model.ErrVersionConflict)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	got, err := s.GetRoom(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
}
