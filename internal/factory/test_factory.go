package factory

import (
	"time"

	"github.com/mcoot/farklegame/internal/dependencies/mocks"
	"github.com/mcoot/farklegame/internal/services/auth"
	"github.com/mcoot/farklegame/internal/storage/memory"
	"github.com/mcoot/farklegame/internal/testutil"
)

// TestSecret signs tokens in apps built by NewTestApp
const TestSecret = "test-secret"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	Memory     *memory.Storage
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	cfg := withDefaults(Config{AuthConfig: auth.Config{Secret: TestSecret}})
	app := newWithDependencies(store, mockClock, mockRandom, cfg, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		Memory:     store,
	}
}
