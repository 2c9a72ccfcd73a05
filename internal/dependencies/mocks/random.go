package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/farklegame/internal/dependencies/random"
)

// MockRandom replays queued values. With the queue empty Intn returns 0,
// which RollDie turns into a 1 and first-turn selection into seat 0.
type MockRandom struct {
	mu    sync.Mutex
	queue []int
}

var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued value. A queued value outside [0, n) panics,
// since it means the test scripted a roll the caller never asked for.
func (r *MockRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		return 0
	}
	v := r.queue[0]
	r.queue = r.queue[1:]
	if v < 0 || v >= n {
		panic(fmt.Sprintf("mocks: queued value %d out of range for Intn(%d)", v, n))
	}
	return v
}

// QueueIntn adds values to the Intn result queue
func (r *MockRandom) QueueIntn(values ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue = append(r.queue, values...)
}

// QueueDice queues die faces (1-6) for RollDie
func (r *MockRandom) QueueDice(faces ...int) {
	values := make([]int, len(faces))
	for i, f := range faces {
		values[i] = f - 1
	}
	r.QueueIntn(values...)
}

// Pending returns how many queued values have not been consumed
func (r *MockRandom) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}
