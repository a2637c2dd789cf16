package persist

import (
	"context"
	"sync"

	"github.com/sokoni/duka-api/internal/cart"
)

// Memory is an in-process cart.Slot used by tests and by sessions that have
// no durable backend configured.
type Memory struct {
	mu    sync.Mutex
	lines []cart.Line
	saved int

	// LoadErr and SaveErr, when set, are returned by the respective
	// operations to exercise failure paths.
	LoadErr error
	SaveErr error
}

// Load returns the stored line list.
func (m *Memory) Load(_ context.Context) ([]cart.Line, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	out := make([]cart.Line, len(m.lines))
	copy(out, m.lines)
	return out, nil
}

// Save overwrites the stored line list.
func (m *Memory) Save(_ context.Context, lines []cart.Line) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.lines = make([]cart.Line, len(lines))
	copy(m.lines, lines)
	m.saved++
	return nil
}

// Lines returns a copy of the last saved line list.
func (m *Memory) Lines() []cart.Line {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]cart.Line, len(m.lines))
	copy(out, m.lines)
	return out
}

// SaveCount reports how many times Save succeeded.
func (m *Memory) SaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved
}
