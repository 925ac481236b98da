package mocks

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcoot/competition-console/internal/dependencies/clock"
)

// MockClock is a controllable Clock for tests. Tickers created from it
// fire when Advance moves past their period.
type MockClock struct {
	*clockwork.FakeClock
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{FakeClock: clockwork.NewFakeClockAt(t)}
}

// Set moves the clock to the given time; it never moves backwards
func (c *MockClock) Set(t time.Time) {
	if d := t.Sub(c.Now()); d > 0 {
		c.Advance(d)
	}
}
