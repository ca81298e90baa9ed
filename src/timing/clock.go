package timing

import (
	"errors"
	"math"
	"time"

	"github.com/jonboulle/clockwork"
)

var (
	// ErrClockRange is returned when an instant cannot be represented in
	// 32 bits of milliseconds. The timestamp of that tick is unreliable and
	// must not be used.
	ErrClockRange = errors.New("clock range exceeded")
)

// LocalClock measures LocalInstants from the moment it was created.
type LocalClock struct {
	clock clockwork.Clock
	start time.Time
}

// NewLocalClock creates a LocalClock reading time from clock. In production
// use clockwork.NewRealClock(); tests pass a FakeClock.
func NewLocalClock(clock clockwork.Clock) *LocalClock {
	return &LocalClock{
		clock: clock,
		start: clock.Now(),
	}
}

// Now returns the elapsed time since the clock was created, or
// ErrClockRange when it no longer fits in a LocalInstant.
func (c *LocalClock) Now() (LocalInstant, error) {
	ms := c.clock.Since(c.start).Milliseconds()
	if ms < 0 || ms > math.MaxUint32 {
		return 0, ErrClockRange
	}
	return LocalInstant(ms), nil
}

// Clock returns the underlying clockwork clock, which also drives tickers.
func (c *LocalClock) Clock() clockwork.Clock {
	return c.clock
}

// CoordinatedClock is a view of a LocalClock shifted by the currently held
// offset.
type CoordinatedClock struct {
	Local  *LocalClock
	Offset Offset
}

// Now returns the local time adjusted by the offset.
func (c CoordinatedClock) Now() (CoordinatedInstant, error) {
	l, err := c.Local.Now()
	if err != nil {
		return 0, err
	}
	return c.Offset.Apply(l)
}
