package timing

import (
	"fmt"
	"time"
)

// LocalInstant is a monotonic timestamp, in milliseconds, relative to the
// start of the node's LocalClock.
type LocalInstant uint32

// CoordinatedInstant is a timestamp, in milliseconds, on the coordinator's
// time reference.
type CoordinatedInstant uint32

// Milliseconds ...
func (l LocalInstant) Milliseconds() uint32 {
	return uint32(l)
}

// Sub returns the signed duration l-o.
func (l LocalInstant) Sub(o LocalInstant) time.Duration {
	return time.Duration(int64(l)-int64(o)) * time.Millisecond
}

// String ...
func (l LocalInstant) String() string {
	return fmt.Sprintf("L+%dms", uint32(l))
}

// Milliseconds ...
func (c CoordinatedInstant) Milliseconds() uint32 {
	return uint32(c)
}

// Sub returns the signed duration c-o.
func (c CoordinatedInstant) Sub(o CoordinatedInstant) time.Duration {
	return time.Duration(int64(c)-int64(o)) * time.Millisecond
}

// String ...
func (c CoordinatedInstant) String() string {
	return fmt.Sprintf("C+%dms", uint32(c))
}

// Reference converts a coordinator's local instant into the coordinated time
// reference. Only the coordinator may do this: its offset is zero by
// definition.
func Reference(l LocalInstant) CoordinatedInstant {
	return CoordinatedInstant(l)
}

// Latch holds the coordinated instant of the last gate activation. It only
// changes when a new activation is observed and keeps its value across
// ticks in which the gate is inactive.
type Latch struct {
	Time CoordinatedInstant
	Set  bool
}

// Update returns the latch after observing the gate at instant now. An active
// gate overwrites the latched time; an inactive one leaves it untouched.
func (l Latch) Update(active bool, now CoordinatedInstant) Latch {
	if !active {
		return l
	}
	return Latch{Time: now, Set: true}
}

// String ...
func (l Latch) String() string {
	if !l.Set {
		return "none"
	}
	return l.Time.String()
}
