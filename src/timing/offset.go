package timing

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrCoordinatorBehind is returned when a coordinator timestamp lies
	// before the local reference it is compared against. The offset is
	// undefined in that case.
	ErrCoordinatorBehind = errors.New("coordinator time behind local time")
)

// Offset is the signed correction a gate adds to its LocalInstants to
// approximate CoordinatedInstants.
type Offset time.Duration

// Duration ...
func (o Offset) Duration() time.Duration {
	return time.Duration(o)
}

// Milliseconds ...
func (o Offset) Milliseconds() int64 {
	return time.Duration(o).Milliseconds()
}

// String ...
func (o Offset) String() string {
	return time.Duration(o).String()
}

// Apply shifts a local instant onto the coordinated time reference.
func (o Offset) Apply(l LocalInstant) (CoordinatedInstant, error) {
	ms := int64(l) + o.Milliseconds()
	if ms < 0 || ms > math.MaxUint32 {
		return 0, ErrClockRange
	}
	return CoordinatedInstant(ms), nil
}

// OffsetError records the operands of a failed offset computation.
type OffsetError struct {
	Coordinator CoordinatedInstant
	Local       LocalInstant
}

// Error ...
func (e *OffsetError) Error() string {
	return fmt.Sprintf("calculate offset: coordinator %v, local %v: %v",
		e.Coordinator, e.Local, ErrCoordinatorBehind)
}

// Unwrap ...
func (e *OffsetError) Unwrap() error {
	return ErrCoordinatorBehind
}

// CalculateOffset returns coordinator - local. It is defined when the
// coordinator time is at or after the local reference point; otherwise an
// *OffsetError wrapping ErrCoordinatorBehind is returned.
func CalculateOffset(coordinator CoordinatedInstant, local LocalInstant) (Offset, error) {
	if uint32(coordinator) < uint32(local) {
		return 0, &OffsetError{Coordinator: coordinator, Local: local}
	}
	ms := int64(coordinator) - int64(local)
	return Offset(time.Duration(ms) * time.Millisecond), nil
}
