// Package timing implements the time model shared by coordinator and gate
// nodes.
//
// Every node runs a free-running LocalClock measuring milliseconds since the
// process started. The coordinator's local clock is, by definition, the race
// time reference: its CoordinatedInstant equals its LocalInstant. A gate node
// approximates the reference by adding an Offset to its own local clock. The
// offset is recomputed on every tick from the most recent coordinator beacon
// as the difference between the time carried by the beacon and the local
// instant at which the beacon was received. There is no smoothing and no drift
// estimation: gate activations are latched instantaneously, so a fresh
// offset every tick is precise enough.
//
// Instants are 32-bit millisecond counters, matching the 4-byte timestamps of
// the wire protocol. A clock that has run past that range reports
// ErrClockRange instead of wrapping around.
package timing
