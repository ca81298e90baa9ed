package wire

import (
	"fmt"

	"github.com/racegate/racegate/src/peers"
	"github.com/racegate/racegate/src/platform"
	"github.com/racegate/racegate/src/timing"
)

// Message is a payload carried by a Frame.
type Message interface {
	Tag() Tag
}

// CoordinatorBeacon advertises the coordinator's time reference.
type CoordinatorBeacon struct {
	Time  timing.CoordinatedInstant
	Stamp Stamp

	// Legacy marks a beacon in the single-tag layout: tag 1 with the
	// coordinator address in byte 1.
	Legacy bool
}

// Tag implements the Message interface.
func (b CoordinatorBeacon) Tag() Tag {
	if b.Legacy {
		return TagGateBeacon
	}
	return TagCoordinatorBeacon
}

// String ...
func (b CoordinatorBeacon) String() string {
	return fmt.Sprintf("CoordinatorBeacon{time=%v stamp=%v}", b.Time, b.Stamp)
}

// GateBeacon reports the state of a gate and the coordinated time of its
// last activation.
type GateBeacon struct {
	Address        peers.NodeAddress
	State          platform.GateState
	LastActivation timing.Latch
	Stamp          Stamp
}

// Tag implements the Message interface.
func (GateBeacon) Tag() Tag {
	return TagGateBeacon
}

// String ...
func (b GateBeacon) String() string {
	return fmt.Sprintf("GateBeacon{addr=%v state=%v last=%v stamp=%v}",
		b.Address, b.State, b.LastActivation, b.Stamp)
}
