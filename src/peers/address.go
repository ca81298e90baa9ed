package peers

import (
	"fmt"
	"strconv"
	"strings"
)

// NodeAddress identifies a node and classifies its role.
type NodeAddress uint8

const (
	// Coordinator is the address of the node holding the time reference.
	Coordinator NodeAddress = 0
	// Start is the address of the start gate.
	Start NodeAddress = 1
	// Finish is the address of the finish gate.
	Finish NodeAddress = 32
)

// Role is the coarse classification of a NodeAddress.
type Role uint8

const (
	// Unassigned is the role of reserved addresses
	Unassigned Role = iota
	// CoordinatorRole ...
	CoordinatorRole
	// GateRole ...
	GateRole
)

// String ...
func (r Role) String() string {
	switch r {
	case CoordinatorRole:
		return "coordinator"
	case GateRole:
		return "gate"
	default:
		return "unassigned"
	}
}

// IsCoordinator ...
func (a NodeAddress) IsCoordinator() bool {
	return a == Coordinator
}

// IsStart ...
func (a NodeAddress) IsStart() bool {
	return a == Start
}

// IsFinish ...
func (a NodeAddress) IsFinish() bool {
	return a == Finish
}

// IsGate returns true for the start and finish addresses.
func (a NodeAddress) IsGate() bool {
	return a.IsStart() || a.IsFinish()
}

// Role returns the role this address plays in a race.
func (a NodeAddress) Role() Role {
	switch {
	case a.IsCoordinator():
		return CoordinatorRole
	case a.IsGate():
		return GateRole
	default:
		return Unassigned
	}
}

// String returns the symbolic name of known addresses, and the numeric value
// of reserved ones.
func (a NodeAddress) String() string {
	switch a {
	case Coordinator:
		return "coordinator"
	case Start:
		return "start"
	case Finish:
		return "finish"
	default:
		return strconv.Itoa(int(a))
	}
}

// ParseNodeAddress accepts either a symbolic name (coordinator, start, finish)
// or a decimal byte value.
func ParseNodeAddress(s string) (NodeAddress, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "coordinator":
		return Coordinator, nil
	case "start":
		return Start, nil
	case "finish":
		return Finish, nil
	}

	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid node address %q: %w", s, err)
	}

	return NodeAddress(v), nil
}

// Gates lists the gate addresses tracked by a coordinator, in race order.
func Gates() []NodeAddress {
	return []NodeAddress{Start, Finish}
}
