package node

import (
	"github.com/racegate/racegate/src/platform"
	"github.com/racegate/racegate/src/race"
	"github.com/racegate/racegate/src/timing"
)

// AppState is the state of the node. It is one of InitState,
// CoordinatorReadyState, GateStartupState or GateReadyState. All variants are
// comparable with ==.
type AppState interface {
	Name() string
	appState()
}

// InitState is the state of a node whose role is not determined yet.
type InitState struct{}

// CoordinatorReadyState is the state of a running coordinator.
type CoordinatorReadyState struct {
	Time timing.CoordinatedInstant
	Race race.Race
}

// GateStartupState is the state of a gate waiting for the coordinator.
type GateStartupState struct {
	Since timing.LocalInstant
}

// GateReadyState is the state of a synchronized gate.
type GateReadyState struct {
	Offset         timing.Offset
	Gate           platform.GateState
	LastActivation timing.Latch
}

// Name ...
func (InitState) Name() string { return "Init" }

// Name ...
func (CoordinatorReadyState) Name() string { return "CoordinatorReady" }

// Name ...
func (GateStartupState) Name() string { return "GateStartup" }

// Name ...
func (GateReadyState) Name() string { return "GateReady" }

func (InitState) appState() {}
func (CoordinatorReadyState) appState() {}
func (GateStartupState) appState() {}
func (GateReadyState) appState() {}

// sameVariant reports whether a and b are the same kind of state.
func sameVariant(a, b AppState) bool {
	return a.Name() == b.Name()
}

// steady masks the fields that move on every tick of a healthy node: the
// coordinator's clock and the gate's offset jitter.
func steady(s AppState) AppState {
	switch v := s.(type) {
	case CoordinatorReadyState:
		v.Time = 0
		return v
	case GateReadyState:
		v.Offset = 0
		return v
	default:
		return s
	}
}

// Indicator colours.
const (
	ColorInit             platform.Color = 0xFF0000
	ColorCoordinatorReady platform.Color = 0xFFFFFF
	ColorGateStartup      platform.Color = 0xFFFF00
	ColorGateActive       platform.Color = 0x008080
	ColorGateLinkUp       platform.Color = 0x008000
	ColorGateLinkDown     platform.Color = 0x800000
)

// IndicatorColor projects a state and the link status onto the indicator.
func IndicatorColor(s AppState, link bool) platform.Color {
	switch v := s.(type) {
	case CoordinatorReadyState:
		return ColorCoordinatorReady
	case GateStartupState:
		return ColorGateStartup
	case GateReadyState:
		switch {
		case v.Gate == platform.Active:
			return ColorGateActive
		case link:
			return ColorGateLinkUp
		default:
			return ColorGateLinkDown
		}
	default:
		return ColorInit
	}
}
