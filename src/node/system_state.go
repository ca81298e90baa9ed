package node

import (
	"github.com/racegate/racegate/src/race"
)

// Dashboard receives a snapshot of the node after every tick.
type Dashboard interface {
	SetSystemState(SystemState)
}

// GateSnapshot is the dashboard view of one gate record.
type GateSnapshot struct {
	Seen   bool `json:"seen"`
	Active bool `json:"active"`
	// LastActivation is the coordinated time in ms, or -1 when the gate has
	// not been activated.
	LastActivation int64 `json:"last_activation_ms"`
}

// SystemState is a point-in-time view of a node. Times are in milliseconds;
// -1 marks a value that is unknown.
type SystemState struct {
	Instance string `json:"instance"`
	Address  string `json:"address"`
	Role     string `json:"role"`
	State    string `json:"state"`
	Color    string `json:"color"`

	Link   bool   `json:"link"`
	Gate   string `json:"gate"`
	Button string `json:"button"`

	ClockReliable   bool  `json:"clock_reliable"`
	LocalTime       int64 `json:"local_ms"`
	Synced          bool  `json:"synced"`
	Offset          int64 `json:"offset_ms"`
	CoordinatedTime int64 `json:"coordinated_ms"`

	// LastActivation is this gate's own latch.
	LastActivation int64 `json:"last_activation_ms"`

	// Start, Finish and the race fields are only filled by the coordinator.
	Start        GateSnapshot `json:"start"`
	Finish       GateSnapshot `json:"finish"`
	RaceComplete bool         `json:"race_complete"`
	Elapsed      int64        `json:"elapsed_ms"`

	Ticks uint64 `json:"ticks"`
}

func gateSnapshot(r race.GateRecord) GateSnapshot {
	g := GateSnapshot{
		Seen:           r.Seen,
		Active:         r.Active,
		LastActivation: -1,
	}
	if r.LastActivation.Set {
		g.LastActivation = int64(r.LastActivation.Time)
	}
	return g
}
