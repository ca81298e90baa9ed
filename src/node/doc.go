// Package node implements the role state machine of a racegate node.
//
// A node is either the coordinator or one of the two gates (start and
// finish). Its role is decided once from its address. The Node type holds a
// single AppState and advances it on every tick of the scheduler:
//
// Init
//
// The node waits for the link to come up with the button released and the
// gate inactive. A gate address then moves to GateStartup, the coordinator
// address to CoordinatorReady. Any other address stays in Init.
//
// CoordinatorReady
//
// The coordinator is the time reference: its local clock is the coordinated
// clock. Every tick it broadcasts a CoordinatorBeacon and recomputes the race
// from the gate beacons it has aggregated. Losing the link sends it back to
// Init.
//
// GateStartup
//
// A gate waits for a recent coordinator beacon and derives its clock offset
// from it. If no usable beacon arrives within the sync timeout, Tick returns
// ErrSyncTimeout and the process is expected to exit.
//
// GateReady
//
// The gate translates its local clock into coordinated time, latches the
// coordinated instant of every activation and broadcasts a GateBeacon every
// tick. When the coordinator beacons go stale the gate is demoted back to
// GateStartup.
//
// After every tick the node projects its state onto the indicator colour and
// hands a SystemState snapshot to the dashboard.
package node
