package race

import (
	"sync"

	"github.com/racegate/racegate/src/peers"
	"github.com/racegate/racegate/src/platform"
	"github.com/racegate/racegate/src/timing"
	"github.com/racegate/racegate/src/wire"
)

// GateRecord is the latest known state of one gate.
type GateRecord struct {
	// Seen is false until a beacon from the gate has been accepted.
	Seen           bool
	Active         bool
	LastActivation timing.Latch
}

// Gates is the aggregated record of the start and finish gates.
type Gates struct {
	Start  GateRecord
	Finish GateRecord
}

// Get returns the record of a gate address. ok is false for addresses that
// are not gates.
func (g Gates) Get(addr peers.NodeAddress) (GateRecord, bool) {
	switch addr {
	case peers.Start:
		return g.Start, true
	case peers.Finish:
		return g.Finish, true
	default:
		return GateRecord{}, false
	}
}

func (g *Gates) record(addr peers.NodeAddress) *GateRecord {
	switch addr {
	case peers.Start:
		return &g.Start
	case peers.Finish:
		return &g.Finish
	default:
		return nil
	}
}

// Aggregator folds GateBeacons into Gates. It is safe for concurrent use.
type Aggregator struct {
	sync.RWMutex

	gates  Gates
	stamps map[peers.NodeAddress]wire.Stamp

	accepted uint64
	rejected uint64
}

// NewAggregator ...
func NewAggregator() *Aggregator {
	return &Aggregator{
		stamps: make(map[peers.NodeAddress]wire.Stamp),
	}
}

// Apply folds b into the aggregate. It returns false when the beacon was
// ignored, either because its address is not a gate or because its stamp is
// not newer than the last accepted beacon of that gate.
func (a *Aggregator) Apply(b wire.GateBeacon) bool {
	a.Lock()
	defer a.Unlock()

	rec := a.gates.record(b.Address)
	if rec == nil {
		a.rejected++
		return false
	}

	if prev, ok := a.stamps[b.Address]; ok && !b.Stamp.Newer(prev) {
		a.rejected++
		return false
	}

	a.stamps[b.Address] = b.Stamp
	*rec = GateRecord{
		Seen:           true,
		Active:         b.State == platform.Active,
		LastActivation: b.LastActivation,
	}
	a.accepted++

	return true
}

// Gates returns a copy of the aggregate.
func (a *Aggregator) Gates() Gates {
	a.RLock()
	defer a.RUnlock()
	return a.gates
}

// Counts returns the number of accepted and ignored beacons.
func (a *Aggregator) Counts() (accepted, rejected uint64) {
	a.RLock()
	defer a.RUnlock()
	return a.accepted, a.rejected
}
