package race

import (
	"testing"
	"time"

	"github.com/racegate/racegate/src/peers"
	"github.com/racegate/racegate/src/platform"
	"github.com/racegate/racegate/src/timing"
	"github.com/racegate/racegate/src/wire"
)

func latch(ms uint32) timing.Latch {
	return timing.Latch{Time: timing.CoordinatedInstant(ms), Set: true}
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name  string
		gates Gates
		want  Race
	}{
		{
			name: "both latched",
			gates: Gates{
				Start:  GateRecord{Seen: true, LastActivation: latch(1000)},
				Finish: GateRecord{Seen: true, LastActivation: latch(4500)},
			},
			want: Race{Complete: true, Elapsed: 3500 * time.Millisecond},
		},
		{
			name: "start missing",
			gates: Gates{
				Finish: GateRecord{Seen: true, LastActivation: latch(4500)},
			},
			want: Race{},
		},
		{
			name: "finish missing",
			gates: Gates{
				Start: GateRecord{Seen: true, LastActivation: latch(1000)},
			},
			want: Race{},
		},
		{
			name: "same instant",
			gates: Gates{
				Start:  GateRecord{LastActivation: latch(7000)},
				Finish: GateRecord{LastActivation: latch(7000)},
			},
			want: Race{Complete: true},
		},
		{
			name: "restarted after finish",
			gates: Gates{
				Start:  GateRecord{LastActivation: latch(9000)},
				Finish: GateRecord{LastActivation: latch(4500)},
			},
			want: Race{},
		},
		{
			name:  "nothing",
			gates: Gates{},
			want:  Race{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.gates)
			if got != tt.want {
				t.Fatalf("Compute() = %v, want %v", got, tt.want)
			}
			if got.Pending() == tt.want.Complete {
				t.Fatalf("Pending() should be %v", !tt.want.Complete)
			}
		})
	}
}

func TestAggregatorApply(t *testing.T) {
	a := NewAggregator()

	if !a.Apply(wire.GateBeacon{Address: peers.Start, State: platform.Active, LastActivation: latch(1000)}) {
		t.Fatal("start beacon should be accepted")
	}
	if !a.Apply(wire.GateBeacon{Address: peers.Finish, LastActivation: latch(4500)}) {
		t.Fatal("finish beacon should be accepted")
	}

	g := a.Gates()
	if !g.Start.Seen || !g.Start.Active || g.Start.LastActivation != latch(1000) {
		t.Fatalf("unexpected start record %+v", g.Start)
	}
	if !g.Finish.Seen || g.Finish.Active || g.Finish.LastActivation != latch(4500) {
		t.Fatalf("unexpected finish record %+v", g.Finish)
	}

	if r := Compute(g); r.Elapsed != 3500*time.Millisecond {
		t.Fatalf("elapsed should be 3.5s, not %v", r)
	}
}

func TestAggregatorIgnoresNonGates(t *testing.T) {
	a := NewAggregator()

	if a.Apply(wire.GateBeacon{Address: peers.Coordinator, State: platform.Active}) {
		t.Fatal("coordinator address should be ignored")
	}
	if a.Apply(wire.GateBeacon{Address: 5, State: platform.Active}) {
		t.Fatal("reserved address should be ignored")
	}
	if a.Gates() != (Gates{}) {
		t.Fatalf("gates should be untouched, got %+v", a.Gates())
	}
	if acc, rej := a.Counts(); acc != 0 || rej != 2 {
		t.Fatalf("counts = %d/%d, want 0/2", acc, rej)
	}
}

func TestAggregatorIdempotent(t *testing.T) {
	beacons := []wire.GateBeacon{
		{Address: peers.Start, State: platform.Active, LastActivation: latch(1000)},
		{Address: peers.Start, State: platform.Active, LastActivation: latch(1000),
			Stamp: wire.Stamp{Epoch: 4, Seq: 12}},
	}

	for _, b := range beacons {
		once := NewAggregator()
		once.Apply(b)

		twice := NewAggregator()
		twice.Apply(b)
		twice.Apply(b)

		if once.Gates() != twice.Gates() {
			t.Fatalf("applying %v twice gave %+v, once gave %+v", b, twice.Gates(), once.Gates())
		}
	}
}

func TestAggregatorRejectsStale(t *testing.T) {
	a := NewAggregator()

	fresh := wire.GateBeacon{
		Address:        peers.Finish,
		State:          platform.Inactive,
		LastActivation: latch(8000),
		Stamp:          wire.Stamp{Epoch: 1, Seq: 20},
	}
	stale := wire.GateBeacon{
		Address:        peers.Finish,
		State:          platform.Active,
		LastActivation: latch(7000),
		Stamp:          wire.Stamp{Epoch: 1, Seq: 19},
	}

	a.Apply(fresh)
	if a.Apply(stale) {
		t.Fatal("reordered beacon should be rejected")
	}
	if got := a.Gates().Finish.LastActivation; got != latch(8000) {
		t.Fatalf("last activation regressed to %v", got)
	}

	restarted := wire.GateBeacon{
		Address: peers.Finish,
		Stamp:   wire.Stamp{Epoch: 2, Seq: 1},
	}
	if !a.Apply(restarted) {
		t.Fatal("beacon from a restarted gate should be accepted")
	}
	if a.Gates().Finish.LastActivation.Set {
		t.Fatal("restarted gate reports no activation")
	}
}

func TestGatesGet(t *testing.T) {
	g := Gates{Start: GateRecord{Seen: true}}

	if rec, ok := g.Get(peers.Start); !ok || !rec.Seen {
		t.Fatalf("Get(start) = %+v, %v", rec, ok)
	}
	if _, ok := g.Get(peers.Finish); !ok {
		t.Fatal("Get(finish) should succeed")
	}
	if _, ok := g.Get(peers.Coordinator); ok {
		t.Fatal("Get(coordinator) should fail")
	}
}
