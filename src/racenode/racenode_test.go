package racenode

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/racegate/racegate/src/common"
	"github.com/racegate/racegate/src/net"
	"github.com/racegate/racegate/src/peers"
	"github.com/racegate/racegate/src/platform"
	"github.com/racegate/racegate/src/timing"
	"github.com/racegate/racegate/src/wire"
	"github.com/sirupsen/logrus"
)

type advancer interface {
	Advance(time.Duration)
}

type pair struct {
	clock    advancer
	sender   *RaceNode
	receiver *RaceNode
	recvT    *net.InmemTransport
}

func newPair(t *testing.T) pair {
	logger := common.NewTestEntry(t, logrus.DebugLevel)
	fake := clockwork.NewFakeClock()
	clock := timing.NewLocalClock(fake)

	_, t1 := net.NewInmemTransport("sender")
	_, t2 := net.NewInmemTransport("receiver")
	net.ConnectAll(t1, t2)

	return pair{
		clock:    fake,
		sender:   NewRaceNode(t1, clock, logger.WithField("node", "sender")),
		receiver: NewRaceNode(t2, clock, logger.WithField("node", "receiver")),
		recvT:    t2,
	}
}

func (p pair) deliver(t *testing.T) {
	t.Helper()
	select {
	case pkt := <-p.recvT.Consumer():
		p.receiver.Handle(pkt)
	case <-time.After(time.Second):
		t.Fatal("no packet delivered")
	}
}

func TestCoordinatorObservation(t *testing.T) {
	p := newPair(t)

	if _, ok := p.receiver.Coordinator(); ok {
		t.Fatal("no observation expected before any beacon")
	}

	p.clock.Advance(250 * time.Millisecond)

	err := p.sender.Publish(wire.CoordinatorBeacon{
		Time:  5000,
		Stamp: wire.Stamp{Epoch: 3, Seq: 10},
	})
	if err != nil {
		t.Fatal(err)
	}
	p.deliver(t)

	obs, ok := p.receiver.Coordinator()
	if !ok {
		t.Fatal("observation expected")
	}
	expected := CoordinatorObservation{Time: 5000, ReceivedAt: 250}
	if obs != expected {
		t.Fatalf("observation should be %+v, not %+v", expected, obs)
	}
}

func TestCoordinatorStaleStamp(t *testing.T) {
	p := newPair(t)

	publish := func(at timing.CoordinatedInstant, stamp wire.Stamp) {
		if err := p.sender.Publish(wire.CoordinatorBeacon{Time: at, Stamp: stamp}); err != nil {
			t.Fatal(err)
		}
		p.deliver(t)
	}

	publish(1000, wire.Stamp{Epoch: 1, Seq: 5})
	// Reordered frame from the same run.
	publish(900, wire.Stamp{Epoch: 1, Seq: 4})

	obs, _ := p.receiver.Coordinator()
	if obs.Time != 1000 {
		t.Fatalf("stale beacon should be ignored, got %v", obs.Time)
	}
	if s := p.receiver.Stats()["coordinator_stale"]; s != "1" {
		t.Fatalf("coordinator_stale should be 1, not %s", s)
	}

	// Coordinator restarted.
	publish(20, wire.Stamp{Epoch: 2, Seq: 1})
	obs, _ = p.receiver.Coordinator()
	if obs.Time != 20 {
		t.Fatalf("new epoch should be accepted, got %v", obs.Time)
	}

	// Unstamped senders are last-write-wins.
	publish(10, wire.Stamp{})
	obs, _ = p.receiver.Coordinator()
	if obs.Time != 10 {
		t.Fatalf("unstamped beacon should be accepted, got %v", obs.Time)
	}
}

func TestLegacyCoordinatorFrame(t *testing.T) {
	p := newPair(t)
	p.clock.Advance(40 * time.Millisecond)

	// Single-tag layout: tag 1, coordinator address, 5000 ms, no stamp.
	frame := []byte{1, 0, 0, 0x00, 0x00, 0x13, 0x88, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	p.receiver.Handle(net.Packet{Data: frame, From: "firmware"})

	obs, ok := p.receiver.Coordinator()
	if !ok {
		t.Fatal("legacy coordinator frame should produce an observation")
	}
	expected := CoordinatorObservation{Time: 5000, ReceivedAt: 40}
	if obs != expected {
		t.Fatalf("observation should be %+v, not %+v", expected, obs)
	}

	stats := p.receiver.Stats()
	if stats["gate_beacons_ignored"] != "0" {
		t.Fatalf("gate_beacons_ignored should be 0, not %s", stats["gate_beacons_ignored"])
	}
	if stats["decode_errors"] != "0" {
		t.Fatalf("decode_errors should be 0, not %s", stats["decode_errors"])
	}

	// Repeated unstamped frames are last-write-wins.
	frame[6] = 0x89
	p.receiver.Handle(net.Packet{Data: frame, From: "firmware"})
	if obs, _ := p.receiver.Coordinator(); obs.Time != 5001 {
		t.Fatalf("second legacy frame should be accepted, got %v", obs.Time)
	}
}

func TestGateBeaconsAggregated(t *testing.T) {
	p := newPair(t)

	beacons := []wire.GateBeacon{
		{
			Address:        peers.Start,
			State:          platform.Inactive,
			LastActivation: timing.Latch{Time: 1000, Set: true},
			Stamp:          wire.Stamp{Epoch: 1, Seq: 1},
		},
		{
			Address:        peers.Finish,
			State:          platform.Active,
			LastActivation: timing.Latch{Time: 4500, Set: true},
			Stamp:          wire.Stamp{Epoch: 7, Seq: 1},
		},
	}
	for _, b := range beacons {
		if err := p.sender.Publish(b); err != nil {
			t.Fatal(err)
		}
		p.deliver(t)
	}

	gates := p.receiver.Gates()
	if !gates.Start.Seen || gates.Start.LastActivation.Time != 1000 {
		t.Fatalf("unexpected start record %+v", gates.Start)
	}
	if !gates.Finish.Seen || !gates.Finish.Active || gates.Finish.LastActivation.Time != 4500 {
		t.Fatalf("unexpected finish record %+v", gates.Finish)
	}

	stats := p.receiver.Stats()
	if stats["gate_beacons_accepted"] != "2" {
		t.Fatalf("gate_beacons_accepted should be 2, not %s", stats["gate_beacons_accepted"])
	}
	if s := p.sender.Stats()["frames_published"]; s != "2" {
		t.Fatalf("frames_published should be 2, not %s", s)
	}
}

func TestMalformedFramesDropped(t *testing.T) {
	p := newPair(t)

	frames := [][]byte{
		{},
		{9, 0, 0, 0, 0, 0, 0},
		{2, 0, 0},
		make([]byte, 20),
	}
	for _, f := range frames {
		p.receiver.Handle(net.Packet{Data: f, From: "garbage"})
	}

	stats := p.receiver.Stats()
	if stats["decode_errors"] != "4" {
		t.Fatalf("decode_errors should be 4, not %s", stats["decode_errors"])
	}
	if _, ok := p.receiver.Coordinator(); ok {
		t.Fatal("malformed frames should not produce an observation")
	}
}

func TestPublishLinkDown(t *testing.T) {
	p := newPair(t)

	p.sender.trans.(*net.InmemTransport).SetConnected(false)
	if p.sender.IsConnected() {
		t.Fatal("link should be down")
	}

	err := p.sender.Publish(wire.CoordinatorBeacon{Time: 1})
	if err != net.ErrLinkDown {
		t.Fatalf("expected ErrLinkDown, got %v", err)
	}
	if s := p.sender.Stats()["publish_errors"]; s != "1" {
		t.Fatalf("publish_errors should be 1, not %s", s)
	}
}

func TestRun(t *testing.T) {
	p := newPair(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.receiver.Run(ctx)
		close(done)
	}()

	if err := p.sender.Publish(wire.CoordinatorBeacon{Time: 42}); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(time.Second)
	for {
		if obs, ok := p.receiver.Coordinator(); ok {
			if obs.Time != 42 {
				t.Fatalf("unexpected observation %+v", obs)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timeout waiting for observation")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
