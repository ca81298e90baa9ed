package racenode

import (
	"context"
	"strconv"
	"sync"

	"github.com/racegate/racegate/src/net"
	"github.com/racegate/racegate/src/race"
	"github.com/racegate/racegate/src/timing"
	"github.com/racegate/racegate/src/wire"
	"github.com/sirupsen/logrus"
)

// CoordinatorObservation is the latest coordinator beacon and the local
// instant at which it was received.
type CoordinatorObservation struct {
	Time       timing.CoordinatedInstant
	ReceivedAt timing.LocalInstant
}

// RaceNode exchanges beacons with the other nodes.
type RaceNode struct {
	sync.Mutex

	trans      net.Transport
	clock      *timing.LocalClock
	aggregator *race.Aggregator
	logger     *logrus.Entry

	coordinator      CoordinatorObservation
	coordinatorSet   bool
	coordinatorStamp wire.Stamp

	received          uint64
	decodeErrors      uint64
	coordinatorStale  uint64
	published         uint64
	publishErrors     uint64
	receiveClockError uint64
}

// NewRaceNode creates a RaceNode on top of trans. Receive instants are
// measured with clock, which must be the clock of the node's state machine.
func NewRaceNode(trans net.Transport, clock *timing.LocalClock, logger *logrus.Entry) *RaceNode {
	return &RaceNode{
		trans:      trans,
		clock:      clock,
		aggregator: race.NewAggregator(),
		logger:     logger,
	}
}

// Run starts the transport and processes received packets until ctx is
// cancelled or the transport's consumer channel is closed.
func (r *RaceNode) Run(ctx context.Context) {
	go r.trans.Listen()

	consumer := r.trans.Consumer()
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-consumer:
			if !ok {
				return
			}
			r.Handle(p)
		}
	}
}

// Handle processes a single received packet. Frames that do not decode are
// logged and dropped.
func (r *RaceNode) Handle(p net.Packet) {
	msg, err := wire.Decode(p.Data)

	r.Lock()
	defer r.Unlock()

	r.received++

	if err != nil {
		r.decodeErrors++
		r.logger.WithError(err).WithField("from", p.From).Debug("Dropping frame")
		return
	}

	switch m := msg.(type) {
	case wire.CoordinatorBeacon:
		r.observeCoordinator(m)
	case wire.GateBeacon:
		if !r.aggregator.Apply(m) {
			r.logger.WithFields(logrus.Fields{
				"from":   p.From,
				"beacon": m,
			}).Debug("Ignoring gate beacon")
		}
	}
}

func (r *RaceNode) observeCoordinator(b wire.CoordinatorBeacon) {
	if r.coordinatorSet && !b.Stamp.Newer(r.coordinatorStamp) {
		r.coordinatorStale++
		return
	}

	now, err := r.clock.Now()
	if err != nil {
		r.receiveClockError++
		r.logger.WithError(err).Warn("Cannot timestamp coordinator beacon")
		return
	}

	r.coordinator = CoordinatorObservation{
		Time:       b.Time,
		ReceivedAt: now,
	}
	r.coordinatorSet = true
	r.coordinatorStamp = b.Stamp
}

// Coordinator returns the latest coordinator observation. ok is false until
// a coordinator beacon has been received.
func (r *RaceNode) Coordinator() (CoordinatorObservation, bool) {
	r.Lock()
	defer r.Unlock()
	return r.coordinator, r.coordinatorSet
}

// Gates returns the aggregated gate records.
func (r *RaceNode) Gates() race.Gates {
	return r.aggregator.Gates()
}

// Publish encodes m and broadcasts it.
func (r *RaceNode) Publish(m wire.Message) error {
	frame := wire.Encode(m)
	err := r.trans.Publish(frame.Bytes())

	r.Lock()
	defer r.Unlock()

	if err != nil {
		r.publishErrors++
		return err
	}
	r.published++

	return nil
}

// IsConnected reports the link status of the transport. RaceNode can serve
// as a platform.Link.
func (r *RaceNode) IsConnected() bool {
	return r.trans.Connected()
}

// LocalAddr ...
func (r *RaceNode) LocalAddr() string {
	return r.trans.LocalAddr()
}

// Close closes the transport.
func (r *RaceNode) Close() error {
	return r.trans.Close()
}

// Stats returns counters describing the traffic seen so far.
func (r *RaceNode) Stats() map[string]string {
	accepted, rejected := r.aggregator.Counts()

	r.Lock()
	defer r.Unlock()

	u := func(v uint64) string {
		return strconv.FormatUint(v, 10)
	}

	s := map[string]string{
		"frames_received":         u(r.received),
		"decode_errors":           u(r.decodeErrors),
		"gate_beacons_accepted":   u(accepted),
		"gate_beacons_ignored":    u(rejected),
		"coordinator_stale":       u(r.coordinatorStale),
		"frames_published":        u(r.published),
		"publish_errors":          u(r.publishErrors),
		"receive_clock_errors":    u(r.receiveClockError),
		"link":                    strconv.FormatBool(r.trans.Connected()),
		"local_addr":              r.trans.LocalAddr(),
		"coordinator_observed":    strconv.FormatBool(r.coordinatorSet),
		"coordinator_time":        "",
		"coordinator_received_at": "",
	}
	if r.coordinatorSet {
		s["coordinator_time"] = r.coordinator.Time.String()
		s["coordinator_received_at"] = r.coordinator.ReceivedAt.String()
	}

	return s
}
