package node

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/racegate/racegate/src/peers"
	"github.com/racegate/racegate/src/platform"
	"github.com/racegate/racegate/src/race"
	"github.com/racegate/racegate/src/racenode"
	"github.com/racegate/racegate/src/timing"
	"github.com/racegate/racegate/src/wire"
	"github.com/sirupsen/logrus"
)

// ErrSyncTimeout is returned by Tick when a gate could not synchronize with
// the coordinator within the configured timeout.
var ErrSyncTimeout = errors.New("coordinator sync timeout")

// RaceNode is the network side of the node.
type RaceNode interface {
	Publish(wire.Message) error
	Coordinator() (racenode.CoordinatorObservation, bool)
	Gates() race.Gates
}

// Node defines a racegate node
type Node struct {
	sync.RWMutex

	conf   *Config
	logger *logrus.Entry

	address  peers.NodeAddress
	instance string
	seq      *wire.Sequencer

	clock     *timing.LocalClock
	platform  platform.Platform
	raceNode  RaceNode
	dashboard Dashboard

	state    AppState
	snapshot SystemState

	start         time.Time
	ticks         uint64
	beaconsSent   uint64
	publishErrors uint64
	clockErrors   uint64
	offsetErrors  uint64
	demotions     uint64
}

// NewNode is a factory method that returns a Node instance. The dashboard may
// be nil.
func NewNode(conf *Config,
	address peers.NodeAddress,
	clock *timing.LocalClock,
	plat platform.Platform,
	raceNode RaceNode,
	dashboard Dashboard,
) *Node {
	id := conf.Instance
	if id == uuid.Nil {
		id = uuid.New()
	}
	instance := id.String()

	node := Node{
		conf:     conf,
		address:  address,
		instance: instance,
		// The first byte of a random ID is enough to tell two runs apart.
		seq:       wire.NewSequencer(id[0]),
		clock:     clock,
		platform:  plat,
		raceNode:  raceNode,
		dashboard: dashboard,
		state:     InitState{},
		start:     clock.Clock().Now(),
	}

	node.logger = conf.Logger.WithFields(logrus.Fields{
		"address":  address.String(),
		"instance": instance[:8],
	})

	return &node
}

// ResolveAddress returns the address of the node. A non-empty override is
// parsed with peers.ParseNodeAddress; otherwise the selector is read.
func ResolveAddress(override string, sel platform.Selector) (peers.NodeAddress, error) {
	if override != "" {
		return peers.ParseNodeAddress(override)
	}
	if sel == nil {
		return 0, errors.New("no address override and no selector")
	}
	return sel.Read()
}

// Run calls Tick every TickPeriod until ctx is done or Tick fails.
func (n *Node) Run(ctx context.Context) error {
	n.logger.WithFields(logrus.Fields{
		"role": n.address.Role().String(),
		"tick": n.conf.TickPeriod,
	}).Info("Running")

	ticker := n.clock.Clock().NewTicker(n.conf.TickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			n.logger.Debug("Stopped")
			return nil
		case <-ticker.Chan():
			if err := n.Tick(); err != nil {
				n.logger.WithError(err).Error("Tick")
				return err
			}
		}
	}
}

// Tick advances the state machine by one step.
func (n *Node) Tick() error {
	n.Lock()
	defer n.Unlock()

	n.ticks++

	now, clockErr := n.clock.Now()

	next := n.state
	var err error

	if clockErr != nil {
		n.clockErrors++
		n.logger.WithError(clockErr).Error("Local clock unreliable, skipping tick")
	} else {
		next, err = n.step(now)
	}

	n.commit(next)
	n.publishSnapshot(now, clockErr == nil)

	return err
}

func (n *Node) step(now timing.LocalInstant) (AppState, error) {
	switch s := n.state.(type) {
	case InitState:
		return n.stepInit(now), nil
	case CoordinatorReadyState:
		return n.stepCoordinatorReady(now), nil
	case GateStartupState:
		return n.stepGateStartup(s, now)
	case GateReadyState:
		return n.stepGateReady(s, now), nil
	default:
		panic(fmt.Sprintf("unknown state %T", n.state))
	}
}

func (n *Node) stepInit(now timing.LocalInstant) AppState {
	link := n.platform.Link().IsConnected()
	gate := n.platform.Gate().State()
	button := n.platform.Button().State()

	if !link || button == platform.Pressed || gate == platform.Active {
		return InitState{}
	}

	switch n.address.Role() {
	case peers.GateRole:
		return GateStartupState{Since: now}
	case peers.CoordinatorRole:
		return CoordinatorReadyState{Time: timing.Reference(now)}
	default:
		return InitState{}
	}
}

func (n *Node) stepCoordinatorReady(now timing.LocalInstant) AppState {
	if !n.platform.Link().IsConnected() {
		n.logger.Warn("Link down")
		return InitState{}
	}

	t := timing.Reference(now)

	n.publish(wire.CoordinatorBeacon{
		Time:  t,
		Stamp: n.seq.Next(),
	})

	return CoordinatorReadyState{
		Time: t,
		Race: race.Compute(n.raceNode.Gates()),
	}
}

func (n *Node) stepGateStartup(s GateStartupState, now timing.LocalInstant) (AppState, error) {
	if obs, ok := n.freshObservation(now); ok {
		offset, err := timing.CalculateOffset(obs.Time, obs.ReceivedAt)
		if err == nil {
			return GateReadyState{Offset: offset}, nil
		}
		n.offsetErrors++
		n.logger.WithError(err).Warn("Cannot synchronize")
	}

	if waited := now.Sub(s.Since); waited > n.conf.SyncTimeout {
		return s, fmt.Errorf("%w: no coordinator for %v", ErrSyncTimeout, waited)
	}

	return s, nil
}

func (n *Node) stepGateReady(s GateReadyState, now timing.LocalInstant) AppState {
	obs, ok := n.freshObservation(now)
	if !ok {
		n.demotions++
		n.logger.Warn("Coordinator beacon stale")
		return GateStartupState{Since: now}
	}

	offset, err := timing.CalculateOffset(obs.Time, obs.ReceivedAt)
	if err != nil {
		n.demotions++
		n.offsetErrors++
		n.logger.WithError(err).Warn("Lost synchronization")
		return GateStartupState{Since: now}
	}

	coordinated, err := offset.Apply(now)
	if err != nil {
		n.clockErrors++
		n.logger.WithError(err).Error("Coordinated clock unreliable, skipping tick")
		return s
	}

	gate := n.platform.Gate().State()
	latch := s.LastActivation.Update(gate == platform.Active, coordinated)

	n.publish(wire.GateBeacon{
		Address:        n.address,
		State:          gate,
		LastActivation: latch,
		Stamp:          n.seq.Next(),
	})

	return GateReadyState{
		Offset:         offset,
		Gate:           gate,
		LastActivation: latch,
	}
}

// freshObservation returns the latest coordinator observation if it is not
// older than BeaconTimeout.
func (n *Node) freshObservation(now timing.LocalInstant) (racenode.CoordinatorObservation, bool) {
	obs, ok := n.raceNode.Coordinator()
	if !ok {
		return obs, false
	}
	if now.Sub(obs.ReceivedAt) > n.conf.BeaconTimeout {
		return obs, false
	}
	return obs, true
}

func (n *Node) publish(m wire.Message) {
	if err := n.raceNode.Publish(m); err != nil {
		n.publishErrors++
		n.logger.WithError(err).Debug("Publishing beacon")
		return
	}
	n.beaconsSent++
}

func (n *Node) commit(next AppState) {
	prev := n.state
	if next == prev {
		return
	}
	n.state = next

	entry := n.logger.WithFields(logrus.Fields{
		"from": prev.Name(),
		"to":   next.Name(),
	})

	switch {
	case !sameVariant(prev, next):
		entry.Info("State transition")
	case steady(prev) != steady(next):
		entry.WithField("state", fmt.Sprintf("%+v", next)).Debug("State update")
	default:
		entry.WithField("state", fmt.Sprintf("%+v", next)).Trace("State update")
	}
}

func (n *Node) publishSnapshot(now timing.LocalInstant, clockOK bool) {
	link := n.platform.Link().IsConnected()
	color := IndicatorColor(n.state, link)

	n.platform.Indicator().SetColor(color)

	snap := SystemState{
		Instance:        n.instance,
		Address:         n.address.String(),
		Role:            n.address.Role().String(),
		State:           n.state.Name(),
		Color:           color.String(),
		Link:            link,
		Gate:            n.platform.Gate().State().String(),
		Button:          n.platform.Button().State().String(),
		ClockReliable:   clockOK,
		LocalTime:       -1,
		CoordinatedTime: -1,
		LastActivation:  -1,
		Start:           GateSnapshot{LastActivation: -1},
		Finish:          GateSnapshot{LastActivation: -1},
		Elapsed:         -1,
		Ticks:           n.ticks,
	}
	if clockOK {
		snap.LocalTime = int64(now)
	}

	switch s := n.state.(type) {
	case CoordinatorReadyState:
		snap.Synced = true
		snap.CoordinatedTime = int64(s.Time)
		gates := n.raceNode.Gates()
		snap.Start = gateSnapshot(gates.Start)
		snap.Finish = gateSnapshot(gates.Finish)
		snap.RaceComplete = s.Race.Complete
		if s.Race.Complete {
			snap.Elapsed = s.Race.Elapsed.Milliseconds()
		}
	case GateReadyState:
		snap.Synced = true
		snap.Offset = s.Offset.Milliseconds()
		if clockOK {
			if c, err := s.Offset.Apply(now); err == nil {
				snap.CoordinatedTime = int64(c)
			}
		}
		if s.LastActivation.Set {
			snap.LastActivation = int64(s.LastActivation.Time)
		}
	}

	n.snapshot = snap

	if n.dashboard != nil {
		n.dashboard.SetSystemState(snap)
	}
}

// State returns the current state.
func (n *Node) State() AppState {
	n.RLock()
	defer n.RUnlock()
	return n.state
}

// SystemState returns the snapshot built by the last tick.
func (n *Node) SystemState() SystemState {
	n.RLock()
	defer n.RUnlock()
	return n.snapshot
}

// Address ...
func (n *Node) Address() peers.NodeAddress {
	return n.address
}

// Instance returns the random ID of this run of the node.
func (n *Node) Instance() string {
	return n.instance
}

// GetStats returns stats
func (n *Node) GetStats() map[string]string {
	n.RLock()
	defer n.RUnlock()

	u := func(v uint64) string {
		return strconv.FormatUint(v, 10)
	}

	uptime := n.clock.Clock().Since(n.start)

	ticksPerSecond := 0.0
	if uptime > 0 {
		ticksPerSecond = float64(n.ticks) / uptime.Seconds()
	}

	return map[string]string{
		"state":            n.state.Name(),
		"address":          n.address.String(),
		"role":             n.address.Role().String(),
		"instance":         n.instance,
		"epoch":            strconv.Itoa(int(n.seq.Epoch())),
		"ticks":            u(n.ticks),
		"ticks_per_second": strconv.FormatFloat(ticksPerSecond, 'f', 2, 64),
		"beacons_sent":     u(n.beaconsSent),
		"publish_errors":   u(n.publishErrors),
		"clock_errors":     u(n.clockErrors),
		"offset_errors":    u(n.offsetErrors),
		"demotions":        u(n.demotions),
		"uptime":           uptime.Truncate(time.Millisecond).String(),
	}
}

// LogStats logs the stats at debug level.
func (n *Node) LogStats() {
	stats := n.GetStats()

	fields := logrus.Fields{}
	for k, v := range stats {
		fields[k] = v
	}

	n.logger.WithFields(fields).Debug("Stats")
}
