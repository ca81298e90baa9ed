package racegate

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/racegate/racegate/src/config"
	"github.com/racegate/racegate/src/net"
	"github.com/racegate/racegate/src/node"
	"github.com/racegate/racegate/src/peers"
	"github.com/racegate/racegate/src/platform"
	"github.com/racegate/racegate/src/racenode"
	"github.com/racegate/racegate/src/service"
	"github.com/racegate/racegate/src/timing"
	"github.com/sirupsen/logrus"
)

// Racegate is a racegate node and its collaborators.
type Racegate struct {
	Config    *config.Config
	Instance  uuid.UUID
	Clock     clockwork.Clock
	Transport net.Transport
	RaceNode  *racenode.RaceNode
	Host      *platform.Host
	Node      *node.Node
	Service   *service.Service

	localClock *timing.LocalClock
	logger     *logrus.Entry
}

// NewRacegate ...
func NewRacegate(config *config.Config) *Racegate {
	engine := &Racegate{
		Config: config,
	}

	return engine
}

func (r *Racegate) initTransport() error {
	if r.Transport != nil {
		return nil
	}

	logger := r.logger.WithField("component", "transport")

	switch r.Config.Transport {
	case config.NATSTransport:
		transport, err := net.NewNATSTransport(net.NATSConfig{
			URL:           r.Config.NATSURL,
			Subject:       r.Config.NATSSubject,
			Instance:      r.Instance.String(),
			MaxReconnects: -1,
			ReconnectWait: r.Config.ReconnectWait,
		}, logger)
		if err != nil {
			return err
		}
		r.Transport = transport
	case config.MulticastTransport:
		transport, err := net.NewMulticastTransport(
			r.Config.MulticastGroup,
			r.Config.Interface,
			r.Config.MulticastTTL,
			logger)
		if err != nil {
			return err
		}
		r.Transport = transport
	default:
		return fmt.Errorf("unknown transport %q", r.Config.Transport)
	}

	r.logger.WithFields(logrus.Fields{
		"transport":  r.Config.Transport,
		"local_addr": r.Transport.LocalAddr(),
	}).Debug("Created transport")

	return nil
}

func (r *Racegate) initPlatform() error {
	r.RaceNode = racenode.NewRaceNode(r.Transport, r.localClock, r.logger.WithField("component", "network"))

	// The link is up while the transport is connected.
	r.Host = platform.NewHost(r.RaceNode, r.logger.WithField("component", "platform"))

	if r.Config.Selector != "" {
		pos, err := peers.ParseNodeAddress(r.Config.Selector)
		if err != nil {
			return fmt.Errorf("selector: %w", err)
		}
		r.Host.SetSelector(pos)
	}

	return nil
}

func (r *Racegate) initService() error {
	if !r.Config.NoService {
		r.Service = service.NewService(r.Config.ServiceAddr, r.Host, r.logger.WithField("component", "service"))
	}
	return nil
}

func (r *Racegate) initNode() error {
	address, err := node.ResolveAddress(r.Config.Address, r.Host.Selector())
	if err != nil {
		return fmt.Errorf("cannot resolve node address: %w", err)
	}

	nodeConf := r.Config.NodeConfig()
	nodeConf.Instance = r.Instance

	// Avoid handing the node a typed nil Dashboard.
	var dash node.Dashboard
	if r.Service != nil {
		dash = r.Service
	}

	r.Node = node.NewNode(nodeConf, address, r.localClock, r.Host, r.RaceNode, dash)

	if r.Service != nil {
		r.Service.AddStats("node", r.Node)
		r.Service.AddStats("network", service.StatsFunc(r.RaceNode.Stats))
	}

	r.logger.WithFields(logrus.Fields{
		"address": address.String(),
		"role":    address.Role().String(),
	}).Debug("Created node")

	return nil
}

// Init creates the components that were not provided.
func (r *Racegate) Init() error {
	r.logger = r.Config.Logger()

	if err := r.Config.Validate(); err != nil {
		return err
	}

	if r.Instance == uuid.Nil {
		r.Instance = uuid.New()
	}

	if r.Clock == nil {
		r.Clock = clockwork.NewRealClock()
	}
	r.localClock = timing.NewLocalClock(r.Clock)

	if err := r.initTransport(); err != nil {
		return err
	}

	if err := r.initPlatform(); err != nil {
		return err
	}

	if err := r.initService(); err != nil {
		return err
	}

	if err := r.initNode(); err != nil {
		return err
	}

	return nil
}

// Run runs the node until ctx is done or the node fails. The transport is
// closed on return.
func (r *Racegate) Run(ctx context.Context) error {
	defer r.RaceNode.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if r.Service != nil {
		go func() {
			if err := r.Service.Serve(ctx); err != nil {
				r.logger.WithError(err).Error("Service stopped")
			}
		}()
	}

	go r.RaceNode.Run(ctx)

	err := r.Node.Run(ctx)

	r.Node.LogStats()

	return err
}
