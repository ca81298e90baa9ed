package net

import (
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// InstanceHeader carries the publisher's instance ID.
const InstanceHeader = "Racegate-Instance"

// NATSConfig ...
type NATSConfig struct {
	URL           string
	Subject       string
	Instance      string
	MaxReconnects int
	ReconnectWait time.Duration
}

// NATSTransport publishes frames on a NATS subject shared by all nodes.
type NATSTransport struct {
	logger *logrus.Entry
	config NATSConfig

	nc  *nats.Conn
	sub *nats.Subscription

	consumeCh chan Packet

	shutdown     bool
	shutdownCh   chan struct{}
	shutdownLock sync.Mutex
}

// NewNATSTransport connects to the NATS server and subscribes to the beacon
// subject.
func NewNATSTransport(config NATSConfig, logger *logrus.Entry) (*NATSTransport, error) {
	t := &NATSTransport{
		logger:     logger,
		config:     config,
		consumeCh:  make(chan Packet, consumerBuffer),
		shutdownCh: make(chan struct{}),
	}

	opts := []nats.Option{
		nats.Name("racegate-" + config.Instance),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.WithError(err).Warn("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			logger.WithError(err).Error("NATS error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	sub, err := nc.Subscribe(config.Subject, t.handle)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", config.Subject, err)
	}

	t.nc = nc
	t.sub = sub

	return t, nil
}

func (t *NATSTransport) handle(msg *nats.Msg) {
	from := msg.Header.Get(InstanceHeader)
	if from == t.config.Instance {
		return
	}

	if !deliver(t.consumeCh, Packet{Data: msg.Data, From: from}) {
		t.logger.WithField("from", from).Debug("Consumer full, dropping message")
	}
}

// Listen implements the Transport interface. Messages are delivered by the
// NATS client's own goroutines; Listen only blocks until Close.
func (t *NATSTransport) Listen() {
	<-t.shutdownCh
}

// Consumer implements the Transport interface.
func (t *NATSTransport) Consumer() <-chan Packet {
	return t.consumeCh
}

// Publish implements the Transport interface.
func (t *NATSTransport) Publish(data []byte) error {
	if t.isShutdown() {
		return ErrTransportShutdown
	}
	if !t.nc.IsConnected() {
		return ErrLinkDown
	}

	msg := nats.NewMsg(t.config.Subject)
	msg.Header.Set(InstanceHeader, t.config.Instance)
	msg.Data = data

	return t.nc.PublishMsg(msg)
}

// Connected implements the Transport interface.
func (t *NATSTransport) Connected() bool {
	return !t.isShutdown() && t.nc.IsConnected()
}

// LocalAddr implements the Transport interface.
func (t *NATSTransport) LocalAddr() string {
	return t.config.Subject + "@" + t.config.Instance
}

// Close implements the Transport interface.
func (t *NATSTransport) Close() error {
	t.shutdownLock.Lock()
	defer t.shutdownLock.Unlock()

	if t.shutdown {
		return nil
	}
	t.shutdown = true
	close(t.shutdownCh)

	if err := t.sub.Unsubscribe(); err != nil {
		t.logger.WithError(err).Debug("Unsubscribing")
	}
	t.nc.Close()

	return nil
}

func (t *NATSTransport) isShutdown() bool {
	t.shutdownLock.Lock()
	defer t.shutdownLock.Unlock()
	return t.shutdown
}
