package net

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/ipv4"
)

// maxDatagram bounds the size of received datagrams. Anything larger than a
// frame is passed on and rejected by the decoder.
const maxDatagram = 64

// Bounds of the exponential wait between failed reads.
const (
	readRetryMin = 10 * time.Millisecond
	readRetryMax = time.Second
)

// nextReadRetry doubles the previous wait within [readRetryMin, readRetryMax].
func nextReadRetry(prev time.Duration) time.Duration {
	next := 2 * prev
	if next < readRetryMin {
		return readRetryMin
	}
	if next > readRetryMax {
		return readRetryMax
	}
	return next
}

// MulticastTransport broadcasts frames to a UDP multicast group.
type MulticastTransport struct {
	logger *logrus.Entry

	raw   net.PacketConn
	conn  *ipv4.PacketConn
	group *net.UDPAddr
	ifi   *net.Interface

	consumeCh  chan Packet
	readErrors atomic.Uint64

	shutdown     bool
	shutdownCh   chan struct{}
	shutdownLock sync.Mutex
}

// NewMulticastTransport joins the multicast group groupAddr (IP:PORT) on the
// interface named iface, or on the system default interface when iface is
// empty.
func NewMulticastTransport(groupAddr string, iface string, ttl int, logger *logrus.Entry) (*MulticastTransport, error) {
	group, err := net.ResolveUDPAddr("udp4", groupAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve multicast group: %w", err)
	}
	if !group.IP.IsMulticast() {
		return nil, fmt.Errorf("%s is not a multicast address", group.IP)
	}

	var ifi *net.Interface
	if iface != "" {
		ifi, err = net.InterfaceByName(iface)
		if err != nil {
			return nil, fmt.Errorf("multicast interface: %w", err)
		}
	}

	raw, err := net.ListenPacket("udp4", fmt.Sprintf("0.0.0.0:%d", group.Port))
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	conn := ipv4.NewPacketConn(raw)

	if err := conn.JoinGroup(ifi, &net.UDPAddr{IP: group.IP}); err != nil {
		raw.Close()
		return nil, fmt.Errorf("join group %s: %w", group.IP, err)
	}
	if ifi != nil {
		if err := conn.SetMulticastInterface(ifi); err != nil {
			raw.Close()
			return nil, fmt.Errorf("set multicast interface: %w", err)
		}
	}
	if err := conn.SetMulticastTTL(ttl); err != nil {
		raw.Close()
		return nil, fmt.Errorf("set multicast ttl: %w", err)
	}
	// Several nodes may share one host.
	if err := conn.SetMulticastLoopback(true); err != nil {
		raw.Close()
		return nil, fmt.Errorf("set multicast loopback: %w", err)
	}

	return &MulticastTransport{
		logger:    logger,
		raw:       raw,
		conn:      conn,
		group:     group,
		ifi:       ifi,
		consumeCh:  make(chan Packet, consumerBuffer),
		shutdownCh: make(chan struct{}),
	}, nil
}

// Listen implements the Transport interface. It reads datagrams until the
// transport is closed. Consecutive read errors are retried with an
// exponential wait.
func (m *MulticastTransport) Listen() {
	buf := make([]byte, maxDatagram)
	var wait time.Duration

	for {
		n, _, src, err := m.conn.ReadFrom(buf)
		if err != nil {
			if m.isShutdown() {
				return
			}
			m.readErrors.Add(1)
			wait = nextReadRetry(wait)
			m.logger.WithError(err).WithField("retry_in", wait).Error("Reading multicast datagram")

			select {
			case <-m.shutdownCh:
				return
			case <-time.After(wait):
			}
			continue
		}
		wait = 0

		data := make([]byte, n)
		copy(data, buf[:n])

		from := ""
		if src != nil {
			from = src.String()
		}

		if !deliver(m.consumeCh, Packet{Data: data, From: from}) {
			m.logger.WithField("from", from).Debug("Consumer full, dropping datagram")
		}
	}
}

// Consumer implements the Transport interface.
func (m *MulticastTransport) Consumer() <-chan Packet {
	return m.consumeCh
}

// Publish implements the Transport interface.
func (m *MulticastTransport) Publish(data []byte) error {
	if m.isShutdown() {
		return ErrTransportShutdown
	}
	_, err := m.conn.WriteTo(data, nil, m.group)
	return err
}

// Connected implements the Transport interface. Without an explicit interface
// the link is assumed up.
func (m *MulticastTransport) Connected() bool {
	if m.isShutdown() {
		return false
	}
	if m.ifi == nil {
		return true
	}
	ifi, err := net.InterfaceByName(m.ifi.Name)
	if err != nil {
		return false
	}
	return ifi.Flags&net.FlagUp != 0
}

// LocalAddr implements the Transport interface.
func (m *MulticastTransport) LocalAddr() string {
	return m.raw.LocalAddr().String()
}

// Close implements the Transport interface.
func (m *MulticastTransport) Close() error {
	m.shutdownLock.Lock()
	defer m.shutdownLock.Unlock()

	if m.shutdown {
		return nil
	}
	m.shutdown = true
	close(m.shutdownCh)

	if err := m.conn.LeaveGroup(m.ifi, &net.UDPAddr{IP: m.group.IP}); err != nil {
		m.logger.WithError(err).Debug("Leaving multicast group")
	}
	return m.conn.Close()
}

func (m *MulticastTransport) isShutdown() bool {
	m.shutdownLock.Lock()
	defer m.shutdownLock.Unlock()
	return m.shutdown
}
