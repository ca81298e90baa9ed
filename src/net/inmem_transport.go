package net

import (
	"sync"

	"github.com/google/uuid"
)

// NewInmemAddr returns a new in-memory addr with
// a randomly generate UUID as the ID.
func NewInmemAddr() string {
	return uuid.NewString()
}

// InmemTransport Implements the Transport interface, to allow racegate nodes
// to be tested in-memory without going over a network. Publishing delivers a
// copy of the frame to every connected peer; a peer whose queue is full, or
// whose link is down, misses it.
type InmemTransport struct {
	sync.RWMutex
	consumerCh chan Packet
	localAddr  string
	peers      map[string]*InmemTransport
	connected  bool
	shutdown   bool
	dropped    uint64
}

// NewInmemTransport is used to initialize a new transport
// and generates a random local address if none is specified
func NewInmemTransport(addr string) (string, *InmemTransport) {
	if addr == "" {
		addr = NewInmemAddr()
	}
	trans := &InmemTransport{
		consumerCh: make(chan Packet, consumerBuffer),
		localAddr:  addr,
		peers:      make(map[string]*InmemTransport),
		connected:  true,
	}
	return addr, trans
}

// Consumer implements the Transport interface.
func (i *InmemTransport) Consumer() <-chan Packet {
	return i.consumerCh
}

// LocalAddr implements the Transport interface.
func (i *InmemTransport) LocalAddr() string {
	return i.localAddr
}

// Connected implements the Transport interface.
func (i *InmemTransport) Connected() bool {
	i.RLock()
	defer i.RUnlock()
	return i.connected && !i.shutdown
}

// SetConnected brings the link up or down. A transport whose link is down
// neither sends nor receives.
func (i *InmemTransport) SetConnected(up bool) {
	i.Lock()
	defer i.Unlock()
	i.connected = up
}

// Publish implements the Transport interface.
func (i *InmemTransport) Publish(data []byte) error {
	i.RLock()
	if i.shutdown {
		i.RUnlock()
		return ErrTransportShutdown
	}
	if !i.connected {
		i.RUnlock()
		return ErrLinkDown
	}
	peers := make([]*InmemTransport, 0, len(i.peers))
	for _, p := range i.peers {
		peers = append(peers, p)
	}
	i.RUnlock()

	for _, p := range peers {
		p.Inject(i.localAddr, data)
	}

	return nil
}

// Inject queues a packet as if it had been received from the network. Tests
// use it to feed hand-crafted frames.
func (i *InmemTransport) Inject(from string, data []byte) bool {
	i.Lock()
	defer i.Unlock()

	if i.shutdown || !i.connected {
		return false
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	if !deliver(i.consumerCh, Packet{Data: buf, From: from}) {
		i.dropped++
		return false
	}
	return true
}

// Dropped returns the number of packets dropped because the consumer queue
// was full.
func (i *InmemTransport) Dropped() uint64 {
	i.RLock()
	defer i.RUnlock()
	return i.dropped
}

// Connect is used to connect this transport to another transport for
// a given peer name. This allows for local routing.
func (i *InmemTransport) Connect(peer string, t Transport) {
	trans := t.(*InmemTransport)
	i.Lock()
	defer i.Unlock()
	i.peers[peer] = trans
}

// Disconnect is used to remove the ability to route to a given peer.
func (i *InmemTransport) Disconnect(peer string) {
	i.Lock()
	defer i.Unlock()
	delete(i.peers, peer)
}

// DisconnectAll is used to remove all routes to peers.
func (i *InmemTransport) DisconnectAll() {
	i.Lock()
	defer i.Unlock()
	i.peers = make(map[string]*InmemTransport)
}

// Close is used to permanently disable the transport
func (i *InmemTransport) Close() error {
	i.DisconnectAll()
	i.Lock()
	i.shutdown = true
	i.Unlock()
	return nil
}

// Listen is an empty function as there is no need to defer
// initialisation of the InMem service
func (i *InmemTransport) Listen() {
}

// ConnectAll connects every transport to every other one.
func ConnectAll(transports ...*InmemTransport) {
	for _, a := range transports {
		for _, b := range transports {
			if a != b {
				a.Connect(b.LocalAddr(), b)
			}
		}
	}
}
