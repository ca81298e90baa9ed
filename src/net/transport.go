package net

import (
	"errors"
)

var (
	// ErrTransportShutdown is returned when operations on a transport are
	// invoked after it's been terminated.
	ErrTransportShutdown = errors.New("transport shutdown")

	// ErrLinkDown is returned by Publish when the link is not connected.
	ErrLinkDown = errors.New("link down")
)

// consumerBuffer is the number of received packets a transport queues before
// it starts dropping them.
const consumerBuffer = 64

// Packet is a datagram received from the network.
type Packet struct {
	Data []byte
	From string
}

// Transport provides an interface for broadcast network transports used to
// exchange beacon frames.
type Transport interface {

	// Listen receives packets until the transport is closed. It is blocking
	// for transports that own a read loop.
	Listen()

	// Consumer returns a channel that can be used to consume received
	// packets.
	Consumer() <-chan Packet

	// Publish broadcasts data to every other node.
	Publish(data []byte) error

	// Connected reports whether the link is up.
	Connected() bool

	// LocalAddr is used to return our local address
	LocalAddr() string

	// Close permanently closes a transport, stopping
	// any associated goroutines and freeing other resources.
	Close() error
}

// deliver queues p on ch without blocking. It returns false when the packet
// was dropped.
func deliver(ch chan Packet, p Packet) bool {
	select {
	case ch <- p:
		return true
	default:
		return false
	}
}
