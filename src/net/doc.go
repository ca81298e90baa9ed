// Package net implements the transports that carry beacon frames between
// racegate nodes.
//
// All transports are broadcast and unreliable: a published frame reaches
// every listening node at most once, possibly out of order, possibly not at
// all. Higher layers (see the racenode package) tolerate loss, duplication and
// reordering. There are three implementations of the Transport interface:
//
// - Inmem: in-memory transport used for testing
//
// - Multicast: UDP multicast on the local network segment
//
// - NATS: publish/subscribe through a NATS server
//
// Multicast
//
// The Multicast transport is the natural replacement for the radio link when
// all nodes share a Wi-Fi network. Every node joins the same group (for
// example 239.0.0.71:7171) and sends its beacons to it. Loopback is enabled so
// that several nodes can run on one machine. The link is considered up while
// the selected interface is up.
//
// NATS
//
// The NATS transport is useful when nodes cannot exchange multicast traffic,
// for example across routed networks or in containers. Every node publishes
// and subscribes to the same subject. Messages carry the publisher's instance
// ID in a header so that nodes ignore their own echoes. The link is considered
// up while the client is connected to the server.
package net
