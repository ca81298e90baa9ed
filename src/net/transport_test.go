package net

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/racegate/racegate/src/common"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/ipv4"
)

func recv(t *testing.T, trans *InmemTransport) (Packet, bool) {
	t.Helper()
	select {
	case p := <-trans.Consumer():
		return p, true
	case <-time.After(50 * time.Millisecond):
		return Packet{}, false
	}
}

func TestInmemPublish(t *testing.T) {
	addr1, trans1 := NewInmemTransport("")
	addr2, trans2 := NewInmemTransport("")
	_, trans3 := NewInmemTransport("")
	defer trans1.Close()
	defer trans2.Close()
	defer trans3.Close()

	ConnectAll(trans1, trans2, trans3)

	data := []byte{2, 0, 0, 0, 0, 0x03, 0xe8}
	if err := trans1.Publish(data); err != nil {
		t.Fatal(err)
	}

	// The publisher keeps its buffer.
	data[0] = 9

	for _, trans := range []*InmemTransport{trans2, trans3} {
		p, ok := recv(t, trans)
		if !ok {
			t.Fatalf("%s did not receive the packet", trans.LocalAddr())
		}
		if p.From != addr1 {
			t.Fatalf("From should be %s, not %s", addr1, p.From)
		}
		if !bytes.Equal(p.Data, []byte{2, 0, 0, 0, 0, 0x03, 0xe8}) {
			t.Fatalf("unexpected data %v", p.Data)
		}
	}

	if _, ok := recv(t, trans1); ok {
		t.Fatal("publisher should not receive its own packet")
	}

	trans1.Disconnect(addr2)
	if err := trans1.Publish(data); err != nil {
		t.Fatal(err)
	}
	if _, ok := recv(t, trans2); ok {
		t.Fatal("disconnected peer should not receive")
	}
	if _, ok := recv(t, trans3); !ok {
		t.Fatal("connected peer should receive")
	}
}

func TestInmemLinkDown(t *testing.T) {
	_, trans1 := NewInmemTransport("a")
	_, trans2 := NewInmemTransport("b")
	ConnectAll(trans1, trans2)

	trans1.SetConnected(false)
	if trans1.Connected() {
		t.Fatal("link should be down")
	}
	if err := trans1.Publish([]byte{1}); err != ErrLinkDown {
		t.Fatalf("expected ErrLinkDown, got %v", err)
	}

	trans1.SetConnected(true)
	trans2.SetConnected(false)
	if err := trans1.Publish([]byte{1}); err != nil {
		t.Fatal(err)
	}
	if _, ok := recv(t, trans2); ok {
		t.Fatal("receiver with link down should not receive")
	}

	trans1.Close()
	if trans1.Connected() {
		t.Fatal("closed transport should not be connected")
	}
	if err := trans1.Publish([]byte{1}); err != ErrTransportShutdown {
		t.Fatalf("expected ErrTransportShutdown, got %v", err)
	}
}

func TestInmemDropsWhenFull(t *testing.T) {
	_, trans := NewInmemTransport("")

	for i := 0; i < consumerBuffer; i++ {
		if !trans.Inject("x", []byte{byte(i)}) {
			t.Fatalf("packet %d should be queued", i)
		}
	}
	if trans.Inject("x", []byte{0xff}) {
		t.Fatal("packet should be dropped when the queue is full")
	}
	if d := trans.Dropped(); d != 1 {
		t.Fatalf("Dropped should be 1, not %d", d)
	}
}

func TestMulticastRejectsUnicastGroup(t *testing.T) {
	logger := common.NewTestEntry(t, logrus.DebugLevel)

	for _, addr := range []string{"127.0.0.1:7171", "192.168.1.10:7171", "not-an-address"} {
		if _, err := NewMulticastTransport(addr, "", 1, logger); err == nil {
			t.Fatalf("%s should be rejected", addr)
		}
	}
}

func TestMulticastUnknownInterface(t *testing.T) {
	logger := common.NewTestEntry(t, logrus.DebugLevel)

	if _, err := NewMulticastTransport("239.0.0.71:7171", "no-such-iface0", 1, logger); err == nil {
		t.Fatal("unknown interface should be rejected")
	}
}

func TestNextReadRetry(t *testing.T) {
	expected := []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		40 * time.Millisecond,
		80 * time.Millisecond,
		160 * time.Millisecond,
		320 * time.Millisecond,
		640 * time.Millisecond,
		time.Second,
		time.Second,
	}

	var wait time.Duration
	for i, e := range expected {
		wait = nextReadRetry(wait)
		if wait != e {
			t.Fatalf("retry %d should wait %v, not %v", i, e, wait)
		}
	}
}

func TestMulticastListenBacksOff(t *testing.T) {
	logger := common.NewTestEntry(t, logrus.DebugLevel)

	raw, err := net.ListenPacket("udp4", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	// Every read fails from now on.
	raw.Close()

	m := &MulticastTransport{
		logger:     logger,
		raw:        raw,
		conn:       ipv4.NewPacketConn(raw),
		group:      &net.UDPAddr{IP: net.IPv4(239, 0, 0, 71), Port: 7171},
		consumeCh:  make(chan Packet, consumerBuffer),
		shutdownCh: make(chan struct{}),
	}

	done := make(chan struct{})
	go func() {
		m.Listen()
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)

	// Waits of 10, 20 and 40 ms fit in the window; the 80 ms one does not.
	if n := m.readErrors.Load(); n == 0 || n > 5 {
		t.Fatalf("expected a handful of read errors, got %d", n)
	}

	m.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Listen should return after Close")
	}
}

func TestNATSHandleDropsOwnMessages(t *testing.T) {
	logger := common.NewTestEntry(t, logrus.DebugLevel)

	trans := &NATSTransport{
		logger:     logger,
		config:     NATSConfig{Subject: "racegate.beacons", Instance: "self"},
		consumeCh:  make(chan Packet, consumerBuffer),
		shutdownCh: make(chan struct{}),
	}

	msg := func(instance string, data []byte) *nats.Msg {
		m := nats.NewMsg("racegate.beacons")
		if instance != "" {
			m.Header.Set(InstanceHeader, instance)
		}
		m.Data = data
		return m
	}

	trans.handle(msg("self", []byte{1}))
	trans.handle(msg("other", []byte{2}))
	trans.handle(msg("", []byte{3}))

	expected := []Packet{
		{Data: []byte{2}, From: "other"},
		{Data: []byte{3}, From: ""},
	}
	for _, e := range expected {
		select {
		case p := <-trans.Consumer():
			if p.From != e.From || !bytes.Equal(p.Data, e.Data) {
				t.Fatalf("expected %+v, got %+v", e, p)
			}
		default:
			t.Fatalf("packet %+v should have been delivered", e)
		}
	}

	select {
	case p := <-trans.Consumer():
		t.Fatalf("own message should be dropped, got %+v", p)
	default:
	}
}
