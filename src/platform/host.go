package platform

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/racegate/racegate/src/peers"
	"github.com/sirupsen/logrus"
)

// ErrNoSelector is returned by Host.Read when no selector value was set.
var ErrNoSelector = errors.New("address selector not set")

// Host is a Platform for machines without race hardware. Button, gate and
// selector are plain values that can be set at any time; the link status
// comes from the network transport.
type Host struct {
	button   uint32
	gate     uint32
	selector int32

	link Link

	colorLock sync.Mutex
	color     Color
	colorSet  bool

	logger *logrus.Entry
}

// NewHost creates a Host whose link status is reported by link. The selector
// starts unset.
func NewHost(link Link, logger *logrus.Entry) *Host {
	return &Host{
		selector: -1,
		link:     link,
		logger:   logger,
	}
}

// SetButtonState ...
func (h *Host) SetButtonState(s ButtonState) {
	atomic.StoreUint32(&h.button, uint32(s))
}

// SetGateState ...
func (h *Host) SetGateState(s GateState) {
	atomic.StoreUint32(&h.gate, uint32(s))
}

// SetSelector sets the value returned by the address selector.
func (h *Host) SetSelector(a peers.NodeAddress) {
	atomic.StoreInt32(&h.selector, int32(a))
}

// Color returns the last color written to the indicator.
func (h *Host) Color() (Color, bool) {
	h.colorLock.Lock()
	defer h.colorLock.Unlock()
	return h.color, h.colorSet
}

// Button implements the Platform interface.
func (h *Host) Button() Button { return hostButton{h} }

// Gate implements the Platform interface.
func (h *Host) Gate() Gate { return hostGate{h} }

// Link implements the Platform interface.
func (h *Host) Link() Link { return h.link }

// Selector implements the Platform interface.
func (h *Host) Selector() Selector { return hostSelector{h} }

// Indicator implements the Platform interface.
func (h *Host) Indicator() Indicator { return hostIndicator{h} }

type hostButton struct{ h *Host }

func (b hostButton) State() ButtonState {
	return ButtonState(atomic.LoadUint32(&b.h.button))
}

type hostGate struct{ h *Host }

func (g hostGate) State() GateState {
	return GateState(atomic.LoadUint32(&g.h.gate))
}

type hostSelector struct{ h *Host }

func (s hostSelector) Read() (peers.NodeAddress, error) {
	v := atomic.LoadInt32(&s.h.selector)
	if v < 0 {
		return 0, ErrNoSelector
	}
	return peers.NodeAddress(v), nil
}

type hostIndicator struct{ h *Host }

// SetColor is called on every tick; only changes are logged.
func (i hostIndicator) SetColor(c Color) {
	i.h.colorLock.Lock()
	changed := !i.h.colorSet || i.h.color != c
	i.h.color = c
	i.h.colorSet = true
	i.h.colorLock.Unlock()

	if changed && i.h.logger != nil {
		i.h.logger.WithField("color", c.String()).Debug("Indicator")
	}
}

// StaticLink is a Link with a fixed status.
type StaticLink bool

// IsConnected implements the Link interface.
func (l StaticLink) IsConnected() bool {
	return bool(l)
}
