package platform

import (
	"fmt"

	"github.com/racegate/racegate/src/peers"
)

// GateState is the reading of a gate sensor.
type GateState uint8

const (
	// Inactive ...
	Inactive GateState = iota
	// Active means the beam is broken or the contact is closed.
	Active
)

// String ...
func (s GateState) String() string {
	if s == Active {
		return "active"
	}
	return "inactive"
}

// ParseGateState ...
func ParseGateState(s string) (GateState, error) {
	switch s {
	case "active", "1", "true", "on":
		return Active, nil
	case "inactive", "0", "false", "off":
		return Inactive, nil
	}
	return Inactive, fmt.Errorf("invalid gate state %q", s)
}

// ButtonState is the reading of the node's push button.
type ButtonState uint8

const (
	// NotPressed ...
	NotPressed ButtonState = iota
	// Pressed ...
	Pressed
)

// String ...
func (s ButtonState) String() string {
	if s == Pressed {
		return "pressed"
	}
	return "not_pressed"
}

// ParseButtonState ...
func ParseButtonState(s string) (ButtonState, error) {
	switch s {
	case "pressed", "1", "true", "on":
		return Pressed, nil
	case "not_pressed", "released", "0", "false", "off":
		return NotPressed, nil
	}
	return NotPressed, fmt.Errorf("invalid button state %q", s)
}

// Color is a 24-bit RGB value, 0xRRGGBB.
type Color uint32

// R ...
func (c Color) R() uint8 { return uint8(c >> 16) }

// G ...
func (c Color) G() uint8 { return uint8(c >> 8) }

// B ...
func (c Color) B() uint8 { return uint8(c) }

// String returns the color in #RRGGBB notation.
func (c Color) String() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R(), c.G(), c.B())
}

// Button ...
type Button interface {
	State() ButtonState
}

// Gate ...
type Gate interface {
	State() GateState
}

// Link reports whether the radio link is up.
type Link interface {
	IsConnected() bool
}

// Selector reads the physical address selector.
type Selector interface {
	Read() (peers.NodeAddress, error)
}

// Indicator drives the RGB status light.
type Indicator interface {
	SetColor(c Color)
}

// Platform gives access to every hardware capability of a node.
type Platform interface {
	Button() Button
	Gate() Gate
	Link() Link
	Selector() Selector
	Indicator() Indicator
}
