// Package platform defines the hardware capabilities a racegate node reads
// and drives: the push button, the gate sensor, the link status of the radio,
// the address selector and the RGB indicator.
//
// The node state machine only depends on the interfaces in this package. Host
// implements them for a machine without dedicated hardware: inputs are
// settable in-process (and through the HTTP service), and the link status is
// delegated to the network transport.
package platform
