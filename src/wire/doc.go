// Package wire implements the fixed-size binary frames exchanged between
// racegate nodes.
//
// Every frame is exactly FrameSize (16) bytes:
//
//   byte  0      message tag
//   byte  1      node address
//   byte  2      gate state (0 inactive, 1 active, other values read as inactive)
//   bytes 3-6    big-endian millisecond timestamp
//   bytes 7-10   big-endian sequence number
//   byte  11     boot epoch of the sender
//   bytes 12-15  reserved, zero
//
// Tag 1 is the legacy system-state layout shared by all nodes: it carries a
// GateBeacon, or a CoordinatorBeacon when byte 1 is the coordinator address.
// Frames from senders that leave bytes 7-15 at zero still decode. Tag 2
// carries a CoordinatorBeacon and requires byte 2 to be zero. New message kinds get new
// tags; the frame size never changes.
//
// The sequence number and epoch form a Stamp. Receivers use it to discard
// duplicated or reordered beacons; see Stamp.Newer.
package wire
