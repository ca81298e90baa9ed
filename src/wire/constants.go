package wire

// Frame layout.
const (
	FrameSize = 16

	tagOffset     = 0
	addressOffset = 1
	stateOffset   = 2
	timeOffset    = 3
	seqOffset     = 7
	epochOffset   = 11

	// legacyFrameSize is the number of bytes every tag requires: tag,
	// address, gate state and timestamp.
	legacyFrameSize = timeOffset + 4

	// stampedFrameSize is the number of bytes needed to carry a Stamp.
	stampedFrameSize = epochOffset + 1
)

// Tag identifies the kind of message carried by a frame.
type Tag uint8

// Message tags.
const (
	TagGateBeacon        Tag = 1
	TagCoordinatorBeacon Tag = 2
)

// String ...
func (t Tag) String() string {
	switch t {
	case TagGateBeacon:
		return "GateBeacon"
	case TagCoordinatorBeacon:
		return "CoordinatorBeacon"
	default:
		return "Unknown"
	}
}

// NoActivation is the timestamp a GateBeacon carries when the gate has not
// been activated yet.
const NoActivation = 0
