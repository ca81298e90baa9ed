package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/racegate/racegate/src/peers"
	"github.com/racegate/racegate/src/platform"
	"github.com/racegate/racegate/src/timing"
)

// Frame is the unit exchanged over the network transport.
type Frame [FrameSize]byte

// Bytes returns the frame as a slice backed by a copy.
func (f Frame) Bytes() []byte {
	b := make([]byte, FrameSize)
	copy(b, f[:])
	return b
}

// Encode serializes m. Unused trailing bytes are zero.
func Encode(m Message) Frame {
	var f Frame

	switch msg := m.(type) {
	case CoordinatorBeacon:
		f[tagOffset] = byte(msg.Tag())
		f[addressOffset] = byte(peers.Coordinator)
		f[stateOffset] = byte(platform.Inactive)
		binary.BigEndian.PutUint32(f[timeOffset:], uint32(msg.Time))
		putStamp(&f, msg.Stamp)
	case GateBeacon:
		f[tagOffset] = byte(TagGateBeacon)
		f[addressOffset] = byte(msg.Address)
		f[stateOffset] = encodeGateState(msg.State)
		t := uint32(NoActivation)
		if msg.LastActivation.Set {
			t = uint32(msg.LastActivation.Time)
		}
		binary.BigEndian.PutUint32(f[timeOffset:], t)
		putStamp(&f, msg.Stamp)
	default:
		panic(fmt.Sprintf("wire: cannot encode %T", m))
	}

	return f
}

// Decode parses a frame. It fails with a DecodeErr for empty, oversized or
// truncated frames and for unknown tags.
//
// A tag 1 frame from the coordinator address is a legacy CoordinatorBeacon.
// On tag 1 a gate state byte other than 0 or 1 reads as 0, so such frames do
// not survive Encode unchanged. Tag 2 frames must carry a zero state byte.
func Decode(data []byte) (Message, error) {
	if len(data) == 0 {
		return nil, NewDecodeErr(EmptyFrame, 0, 0)
	}

	tag := data[tagOffset]

	if len(data) > FrameSize {
		return nil, NewDecodeErr(OversizedFrame, tag, len(data))
	}

	switch Tag(tag) {
	case TagCoordinatorBeacon, TagGateBeacon:
	default:
		return nil, NewDecodeErr(UnknownTag, tag, len(data))
	}

	if len(data) < legacyFrameSize {
		return nil, NewDecodeErr(ShortFrame, tag, len(data))
	}

	addr := peers.NodeAddress(data[addressOffset])
	t := binary.BigEndian.Uint32(data[timeOffset:])
	stamp := readStamp(data)

	switch {
	case Tag(tag) == TagCoordinatorBeacon:
		if !addr.IsCoordinator() {
			return nil, NewDecodeErr(BadAddress, tag, len(data))
		}
		if data[stateOffset] != 0 {
			return nil, NewDecodeErr(BadState, tag, len(data))
		}
		return CoordinatorBeacon{
			Time:  timing.CoordinatedInstant(t),
			Stamp: stamp,
		}, nil
	case addr.IsCoordinator():
		return CoordinatorBeacon{
			Time:   timing.CoordinatedInstant(t),
			Stamp:  stamp,
			Legacy: true,
		}, nil
	}

	beacon := GateBeacon{
		Address: addr,
		State:   decodeGateState(data[stateOffset]),
		Stamp:   stamp,
	}
	if t != NoActivation {
		beacon.LastActivation = timing.Latch{Time: timing.CoordinatedInstant(t), Set: true}
	}

	return beacon, nil
}

func encodeGateState(s platform.GateState) byte {
	if s == platform.Active {
		return 1
	}
	return 0
}

func decodeGateState(b byte) platform.GateState {
	if b == 1 {
		return platform.Active
	}
	return platform.Inactive
}

func putStamp(f *Frame, s Stamp) {
	binary.BigEndian.PutUint32(f[seqOffset:], s.Seq)
	f[epochOffset] = s.Epoch
}

// readStamp returns the zero Stamp for legacy frames too short to carry one.
func readStamp(data []byte) Stamp {
	if len(data) < stampedFrameSize {
		return Stamp{}
	}
	return Stamp{
		Epoch: data[epochOffset],
		Seq:   binary.BigEndian.Uint32(data[seqOffset:]),
	}
}
