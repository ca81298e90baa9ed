package wire

import "fmt"

// Stamp orders the beacons of one sender. Epoch identifies a run of the
// sender (it changes when the node restarts) and Seq increases with every
// beacon of that run. The zero Stamp marks a sender that does not stamp its
// frames.
type Stamp struct {
	Epoch uint8
	Seq   uint32
}

// Sequenced ...
func (s Stamp) Sequenced() bool {
	return s.Epoch != 0
}

// Newer reports whether a beacon stamped s may replace state last written by a
// beacon stamped prev. Unstamped beacons always win. A different epoch means
// the sender restarted and also wins. Within an epoch the sequence number
// must move forward, compared with serial number arithmetic so wrap-around
// is tolerated.
func (s Stamp) Newer(prev Stamp) bool {
	if !s.Sequenced() || !prev.Sequenced() {
		return true
	}
	if s.Epoch != prev.Epoch {
		return true
	}
	return int32(s.Seq-prev.Seq) > 0
}

// String ...
func (s Stamp) String() string {
	return fmt.Sprintf("%d/%d", s.Epoch, s.Seq)
}

// Sequencer hands out the Stamps of a single sender.
type Sequencer struct {
	epoch uint8
	seq   uint32
}

// NewSequencer creates a Sequencer for a run identified by epoch. Epoch 0 is
// reserved for unstamped senders and is replaced by 1.
func NewSequencer(epoch uint8) *Sequencer {
	if epoch == 0 {
		epoch = 1
	}
	return &Sequencer{epoch: epoch}
}

// Next returns the next Stamp.
func (s *Sequencer) Next() Stamp {
	s.seq++
	return Stamp{Epoch: s.epoch, Seq: s.seq}
}

// Epoch ...
func (s *Sequencer) Epoch() uint8 {
	return s.epoch
}
