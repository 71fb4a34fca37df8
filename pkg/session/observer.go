package session

import (
	"fmt"
	"time"

	"github.com/mds-bridge/mds-go/pkg/wire"
)

// SequenceAnomaly describes a stream packet whose sequence number did not
// follow the previous one. It is advisory: the packet is still processed.
type SequenceAnomaly struct {
	Expected uint8
	Got      uint8
}

// Gap returns how many packets appear to be missing, assuming the stream
// moved forward. A repeat of the previous packet yields 0.
func (a SequenceAnomaly) Gap() int {
	d := (a.Got - a.Expected) & wire.SequenceMask
	if d == wire.SequenceMax {
		return 0
	}
	return int(d)
}

func (a SequenceAnomaly) String() string {
	return fmt.Sprintf("sequence anomaly: expected %d, got %d", a.Expected, a.Got)
}

// Observer is notified synchronously as the session processes packets.
// Implementations must not call back into the session.
type Observer interface {
	// PacketProcessed is called for every parsed packet.
	PacketProcessed(p *wire.StreamPacket)

	// SequenceAnomaly is called when a packet breaks sequence continuity.
	SequenceAnomaly(a SequenceAnomaly)

	// ParseFailed is called when stream data could not be parsed.
	ParseFailed(err error)

	// UploadFinished is called after every sink invocation.
	UploadFinished(size int, elapsed time.Duration, err error)

	// StreamingChanged is called after a successful stream control write.
	StreamingChanged(enabled bool)
}

// NopObserver ignores all notifications. Embed it to implement a subset.
type NopObserver struct{}

func (NopObserver) PacketProcessed(*wire.StreamPacket)       {}
func (NopObserver) SequenceAnomaly(SequenceAnomaly)          {}
func (NopObserver) ParseFailed(error)                        {}
func (NopObserver) UploadFinished(int, time.Duration, error) {}
func (NopObserver) StreamingChanged(bool)                    {}

var _ Observer = NopObserver{}
