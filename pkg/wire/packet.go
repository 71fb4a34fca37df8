package wire

import "fmt"

// SequenceMask selects the sequence counter bits of a stream packet's first byte.
const SequenceMask = 0x1F

// SequenceMax is the largest sequence value before the counter wraps to 0.
const SequenceMax = 31

// StreamPacket is one decoded stream data packet.
type StreamPacket struct {
	// Sequence is the 5-bit packet counter (0-31).
	Sequence uint8

	// Data holds the chunk bytes; only the first DataLen are valid.
	Data [MaxChunkDataLen]byte

	// DataLen is the number of valid bytes in Data (0-63).
	DataLen int
}

// Payload returns the valid chunk bytes. The slice aliases p.Data.
func (p *StreamPacket) Payload() []byte {
	return p.Data[:p.DataLen]
}

// ParseStreamPacket decodes a stream packet (sequence byte followed by chunk data).
// Data beyond MaxChunkDataLen is truncated.
func ParseStreamPacket(buf []byte) (StreamPacket, error) {
	var p StreamPacket
	if len(buf) < 1 {
		return p, fmt.Errorf("%w: stream packet needs a sequence byte", ErrTooShort)
	}
	p.Sequence = buf[0] & SequenceMask
	p.DataLen = copy(p.Data[:], buf[1:])
	return p, nil
}

// EncodeStreamPacket writes a stream packet with the given sequence and data into out.
// Only the low 5 bits of seq are used. Returns the number of bytes written.
func EncodeStreamPacket(seq uint8, data []byte, out []byte) (int, error) {
	if len(data) > MaxChunkDataLen {
		return 0, fmt.Errorf("%w: %d > %d", ErrChunkTooLarge, len(data), MaxChunkDataLen)
	}
	if len(out) < len(data)+1 {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrBufferTooSmall, len(data)+1, len(out))
	}
	out[0] = seq & SequenceMask
	copy(out[1:], data)
	return len(data) + 1, nil
}
