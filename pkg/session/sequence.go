package session

import "github.com/mds-bridge/mds-go/pkg/wire"

// LastSequence returns the sequence number of the last packet and whether
// any packet was seen yet.
func (s *Session) LastSequence() (uint8, bool) {
	v := s.lastSeq.Load()
	if v == noSequence {
		return 0, false
	}
	return uint8(v), true
}

// UpdateLastSequence records seq as the last seen sequence number.
// Only the low five bits are kept.
func (s *Session) UpdateLastSequence(seq uint8) {
	s.lastSeq.Store(int32(seq & wire.SequenceMask))
}

// ResetSequence forgets the last sequence number, so the next packet is
// accepted without a continuity check.
func (s *Session) ResetSequence() {
	s.lastSeq.Store(noSequence)
}

// checkSequence reports the anomaly, if any, of receiving seq next.
func (s *Session) checkSequence(seq uint8) (SequenceAnomaly, bool) {
	last, ok := s.LastSequence()
	if !ok || wire.ValidateSequence(last, seq) {
		return SequenceAnomaly{}, false
	}
	return SequenceAnomaly{Expected: wire.NextSequence(last), Got: seq}, true
}
