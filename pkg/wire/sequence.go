package wire

// NextSequence returns the sequence value expected after seq.
func NextSequence(seq uint8) uint8 {
	return (seq + 1) & SequenceMask
}

// ValidateSequence reports whether current directly follows last,
// including the wrap from 31 to 0. Duplicates, gaps and reordering all fail.
func ValidateSequence(last, current uint8) bool {
	return current == NextSequence(last)
}
