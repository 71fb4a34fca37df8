package wire

import "errors"

// Codec errors.
var (
	// ErrTooShort indicates the input holds fewer bytes than a structural field needs.
	// More data may make the same input parseable.
	ErrTooShort = errors.New("wire: input too short")

	// ErrBufferTooSmall indicates the caller-supplied destination has insufficient capacity.
	ErrBufferTooSmall = errors.New("wire: destination buffer too small")

	// ErrInvalidStreamMode indicates a stream control byte other than 0x00 or 0x01.
	ErrInvalidStreamMode = errors.New("wire: invalid stream control mode")

	// ErrChunkTooLarge indicates chunk data longer than MaxChunkDataLen.
	ErrChunkTooLarge = errors.New("wire: chunk data too large")

	// ErrUnknownReport indicates a report ID that is not valid for the operation.
	ErrUnknownReport = errors.New("wire: unknown report")
)
