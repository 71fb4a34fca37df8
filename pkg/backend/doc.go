// Package backend defines the transport abstraction the MDS session moves
// bytes through.
//
// A Backend reads and writes reports addressed by report ID. How a report ID
// maps onto the transport is the backend's business:
//   - HID: feature reports for 0x01-0x05, input reports for 0x06
//   - Byte streams: the report ID is a framing byte (see package serial)
//   - BLE or WebSocket bridges: the report ID selects a characteristic or
//     message channel (see package wsbridge)
//
// A session owns its Backend and calls Destroy exactly once. The transport
// handle behind a backend (serial port, socket, device handle) belongs to the
// caller; Destroy releases backend state only and never closes that handle.
//
// # Errors
//
// Backends report failures with the sentinel errors of this package, which
// replace the negative POSIX codes of the C interface:
//
//	ErrIO              -EIO        transport failure
//	ErrWouldBlock      -EAGAIN     no data and no blocking read path
//	ErrInvalidArgument -EINVAL     bad report ID or buffer
//	ErrTimeout         -ETIMEDOUT  blocking read timed out
//
// FromErrno and Errno convert between the two for callers bridging to C.
package backend
