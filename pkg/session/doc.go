// Package session implements the host side of the Memfault Diagnostic
// Service protocol.
//
// A Session owns one backend.Backend, reads the device configuration,
// switches streaming on and off and runs every inbound stream packet through
// the same pipeline:
//
//	parse -> validate sequence -> record sequence -> upload or return
//
// Frames arrive either pushed by the caller (Process, ProcessStreamData) or
// pulled from the backend (ProcessStream, ReadPacket).
//
// # Concurrency
//
// A Session spawns no goroutines and has no queues. Operations must be
// serialised by the caller, typically one poll loop per session. The upload
// sink, the observer and the protocol logger run synchronously on the
// caller's stack, so packet arrival and upload order are the same.
//
// Stats, Streaming, LastSequence and DeviceConfig may be read from other
// goroutines, for example by a status endpoint.
//
// # Teardown
//
// Destroy disables streaming if it is still enabled, then destroys the
// backend exactly once. Errors during teardown are logged and swallowed. The
// transport handle behind the backend belongs to the caller and is never
// closed by the session.
package session
