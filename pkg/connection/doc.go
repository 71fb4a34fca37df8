// Package connection keeps a gateway's device transport alive.
//
// A Supervisor dials the transport, serves it until the link fails, and
// redials after an exponential backoff:
//
//  1. Initial delay: 1 second (configurable)
//  2. Each failed dial doubles the delay
//  3. The delay is capped (60 seconds by default)
//  4. A successful dial resets the delay
//
// Jitter spreads out gateways that lose a shared bridge at the same time:
//
//	actual_delay = base_delay + random(0, base_delay * 0.25)
//
// With MaxAttempts set, the supervisor gives up once that many redials in a
// row have failed and returns ErrGaveUp.
package connection
