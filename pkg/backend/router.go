package backend

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mds-bridge/mds-go/pkg/wire"
)

// DefaultInputDepth is the default number of input frames a Router buffers.
const DefaultInputDepth = 64

// Router demultiplexes inbound frames of a multiplexed transport.
//
// A transport reader goroutine passes every received frame to Deliver.
// Feature responses are kept per report ID (latest wins); input frames are
// queued for ReadFrame-style consumers. When the input queue is full the
// oldest frame is dropped and counted.
type Router struct {
	features [wire.ReportStreamData + 1]chan []byte
	input    chan []byte
	dropped  atomic.Uint64

	closeOnce sync.Once
	closed    chan struct{}
	closeErr  error
}

// NewRouter creates a router buffering up to depth input frames.
// depth <= 0 selects DefaultInputDepth.
func NewRouter(depth int) *Router {
	if depth <= 0 {
		depth = DefaultInputDepth
	}
	r := &Router{
		input:  make(chan []byte, depth),
		closed: make(chan struct{}),
	}
	for i := range r.features {
		r.features[i] = make(chan []byte, 1)
	}
	return r
}

// Deliver routes one frame ([reportID, payload...]). The frame is copied.
// Frames with an empty or unknown report ID are ignored.
func (r *Router) Deliver(frame []byte) {
	if len(frame) == 0 {
		return
	}
	id := wire.ReportID(frame[0])
	if id == 0 || id > wire.ReportStreamData {
		return
	}
	buf := make([]byte, len(frame))
	copy(buf, frame)

	if id == wire.ReportStreamData {
		r.enqueueInput(buf)
		return
	}
	replace(r.features[id], buf[1:])
}

func (r *Router) enqueueInput(frame []byte) {
	for {
		select {
		case r.input <- frame:
			return
		default:
		}
		select {
		case <-r.input:
			r.dropped.Add(1)
		default:
		}
	}
}

// replace stores v in the single-slot channel, discarding a stale value.
func replace(ch chan []byte, v []byte) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Expect discards any stale response for id. Call before sending a request.
func (r *Router) Expect(id wire.ReportID) {
	if !id.IsFeature() && id != wire.ReportStreamControl {
		return
	}
	select {
	case <-r.features[id]:
	default:
	}
}

// AwaitFeature waits for the response payload of feature report id.
func (r *Router) AwaitFeature(id wire.ReportID, timeout time.Duration) ([]byte, error) {
	if !id.IsFeature() && id != wire.ReportStreamControl {
		return nil, fmt.Errorf("%w: %s is not a feature report", ErrInvalidArgument, id)
	}
	return r.wait(r.features[id], timeout)
}

// NextInput waits for the next input frame (including its report ID byte).
func (r *Router) NextInput(timeout time.Duration) ([]byte, error) {
	return r.wait(r.input, timeout)
}

func (r *Router) wait(ch chan []byte, timeout time.Duration) ([]byte, error) {
	// Buffered data is returned even after Close.
	select {
	case v := <-ch:
		return v, nil
	default:
	}

	if timeout == 0 {
		select {
		case <-r.closed:
			return nil, r.closeErr
		default:
			return nil, ErrTimeout
		}
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case v := <-ch:
		return v, nil
	case <-r.closed:
		return nil, r.closeErr
	case <-expired:
		return nil, ErrTimeout
	}
}

// Close wakes all waiters. Subsequent waits on empty queues return an error
// wrapping ErrClosed and cause, if any.
func (r *Router) Close(cause error) {
	r.closeOnce.Do(func() {
		if cause != nil {
			r.closeErr = fmt.Errorf("%w: %w", ErrClosed, cause)
		} else {
			r.closeErr = ErrClosed
		}
		close(r.closed)
	})
}

// Done is closed when the router is closed.
func (r *Router) Done() <-chan struct{} {
	return r.closed
}

// Dropped returns the number of input frames discarded because the queue was full.
func (r *Router) Dropped() uint64 {
	return r.dropped.Load()
}
