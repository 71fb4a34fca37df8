package backend

import (
	"time"

	"github.com/mds-bridge/mds-go/pkg/wire"
)

// Backend moves report bytes between the session and a device.
//
// All methods are called on the session's goroutine. A timeout < 0 blocks
// until data arrives, 0 polls.
type Backend interface {
	// Read reads report id into buf and returns the number of bytes read.
	// Reading ReportStreamData on a transport without a blocking read path
	// returns ErrWouldBlock.
	Read(id wire.ReportID, buf []byte, timeout time.Duration) (int, error)

	// Write writes buf as report id and returns the number of bytes written.
	Write(id wire.ReportID, buf []byte) (int, error)

	// Destroy releases backend resources. It is called exactly once.
	Destroy()
}

// FrameSource is implemented by multiplexed backends that deliver input
// frames to the caller instead of through Read. Each frame starts with its
// report ID and is suitable for session.Process.
type FrameSource interface {
	// ReadFrame returns the next input frame. The returned slice is only
	// valid until the next call.
	ReadFrame(timeout time.Duration) ([]byte, error)
}
