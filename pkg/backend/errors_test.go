package backend

import (
	"errors"
	"fmt"
	"syscall"
	"testing"
)

func TestErrnoRoundTrip(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{ErrIO, -int(syscall.EIO)},
		{ErrWouldBlock, -int(syscall.EAGAIN)},
		{ErrInvalidArgument, -int(syscall.EINVAL)},
		{ErrTimeout, -int(syscall.ETIMEDOUT)},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := Errno(tt.err); got != tt.code {
				t.Errorf("Errno(%v) = %d, want %d", tt.err, got, tt.code)
			}
			if got := FromErrno(tt.code); !errors.Is(got, tt.err) {
				t.Errorf("FromErrno(%d) = %v, want %v", tt.code, got, tt.err)
			}
		})
	}
}

func TestErrnoWrapped(t *testing.T) {
	err := fmt.Errorf("read report: %w", ErrWouldBlock)
	if got := Errno(err); got != -int(syscall.EAGAIN) {
		t.Errorf("Errno(wrapped) = %d", got)
	}
	if Errno(nil) != 0 {
		t.Error("Errno(nil) should be 0")
	}
	if Errno(errors.New("other")) != -int(syscall.EIO) {
		t.Error("unknown errors should map to EIO")
	}
}

func TestFromErrnoSuccess(t *testing.T) {
	for _, code := range []int{0, 1, 64} {
		if err := FromErrno(code); err != nil {
			t.Errorf("FromErrno(%d) = %v, want nil", code, err)
		}
	}
	if !errors.Is(FromErrno(-int(syscall.EPIPE)), ErrIO) {
		t.Error("unmapped codes should become ErrIO")
	}
}

func TestIsNoData(t *testing.T) {
	if !IsNoData(ErrWouldBlock) || !IsNoData(fmt.Errorf("x: %w", ErrTimeout)) {
		t.Error("would-block and timeout are no-data conditions")
	}
	if IsNoData(ErrIO) {
		t.Error("ErrIO is a failure")
	}
}
