//go:build linux || darwin

package asyncio

import (
	"golang.org/x/sys/unix"
)

// closeFD closes a Pipe's adopted file descriptor.
func closeFD(fd int) error {
	return unix.Close(fd)
}

// readFD performs one non-blocking read attempt against a Pipe's adopted
// file descriptor, returning unix.EAGAIN unchanged so callers can re-arm
// the poller rather than treat it as a failure.
func readFD(fd int, buf []byte) (int, error) {
	return unix.Read(fd, buf)
}

// writeFD writes to a Pipe's adopted file descriptor.
func writeFD(fd int, buf []byte) (int, error) {
	return unix.Write(fd, buf)
}
