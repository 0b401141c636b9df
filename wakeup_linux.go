//go:build linux

package asyncio

import (
	"golang.org/x/sys/unix"
)

// createWakeFd creates an eventfd used to wake the Loop's poll syscall when
// the background file worker pool posts a completion from another
// goroutine. Returns the same fd for both read and write ends.
func createWakeFd() (readFd, writeFd int, err error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	return fd, fd, err
}

// closeWakeFd closes the wake eventfd.
func closeWakeFd(wakeFd, _ int) error {
	if wakeFd >= 0 {
		return unix.Close(wakeFd)
	}
	return nil
}

// writeWakeFd signals the eventfd, unblocking a pending PollIO.
func writeWakeFd(fd int) error {
	var buf [8]byte
	buf[7] = 1
	_, err := unix.Write(fd, buf[:])
	return err
}

// drainWakeFd consumes the eventfd's counter so it doesn't keep firing.
func drainWakeFd(fd int) {
	var buf [8]byte
	for {
		if _, err := unix.Read(fd, buf[:]); err != nil {
			return
		}
	}
}
