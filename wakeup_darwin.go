//go:build darwin

package asyncio

import (
	"syscall"
)

// createWakeFd creates a self-pipe used to wake the Loop's poll syscall when
// the background file worker pool posts a completion from another
// goroutine. Darwin has no eventfd equivalent, so a non-blocking pipe fills
// the same role: the read end is registered with the kqueue poller, the
// write end is written to from any goroutine.
func createWakeFd() (readFd, writeFd int, err error) {
	var fds [2]int
	if err := syscall.Pipe(fds[:]); err != nil {
		return 0, 0, err
	}

	cleanup := func() {
		_ = syscall.Close(fds[0])
		_ = syscall.Close(fds[1])
	}

	syscall.CloseOnExec(fds[0])
	syscall.CloseOnExec(fds[1])

	if err := syscall.SetNonblock(fds[0], true); err != nil {
		cleanup()
		return 0, 0, err
	}
	if err := syscall.SetNonblock(fds[1], true); err != nil {
		cleanup()
		return 0, 0, err
	}

	return fds[0], fds[1], nil
}

// closeWakeFd closes both ends of the self-pipe.
func closeWakeFd(readFd, writeFd int) error {
	if readFd >= 0 {
		_ = syscall.Close(readFd)
	}
	if writeFd >= 0 && writeFd != readFd {
		_ = syscall.Close(writeFd)
	}
	return nil
}

// writeWakeFd writes a single byte to the pipe, unblocking a pending PollIO.
func writeWakeFd(fd int) error {
	_, err := syscall.Write(fd, []byte{1})
	return err
}

// drainWakeFd empties the pipe so it doesn't keep signalling readiness.
func drainWakeFd(fd int) {
	var buf [64]byte
	for {
		if _, err := syscall.Read(fd, buf[:]); err != nil {
			return
		}
	}
}
