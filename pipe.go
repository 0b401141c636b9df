//go:build linux || darwin

package asyncio

import (
	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

// Well-known Pipe file descriptors, matching liblw's Pipes enum.
const (
	StdinFD  = 0
	StdoutFD = 1
	StderrFD = 2
)

// Pipe is a Unix-domain-socket-backed Stream: it can adopt a well-known fd
// (StdinFD et al.) via Open, listen for one inbound connection via Bind,
// or dial out via Connect. Connect may be attempted at most once per Pipe,
// successful or not - a second call always fails with *PipeError, even if
// the first attempt already finished.
type Pipe struct {
	stream *Stream
	fd     int

	connectPromise *Promise[struct{}]
}

// NewPipe constructs an unopened Pipe bound to loop.
func NewPipe(loop *Loop) *Pipe {
	return &Pipe{stream: newStream(loop, "pipe"), fd: -1}
}

// ID returns this Pipe's correlation id.
func (p *Pipe) ID() uuid.UUID { return p.stream.ID() }

// Open adopts an already-open file descriptor (e.g. StdinFD) as this
// Pipe's endpoint, without performing any connect/bind handshake.
func (p *Pipe) Open(fd int) *Future[struct{}] {
	promise, future := NewPromise[struct{}]()
	p.stream.enqueue(func() {
		if p.stream.state != streamClosed {
			promise.Reject(&InvalidState{Message: "Open called on a non-closed pipe"})
			p.stream.next()
			return
		}
		p.fd = fd
		p.stream.state = streamOpen
		p.stream.loop.retain()
		promise.Resolve(struct{}{})
		p.stream.next()
	}, func() {
		promise.Reject(&StreamError{Message: "pipe closed before open request ran"})
	})
	return future
}

// Bind creates a listening Unix-domain socket at name, accepts exactly one
// inbound connection, and adopts it as this Pipe's endpoint.
func (p *Pipe) Bind(name string) *Future[struct{}] {
	promise, future := NewPromise[struct{}]()
	p.stream.enqueue(func() {
		if p.stream.state != streamClosed {
			promise.Reject(&InvalidState{Message: "Bind called on a non-closed pipe"})
			p.stream.next()
			return
		}
		lfd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM, 0)
		if err != nil {
			promise.Reject(WrapError("asyncio: pipe bind socket failed", err))
			p.stream.next()
			return
		}
		addr := &unix.SockaddrUnix{Name: name}
		if err := unix.Bind(lfd, addr); err != nil {
			_ = unix.Close(lfd)
			promise.Reject(WrapError("asyncio: pipe bind failed", err))
			p.stream.next()
			return
		}
		if err := unix.Listen(lfd, 1); err != nil {
			_ = unix.Close(lfd)
			promise.Reject(WrapError("asyncio: pipe listen failed", err))
			p.stream.next()
			return
		}
		_ = unix.SetNonblock(lfd, true)

		acceptOnce := func(IOEvents) {
			p.stream.loop.release()
			cfd, _, err := unix.Accept(lfd)
			_ = p.stream.loop.UnregisterFD(lfd)
			_ = unix.Close(lfd)
			if err != nil {
				promise.Reject(WrapError("asyncio: pipe accept failed", err))
				p.stream.next()
				return
			}
			_ = unix.SetNonblock(cfd, true)
			p.fd = cfd
			p.stream.state = streamOpen
			p.stream.loop.retain()
			promise.Resolve(struct{}{})
			p.stream.next()
		}
		if err := p.stream.loop.RegisterFD(lfd, EventRead, acceptOnce); err != nil {
			_ = unix.Close(lfd)
			promise.Reject(WrapError("asyncio: pipe accept registration failed", err))
			p.stream.next()
			return
		}
		// The pending accept keeps Run alive until acceptOnce fires.
		p.stream.loop.retain()
	}, func() {
		promise.Reject(&StreamError{Message: "pipe closed before bind request ran"})
	})
	return future
}

// Connect dials the Unix-domain socket at name and adopts the resulting
// connection as this Pipe's endpoint. A second call, regardless of whether
// the first has already finished, always fails immediately with a
// *PipeError carrying PipeErrorConnectInFlightOrFinished.
func (p *Pipe) Connect(name string) *Future[struct{}] {
	if p.connectPromise != nil {
		return Rejected[struct{}](&PipeError{
			Code:    PipeErrorConnectInFlightOrFinished,
			Message: "Connect called more than once on this pipe",
		})
	}
	promise, future := NewPromise[struct{}]()
	p.connectPromise = promise

	p.stream.enqueue(func() {
		fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM, 0)
		if err != nil {
			promise.Reject(WrapError("asyncio: pipe connect socket failed", err))
			p.stream.next()
			return
		}
		_ = unix.SetNonblock(fd, true)
		addr := &unix.SockaddrUnix{Name: name}
		err = unix.Connect(fd, addr)
		if err != nil && err != unix.EINPROGRESS {
			_ = unix.Close(fd)
			promise.Reject(WrapError("asyncio: pipe connect failed", err))
			p.stream.next()
			return
		}

		finish := func(IOEvents) {
			_ = p.stream.loop.UnregisterFD(fd)
			errno, gerr := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
			if gerr != nil || errno != 0 {
				_ = unix.Close(fd)
				promise.Reject(WrapError("asyncio: pipe connect failed", unix.Errno(errno)))
				p.stream.next()
				return
			}
			p.fd = fd
			p.stream.state = streamOpen
			p.stream.loop.retain()
			promise.Resolve(struct{}{})
			p.stream.next()
		}
		if err == nil {
			finish(EventWrite)
			return
		}
		if rerr := p.stream.loop.RegisterFD(fd, EventWrite, finish); rerr != nil {
			_ = unix.Close(fd)
			promise.Reject(WrapError("asyncio: pipe connect registration failed", rerr))
			p.stream.next()
		}
	}, func() {
		promise.Reject(&StreamError{Message: "pipe closed before connect request ran"})
	})
	return future
}

// Read reads up to len(buf.Bytes()) bytes from the Pipe.
func (p *Pipe) Read(buf *Buffer) *Future[int] {
	promise, future := NewPromise[int]()
	p.stream.enqueue(func() {
		if p.stream.state != streamOpen {
			promise.Reject(&StreamError{Message: "Read called on a pipe that is not open"})
			p.stream.next()
			return
		}
		attempt := func(IOEvents) {
			n, err := readFD(p.fd, buf.Bytes())
			if err == unix.EAGAIN {
				return // spurious wakeup, stay registered
			}
			_ = p.stream.loop.ModifyFD(p.fd, 0)
			if err != nil {
				promise.Reject(WrapError("asyncio: pipe read failed", err))
			} else if n == 0 {
				promise.Reject(&EndOfStream{})
			} else {
				promise.Resolve(n)
			}
			p.stream.next()
		}
		if err := p.stream.loop.RegisterFD(p.fd, EventRead, attempt); err != nil {
			promise.Reject(WrapError("asyncio: pipe read registration failed", err))
			p.stream.next()
		}
	}, func() {
		promise.Reject(&StreamError{Message: "pipe closed before read request ran"})
	})
	return future
}

// Write writes buf's bytes to the Pipe.
func (p *Pipe) Write(buf *Buffer) *Future[int] {
	promise, future := NewPromise[int]()
	p.stream.enqueue(func() {
		if p.stream.state != streamOpen {
			promise.Reject(&StreamError{Message: "Write called on a pipe that is not open"})
			p.stream.next()
			return
		}
		n, err := writeFD(p.fd, buf.Bytes())
		if err != nil {
			promise.Reject(WrapError("asyncio: pipe write failed", err))
		} else {
			promise.Resolve(n)
		}
		p.stream.next()
	}, func() {
		promise.Reject(&StreamError{Message: "pipe closed before write request ran"})
	})
	return future
}

// Close transitions the Pipe through closing to closed_final, rejecting
// any requests still queued behind it with *StreamError (a queued Close
// resolves instead).
func (p *Pipe) Close() *Future[struct{}] {
	promise, future := NewPromise[struct{}]()
	p.stream.enqueue(func() {
		if p.stream.state == streamClosedFinal {
			promise.Resolve(struct{}{})
			p.stream.next()
			return
		}
		wasOpen := p.stream.state == streamOpen
		p.stream.state = streamClosing
		if p.fd >= 0 {
			_ = p.stream.loop.UnregisterFD(p.fd)
			_ = closeFD(p.fd)
			p.fd = -1
		}
		p.stream.state = streamClosedFinal
		if wasOpen {
			p.stream.loop.release()
		}
		p.stream.abortQueued()
		promise.Resolve(struct{}{})
		p.stream.next()
	}, func() {
		promise.Resolve(struct{}{})
	})
	return future
}

// State returns the Pipe's current lifecycle state ("closed", "open",
// "closing", or "closed_final").
func (p *Pipe) State() string { return p.stream.State() }
