package asyncio

import (
	"errors"
	"io"
	"os"
)

// File is a Stream backed by blocking OS file I/O, executed on the
// background file worker pool (internal/fsworker) rather than the
// poller, since regular files don't participate meaningfully in
// epoll/kqueue readiness the way sockets and pipes do. File tracks its own
// read/write offset, advancing it by each request's byte count, the same
// round-trip behavior as liblw's fs::File.
type File struct {
	stream *Stream
	f      *os.File
	offset int64
}

// NewFile constructs an unopened File bound to loop.
func NewFile(loop *Loop) *File {
	return &File{stream: newStream(loop, "file")}
}

// State returns the File's current lifecycle state.
func (f *File) State() string { return f.stream.State() }

// Open opens path with the given flags/perm on the background worker pool.
func (f *File) Open(path string, flags int, perm os.FileMode) *Future[struct{}] {
	promise, future := NewPromise[struct{}]()
	f.stream.enqueue(func() {
		if f.stream.state != streamClosed {
			promise.Reject(&InvalidState{Message: "Open called on a non-closed file"})
			f.stream.next()
			return
		}
		f.stream.loop.submitFileJob(func() (any, error) {
			return os.OpenFile(path, flags, perm)
		}, func(v any, err error) {
			if err != nil {
				promise.Reject(WrapError("asyncio: file open failed", err))
				f.stream.next()
				return
			}
			f.f = v.(*os.File)
			f.offset = 0
			f.stream.state = streamOpen
			f.stream.loop.retain()
			promise.Resolve(struct{}{})
			f.stream.next()
		})
	}, func() {
		promise.Reject(&StreamError{Message: "file closed before open request ran"})
	})
	return future
}

// Seek repositions the File's read/write offset for the next Read/Write
// request. It takes effect immediately; it does not queue behind pending
// requests, since it performs no I/O of its own.
func (f *File) Seek(offset int64) {
	f.offset = offset
}

// Read reads up to len(buf.Bytes()) bytes starting at the File's current
// offset, advancing the offset by the number of bytes read.
func (f *File) Read(buf *Buffer) *Future[int] {
	promise, future := NewPromise[int]()
	f.stream.enqueue(func() {
		if f.stream.state != streamOpen {
			promise.Reject(&StreamError{Message: "Read called on a file that is not open"})
			f.stream.next()
			return
		}
		offset := f.offset
		f.stream.loop.submitFileJob(func() (any, error) {
			return f.f.ReadAt(buf.Bytes(), offset)
		}, func(v any, err error) {
			n, _ := v.(int)
			if n > 0 {
				f.offset += int64(n)
			}
			switch {
			case errors.Is(err, io.EOF) && n == 0:
				promise.Reject(&EndOfStream{Cause: err})
			case err != nil && n == 0:
				promise.Reject(WrapError("asyncio: file read failed", err))
			case err != nil:
				promise.Resolve(n)
			default:
				promise.Resolve(n)
			}
			f.stream.next()
		})
	}, func() {
		promise.Reject(&StreamError{Message: "file closed before read request ran"})
	})
	return future
}

// Write writes buf's bytes starting at the File's current offset,
// advancing the offset by the number of bytes written.
func (f *File) Write(buf *Buffer) *Future[int] {
	promise, future := NewPromise[int]()
	f.stream.enqueue(func() {
		if f.stream.state != streamOpen {
			promise.Reject(&StreamError{Message: "Write called on a file that is not open"})
			f.stream.next()
			return
		}
		offset := f.offset
		f.stream.loop.submitFileJob(func() (any, error) {
			return f.f.WriteAt(buf.Bytes(), offset)
		}, func(v any, err error) {
			n, _ := v.(int)
			if n > 0 {
				f.offset += int64(n)
			}
			if err != nil {
				promise.Reject(WrapError("asyncio: file write failed", err))
			} else {
				promise.Resolve(n)
			}
			f.stream.next()
		})
	}, func() {
		promise.Reject(&StreamError{Message: "file closed before write request ran"})
	})
	return future
}

// Close closes the underlying file, transitioning the File through closing
// to closed_final, rejecting any requests still queued behind it with
// *StreamError (a queued Close resolves instead).
func (f *File) Close() *Future[struct{}] {
	promise, future := NewPromise[struct{}]()
	f.stream.enqueue(func() {
		if f.stream.state == streamClosedFinal {
			promise.Resolve(struct{}{})
			f.stream.next()
			return
		}
		wasOpen := f.stream.state == streamOpen
		f.stream.state = streamClosing
		handle := f.f
		f.stream.loop.submitFileJob(func() (any, error) {
			if handle == nil {
				return nil, nil
			}
			return nil, handle.Close()
		}, func(_ any, err error) {
			f.f = nil
			f.stream.state = streamClosedFinal
			if wasOpen {
				f.stream.loop.release()
			}
			f.stream.abortQueued()
			if err != nil {
				promise.Reject(WrapError("asyncio: file close failed", err))
			} else {
				promise.Resolve(struct{}{})
			}
			f.stream.next()
		})
	}, func() {
		promise.Resolve(struct{}{})
	})
	return future
}
