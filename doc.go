// Package asyncio provides a single-threaded, cooperative I/O event loop
// with a synchronous-completion Promise/Future pair and a small set of
// libuv-flavoured I/O primitives (Stream, Pipe, File).
//
// # Architecture
//
// [Loop] is the core: it owns a timer min-heap, a next-tick callback queue,
// and a platform poller (epoll on Linux, kqueue on Darwin). A [Loop] is not
// shareable across goroutines - it must be constructed and driven by
// [Loop.Run] from a single goroutine for its entire lifetime. The one
// exception is a narrow completion handoff used by the background file
// worker pool (internal/fsworker) to post the results of blocking file I/O
// back onto the loop thread.
//
// [Promise] and [Future] model a deferred value. Unlike a microtask-queued
// Promise/A+ implementation, continuations attached with [Then],
// [ThenFuture], or [ThenDeferred] fire synchronously: at whichever of
// {attach, Resolve/Reject} happens second, inline, at that call site. This
// mirrors the semantics of the liblw event::promise this package's
// behavior is grounded on, rather than JavaScript's microtask-deferred
// Promise.
//
// [Idle] and [Timeout] are the loop's two handle types that schedule work
// without an associated file descriptor. [Stream] is the abstract
// request-queued state machine ([Pipe] and [File] are its two concrete
// implementations) backing asynchronous open/read/write/close.
//
// # Platform support
//
// I/O polling uses platform-native mechanisms:
//   - Linux: epoll
//   - Darwin: kqueue
//
// Other platforms are not supported: this package targets the subset of
// platforms a cooperative, non-blocking event loop matters for, and
// Windows/IOCP support was dropped rather than carried unexercised (see
// DESIGN.md).
//
// # Thread safety
//
// A Loop and everything built on it (Promise/Future, Idle, Timeout,
// Stream, Pipe, File) must only be touched from the goroutine running
// Loop.Run. The sole exception is internal/fsworker's completion handoff,
// which is safe to call from any goroutine.
package asyncio
