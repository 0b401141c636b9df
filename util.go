package asyncio

import "time"

// Resolve returns a Future that resolves with value on the Loop's next
// tick - never synchronously at the call site, matching liblw's
// event::resolve.
func Resolve[T any](loop *Loop, value T) *Future[T] {
	p, f := NewPromise[T]()
	loop.retain()
	loop.scheduleNextTick(func() {
		loop.release()
		p.Resolve(value)
	})
	return f
}

// Reject returns a Future that rejects with err on the Loop's next tick -
// never synchronously at the call site, matching liblw's event::reject.
func Reject[T any](loop *Loop, err error) *Future[T] {
	p, f := NewPromise[T]()
	loop.retain()
	loop.scheduleNextTick(func() {
		loop.release()
		p.Reject(err)
	})
	return f
}

// Wait returns a Future that resolves once d has elapsed, measured from a
// clock sample taken when Wait is called (not when the Loop gets around to
// scheduling the underlying timer).
func Wait(loop *Loop, d time.Duration) *Future[struct{}] {
	return NewTimeout(loop).Start(d)
}

// WaitUntil returns a Future that resolves once loop.CurrentTime() reaches
// deadline. If deadline has already passed, it resolves on the next tick.
func WaitUntil(loop *Loop, deadline time.Time) *Future[struct{}] {
	d := deadline.Sub(loop.CurrentTime())
	if d < 0 {
		d = 0
	}
	return Wait(loop, d)
}
