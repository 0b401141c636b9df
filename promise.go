package asyncio

import (
	"runtime"
	"sync"
)

// Result carries the outcome of a settled Future, used by ToChannel.
type Result[T any] struct {
	Value T
	Err   error
}

// promiseState is the shared box between a Promise[T] and its Future[T].
// All access is under mu, and every state transition happens with the lock
// held; the settlement callback (if any) is always invoked OUTSIDE the
// lock, once, synchronously at whichever of {Resolve/Reject, attach}
// happens second.
type promiseState[T any] struct {
	mu       sync.Mutex
	finished bool
	value    T
	err      error
	cont     func(T, error)
	hasCont  bool
	attached bool
}

// Promise is the writable half of a deferred value: exactly one of
// Resolve or Reject may be called, exactly once. Resolving or rejecting an
// already-finished Promise panics with *InvalidState, matching the
// "settle once" invariant used throughout this package.
type Promise[T any] struct {
	s *promiseState[T]
}

// Future is the readable half of a deferred value. A continuation attached
// with Then/ThenFuture/ThenDeferred (or Connect) fires synchronously: if
// the Future is already settled, it fires immediately, inline, at the call
// site; if not, it fires synchronously inside the Promise's Resolve/Reject
// call. Only one continuation may be attached per Future.
type Future[T any] struct {
	s *promiseState[T]
}

// NewPromise creates a linked Promise/Future pair. If the Promise is
// garbage collected while still pending, its Future is rejected with
// *BrokenPromise.
func NewPromise[T any]() (*Promise[T], *Future[T]) {
	s := &promiseState[T]{}
	p := &Promise[T]{s: s}
	f := &Future[T]{s: s}
	armFinalizer(p)
	return p, f
}

func armFinalizer[T any](p *Promise[T]) {
	runtime.SetFinalizer(p, func(p *Promise[T]) {
		p.s.mu.Lock()
		if p.s.finished {
			p.s.mu.Unlock()
			return
		}
		p.s.finished = true
		var zero T
		p.s.value = zero
		p.s.err = &BrokenPromise{Message: "promise garbage collected while pending"}
		cont, hasCont := p.s.cont, p.s.hasCont
		p.s.hasCont = false
		value, err := p.s.value, p.s.err
		p.s.mu.Unlock()
		if hasCont {
			cont(value, err)
		}
	})
}

// Resolved returns a Future that is already fulfilled with value.
func Resolved[T any](value T) *Future[T] {
	p, f := NewPromise[T]()
	p.Resolve(value)
	return f
}

// Rejected returns a Future that is already rejected with err.
func Rejected[T any](err error) *Future[T] {
	p, f := NewPromise[T]()
	p.Reject(err)
	return f
}

func (p *Promise[T]) settle(value T, err error) {
	p.s.mu.Lock()
	if p.s.finished {
		p.s.mu.Unlock()
		panic(&InvalidState{Message: "promise already resolved or rejected"})
	}
	p.s.finished = true
	p.s.value = value
	p.s.err = err
	cont, hasCont := p.s.cont, p.s.hasCont
	p.s.hasCont = false
	p.s.mu.Unlock()
	runtime.SetFinalizer(p, nil)
	if hasCont {
		cont(value, err)
	}
}

// Resolve fulfills the Promise's Future with value, synchronously invoking
// any already-attached continuation before returning.
func (p *Promise[T]) Resolve(value T) {
	p.settle(value, nil)
}

// Reject fails the Promise's Future with err, synchronously invoking any
// already-attached continuation before returning. A nil err is replaced
// with an *InvalidState.
func (p *Promise[T]) Reject(err error) {
	if err == nil {
		err = &InvalidState{Message: "Reject called with a nil error"}
	}
	var zero T
	p.settle(zero, err)
}

// IsFinished reports whether the Promise has already been resolved or
// rejected.
func (p *Promise[T]) IsFinished() bool {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	return p.s.finished
}

// Future returns the Future half of this Promise.
func (p *Promise[T]) Future() *Future[T] {
	return &Future[T]{s: p.s}
}

// Reset atomically replaces the Promise's shared state with a fresh
// pending one, provided the current state is settled and has no
// continuation currently attached. Returns false (leaving the Promise
// untouched) if it is still pending or has an attached continuation
// waiting to fire. Any Future already obtained from this Promise (via the
// original NewPromise call, or a prior Future()) keeps referencing the old
// state object, so it continues to observe its original settled
// value/error forever; only a Future obtained by calling Future() after
// Reset observes the new pending state.
func (p *Promise[T]) Reset() bool {
	p.s.mu.Lock()
	if !p.s.finished || p.s.hasCont {
		p.s.mu.Unlock()
		return false
	}
	p.s.mu.Unlock()
	p.s = &promiseState[T]{}
	armFinalizer(p)
	return true
}

// IsFinished reports whether the underlying Promise has already settled.
func (f *Future[T]) IsFinished() bool {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return f.s.finished
}

// attach registers cb as this Future's settlement callback. Only one
// attach is permitted; a second call panics with *InvalidState. If the
// Future is already settled, cb fires immediately, inline.
func (f *Future[T]) attach(cb func(T, error)) {
	f.s.mu.Lock()
	if f.s.attached {
		f.s.mu.Unlock()
		panic(&InvalidState{Message: "a continuation is already attached to this future"})
	}
	f.s.attached = true
	if f.s.finished {
		value, err := f.s.value, f.s.err
		f.s.mu.Unlock()
		cb(value, err)
		return
	}
	f.s.cont = cb
	f.s.hasCont = true
	f.s.mu.Unlock()
}

// ToChannel returns a channel that receives exactly one Result once the
// Future settles. The channel is buffered so the settling side never
// blocks on an unread channel.
func (f *Future[T]) ToChannel() <-chan Result[T] {
	ch := make(chan Result[T], 1)
	f.attach(func(v T, err error) {
		ch <- Result[T]{Value: v, Err: err}
	})
	return ch
}

func panicToError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return WrapError("asyncio: panic in continuation", nil)
}

// Then attaches onFulfilled/onRejected to f, returning a new Future that
// resolves with whichever handler's return value once f settles. Exactly
// one of onFulfilled/onRejected runs. Either may be nil: a nil onRejected
// re-rejects with the same error; a nil onFulfilled passes the value
// through when it is also a U, and otherwise rejects with *InvalidState.
func Then[T, U any](f *Future[T], onFulfilled func(T) U, onRejected func(error) U) *Future[U] {
	p, out := NewPromise[U]()
	f.attach(func(v T, err error) {
		defer func() {
			if r := recover(); r != nil {
				p.Reject(panicToError(r))
			}
		}()
		if err == nil {
			if onFulfilled == nil {
				if u, ok := any(v).(U); ok {
					p.Resolve(u)
					return
				}
				p.Reject(&InvalidState{Message: "Then: onFulfilled is nil and T != U"})
				return
			}
			p.Resolve(onFulfilled(v))
			return
		}
		if onRejected == nil {
			p.Reject(err)
			return
		}
		p.Resolve(onRejected(err))
	})
	return out
}

// ThenFuture is Then's flattening form: the handler returns a *Future[U]
// instead of a bare U, and the returned Future forwards that inner
// Future's eventual settlement rather than wrapping it a second time.
func ThenFuture[T, U any](f *Future[T], onFulfilled func(T) *Future[U], onRejected func(error) *Future[U]) *Future[U] {
	p, out := NewPromise[U]()
	f.attach(func(v T, err error) {
		defer func() {
			if r := recover(); r != nil {
				p.Reject(panicToError(r))
			}
		}()
		var inner *Future[U]
		if err == nil {
			if onFulfilled == nil {
				if u, ok := any(v).(U); ok {
					p.Resolve(u)
					return
				}
				p.Reject(&InvalidState{Message: "ThenFuture: onFulfilled is nil and T != U"})
				return
			}
			inner = onFulfilled(v)
		} else {
			if onRejected == nil {
				p.Reject(err)
				return
			}
			inner = onRejected(err)
		}
		Connect(inner, p)
	})
	return out
}

// ThenDeferred is Then's "deferred continuation" form: instead of
// returning a value, the handler additionally receives a fresh
// *Promise[U] to resolve or reject whenever it likes, including after the
// handler itself has returned. The outer Future forwards whatever that
// Promise eventually does.
func ThenDeferred[T, U any](f *Future[T], onFulfilled func(T, *Promise[U]), onRejected func(error, *Promise[U])) *Future[U] {
	p, out := NewPromise[U]()
	f.attach(func(v T, err error) {
		defer func() {
			if r := recover(); r != nil && !p.IsFinished() {
				p.Reject(panicToError(r))
			}
		}()
		if err == nil {
			if onFulfilled == nil {
				if u, ok := any(v).(U); ok {
					p.Resolve(u)
					return
				}
				p.Reject(&InvalidState{Message: "ThenDeferred: onFulfilled is nil and T != U"})
				return
			}
			onFulfilled(v, p)
		} else {
			if onRejected == nil {
				p.Reject(err)
				return
			}
			onRejected(err, p)
		}
	})
	return out
}

// Connect forwards f's eventual settlement into p: whenever f resolves or
// rejects, p is resolved or rejected with the same value/error,
// synchronously, exactly like any other attached continuation. Connect is
// the building block behind the "then(promise)" forwarding form.
func Connect[T any](f *Future[T], p *Promise[T]) {
	f.attach(func(v T, err error) {
		if err != nil {
			p.Reject(err)
			return
		}
		p.Resolve(v)
	})
}
