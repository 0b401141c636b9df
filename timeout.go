package asyncio

import "time"

// Timeout is a handle scheduling a one-shot or repeating deferred
// callback via the Loop's timer heap. It keeps the Loop alive for as long
// as it has a pending timer.
type Timeout struct {
	loop    *Loop
	handle  *TimerHandle
	active  bool
	repeat  time.Duration
	cb      func()
}

// NewTimeout creates a Timeout handle bound to loop. It is inactive until
// Start or Repeat is called.
func NewTimeout(loop *Loop) *Timeout {
	return &Timeout{loop: loop}
}

// Start schedules a one-shot callback to run after d elapses, returning a
// Future that resolves (with an empty struct) once it fires. If Stop is
// called first, the Future stays pending until the garbage collector
// reclaims its Promise, which then rejects it with *BrokenPromise.
func (h *Timeout) Start(d time.Duration) *Future[struct{}] {
	p, f := NewPromise[struct{}]()
	h.beginRetain()
	h.handle = h.loop.ScheduleTimer(d, func() {
		h.endRetain()
		p.Resolve(struct{}{})
	})
	return f
}

// Repeat schedules cb to run every interval until Stop is called.
func (h *Timeout) Repeat(interval time.Duration, cb func()) {
	h.repeat = interval
	h.cb = cb
	h.beginRetain()
	h.scheduleRepeat()
}

func (h *Timeout) scheduleRepeat() {
	h.handle = h.loop.ScheduleTimer(h.repeat, func() {
		if !h.active {
			return
		}
		cb := h.cb
		h.scheduleRepeat()
		if cb != nil {
			cb()
		}
	})
}

func (h *Timeout) beginRetain() {
	if !h.active {
		h.active = true
		h.loop.retain()
	}
}

func (h *Timeout) endRetain() {
	if h.active {
		h.active = false
		h.loop.release()
	}
}

// Stop cancels the pending or repeating timer. Idempotent.
func (h *Timeout) Stop() {
	if h.handle != nil {
		h.loop.CancelTimer(h.handle)
		h.handle = nil
	}
	h.endRetain()
}

// Active reports whether the handle currently has a pending timer.
func (h *Timeout) Active() bool { return h.active }
