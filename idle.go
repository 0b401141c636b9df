package asyncio

// Idle is a handle that runs a callback repeatedly, once per loop tick,
// until stopped. It keeps the Loop alive (Run will not return) for as long
// as it is active.
type Idle struct {
	loop   *Loop
	cb     func()
	active bool
}

// NewIdle creates an Idle handle bound to loop. It is inactive until
// Start is called.
func NewIdle(loop *Loop) *Idle {
	return &Idle{loop: loop}
}

// Start activates the handle: cb runs once per tick until Stop is called.
// Calling Start on an already-active handle replaces its callback.
func (h *Idle) Start(cb func()) {
	if !h.active {
		h.active = true
		h.loop.retain()
		h.cb = cb
		h.schedule()
		return
	}
	h.cb = cb
}

func (h *Idle) schedule() {
	if !h.active {
		return
	}
	h.loop.scheduleNextTick(func() {
		if !h.active {
			return
		}
		cb := h.cb
		h.schedule()
		if cb != nil {
			cb()
		}
	})
}

// Stop deactivates the handle. Idempotent.
func (h *Idle) Stop() {
	if !h.active {
		return
	}
	h.active = false
	h.loop.release()
}

// Active reports whether the handle is currently running.
func (h *Idle) Active() bool { return h.active }
