package asyncio

import (
	"container/heap"
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/joeycumines/go-asyncio/internal/fsworker"
)

// Standard loop errors.
var (
	// ErrLoopAlreadyRunning is returned when Run is called on a loop that is already running.
	ErrLoopAlreadyRunning = errors.New("asyncio: loop is already running")
	// ErrLoopTerminated is returned when an operation is attempted on a loop that has shut down.
	ErrLoopTerminated = errors.New("asyncio: loop is terminated")
	// ErrReentrantRun is returned when Run is called from within a callback
	// running on the same loop.
	ErrReentrantRun = errors.New("asyncio: Run called reentrantly on the same loop")
)

// timer is an entry in the Loop's timer min-heap, backing Timeout (one-shot
// and repeating) and the Wait/WaitUntil helpers.
type timer struct {
	when    time.Time
	seq     uint64 // tie-breaker, preserves scheduling order for equal deadlines
	task    func()
	index   int // heap index, maintained by container/heap
	canceled bool
}

type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].when.Equal(h[j].when) {
		return h[i].seq < h[j].seq
	}
	return h[i].when.Before(h[j].when)
}
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *timerHeap) Push(x any) {
	t := x.(*timer)
	t.index = len(*h)
	*h = append(*h, t)
}
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// TimerHandle references a scheduled timer, returned by Loop.ScheduleTimer,
// letting the caller cancel it before it fires.
type TimerHandle struct {
	t *timer
}

// Loop is a single-threaded, cooperative event loop. A Loop instance is not
// safe to share across goroutines: Run, Submit-adjacent scheduling calls,
// RegisterFD/UnregisterFD/ModifyFD, and every Stream/Pipe/File built on top
// of it must only be used from the goroutine that calls Run. The single
// exception is the narrow completion channel used by the background file
// worker pool (internal/fsworker) to hand blocking I/O results back to the
// loop thread.
type Loop struct {
	state  *FastState
	poller FastPoller
	clock  Clock
	logger Logger
	metrics *Metrics

	timers timerHeap
	seq    uint64

	// nextTick holds callbacks due to run on the next tick - the queue
	// behind Idle handles and the Resolve/Reject helpers, which never fire
	// synchronously at their call site.
	nextTick []func()

	wakeReadFd  int
	wakeWriteFd int

	// completions is the one piece of state touched from goroutines other
	// than the loop goroutine: internal/fsworker posts finished file jobs
	// here, then writes to the wake fd so a blocked PollIO returns.
	completionsMu sync.Mutex
	completions   []func()

	loopGoroutineID int64
	running         bool

	activeHandles int // count of Idle/Timeout/Stream handles keeping Run alive

	fileWorkers *fsworker.Pool
}

// NewLoop constructs a Loop. The returned Loop must be driven by calling Run
// from a single goroutine for its entire lifetime.
func NewLoop(opts ...LoopOption) (*Loop, error) {
	cfg, err := resolveLoopOptions(opts)
	if err != nil {
		return nil, err
	}

	l := &Loop{
		state:   NewFastState(),
		clock:   cfg.clock,
		logger:  cfg.logger,
		metrics: cfg.metrics,
	}

	if err := l.poller.Init(); err != nil {
		return nil, WrapError("asyncio: poller init failed", err)
	}

	readFd, writeFd, err := createWakeFd()
	if err != nil {
		_ = l.poller.Close()
		return nil, WrapError("asyncio: wake fd init failed", err)
	}
	l.wakeReadFd = readFd
	l.wakeWriteFd = writeFd

	if err := l.poller.RegisterFD(readFd, EventRead, func(IOEvents) {
		drainWakeFd(l.wakeReadFd)
		l.drainCompletions()
	}); err != nil {
		_ = closeWakeFd(readFd, writeFd)
		_ = l.poller.Close()
		return nil, WrapError("asyncio: wake fd register failed", err)
	}

	l.fileWorkers = fsworker.New(cfg.fileWorkers, l.postCompletion, fsworker.Hooks{
		Before: l.metrics.incFileWorkersBusy,
		After:  l.metrics.decFileWorkersBusy,
	})

	l.logger.Debug().Log("loop constructed")
	return l, nil
}

// submitFileJob hands run to the background file worker pool, and calls
// done (on the loop goroutine) with its result once it completes. The job
// keeps Run alive until done has been called.
func (l *Loop) submitFileJob(run func() (any, error), done func(any, error)) {
	l.retain()
	l.fileWorkers.Submit(fsworker.Job{Run: run, Done: func(v any, err error) {
		l.release()
		done(v, err)
	}})
}

// Clock returns the loop's time source (real time unless overridden with
// WithClock).
func (l *Loop) Clock() Clock { return l.clock }

// Logger returns the loop's configured Logger.
func (l *Loop) Logger() Logger { return l.logger }

// Metrics returns the loop's configured Metrics, which may be nil.
func (l *Loop) Metrics() *Metrics { return l.metrics }

// CurrentTime returns the current time per the loop's Clock.
func (l *Loop) CurrentTime() time.Time { return l.clock.Now() }

// scheduleNextTick queues fn to run on the next tick of the loop, never
// synchronously at the call site. This backs Resolve/Reject and Idle's
// per-tick callback dispatch.
func (l *Loop) scheduleNextTick(fn func()) {
	l.nextTick = append(l.nextTick, fn)
}

// ScheduleTimer schedules task to run once, no earlier than d from now.
// Returns a handle that can be passed to CancelTimer.
func (l *Loop) ScheduleTimer(d time.Duration, task func()) *TimerHandle {
	l.seq++
	t := &timer{
		when: l.clock.Now().Add(d),
		seq:  l.seq,
		task: task,
	}
	heap.Push(&l.timers, t)
	l.metrics.setTimerHeapDepth(l.timers.Len())
	return &TimerHandle{t: t}
}

// CancelTimer cancels a previously scheduled timer. Canceling an already
// fired or already canceled timer is a no-op.
func (l *Loop) CancelTimer(h *TimerHandle) {
	if h == nil || h.t == nil || h.t.canceled {
		return
	}
	h.t.canceled = true
	if h.t.index >= 0 && h.t.index < len(l.timers) {
		heap.Remove(&l.timers, h.t.index)
		l.metrics.setTimerHeapDepth(l.timers.Len())
	}
}

// RegisterFD registers fd for I/O readiness notification. cb is invoked
// from the loop goroutine whenever one of the requested events fires.
func (l *Loop) RegisterFD(fd int, events IOEvents, cb IOCallback) error {
	return l.poller.RegisterFD(fd, events, cb)
}

// UnregisterFD stops monitoring fd. Must be called before fd is closed, to
// avoid stale event delivery after FD recycling.
func (l *Loop) UnregisterFD(fd int) error {
	return l.poller.UnregisterFD(fd)
}

// ModifyFD updates the set of events monitored for fd.
func (l *Loop) ModifyFD(fd int, events IOEvents) error {
	return l.poller.ModifyFD(fd, events)
}

// retain marks a handle (Idle, Timeout, Stream, Pipe, File) as keeping the
// loop alive; Run blocks until every retained handle has called release.
func (l *Loop) retain() { l.activeHandles++ }

// release undoes a prior retain.
func (l *Loop) release() {
	if l.activeHandles > 0 {
		l.activeHandles--
	}
}

// postCompletion is called from any goroutine (the file worker pool) to
// hand a finished job back to the loop thread, waking it if it is blocked
// in PollIO.
func (l *Loop) postCompletion(fn func()) {
	l.completionsMu.Lock()
	l.completions = append(l.completions, fn)
	l.completionsMu.Unlock()
	_ = writeWakeFd(l.wakeWriteFd)
}

func (l *Loop) drainCompletions() {
	l.completionsMu.Lock()
	pending := l.completions
	l.completions = nil
	l.completionsMu.Unlock()
	for _, fn := range pending {
		l.safeExecute(fn)
	}
}

// safeExecute runs fn, recovering and logging any panic rather than
// crashing the whole loop.
func (l *Loop) safeExecute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Err().Interface("panic", r).Log("recovered panic in loop callback")
		}
	}()
	fn()
}

// Run drives the loop until every retained handle (Idle, Timeout, open
// Stream/Pipe/File) has finished, or ctx is canceled. Run must only be
// called once per Loop and must not be called reentrantly from a callback
// already running on this loop.
func (l *Loop) Run(ctx context.Context) error {
	if l.running {
		return ErrReentrantRun
	}
	if !l.state.TryTransition(StateCreated, StateRunning) {
		if l.state.IsTerminal() {
			return ErrLoopTerminated
		}
		return ErrLoopAlreadyRunning
	}
	l.running = true
	l.loopGoroutineID = goroutineID()
	defer func() {
		l.running = false
		l.state.Store(StateTerminated)
	}()

	// Wake a blocked PollIO when ctx is canceled, so the check below sees it.
	if done := ctx.Done(); done != nil {
		stop := make(chan struct{})
		exited := make(chan struct{})
		go func() {
			defer close(exited)
			select {
			case <-done:
				_ = writeWakeFd(l.wakeWriteFd)
			case <-stop:
			}
		}()
		defer func() {
			close(stop)
			<-exited
		}()
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if l.activeHandles == 0 && len(l.nextTick) == 0 && l.timers.Len() == 0 {
			return nil
		}

		tickStart := l.clock.Now()
		l.runNextTick()
		l.runTimers()
		if err := l.poll(ctx); err != nil {
			return err
		}
		l.metrics.observeTick(l.clock.Now().Sub(tickStart))
	}
}

// runNextTick runs the callbacks queued before this tick began; callbacks
// they queue in turn run on the following tick.
func (l *Loop) runNextTick() {
	batch := l.nextTick
	l.nextTick = nil
	for _, fn := range batch {
		l.safeExecute(fn)
	}
}

func (l *Loop) runTimers() {
	now := l.clock.Now()
	for l.timers.Len() > 0 {
		next := l.timers[0]
		if next.canceled {
			heap.Pop(&l.timers)
			continue
		}
		if next.when.After(now) {
			break
		}
		heap.Pop(&l.timers)
		l.metrics.setTimerHeapDepth(l.timers.Len())
		l.safeExecute(next.task)
	}
}

// poll blocks in the platform poller until an FD is ready or the next timer
// deadline elapses, whichever comes first. A zero timeout is used whenever
// next-tick work is already queued, so it never blocks with pending work.
func (l *Loop) poll(ctx context.Context) error {
	timeoutMs := l.calculateTimeout()
	_, err := l.poller.PollIO(timeoutMs)
	if err != nil {
		return WrapError("asyncio: poll failed", err)
	}
	return nil
}

func (l *Loop) calculateTimeout() int {
	if len(l.nextTick) > 0 {
		return 0
	}
	if l.timers.Len() == 0 {
		if l.activeHandles == 0 {
			return 0
		}
		return -1
	}
	d := l.timers[0].when.Sub(l.clock.Now())
	if d <= 0 {
		return 0
	}
	ms := d.Milliseconds()
	if ms <= 0 {
		return 1
	}
	return int(ms)
}

// Shutdown requests the loop stop on its next iteration, without waiting
// for retained handles to finish naturally. It is safe to call from within
// a callback running on the loop.
func (l *Loop) Shutdown() {
	l.state.TransitionAny([]LoopState{StateRunning}, StateTerminating)
	l.activeHandles = 0
	l.timers = l.timers[:0]
}

// Close releases the loop's OS resources (the poller and wake fd). Call
// after Run has returned.
func (l *Loop) Close() error {
	if !l.state.IsTerminal() {
		l.logger.Warning().Log("Close called before Run returned")
	}
	_ = l.poller.UnregisterFD(l.wakeReadFd)
	err1 := closeWakeFd(l.wakeReadFd, l.wakeWriteFd)
	err2 := l.poller.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// isLoopThread reports whether the calling goroutine is the one driving
// Run (or true when Run is not running). No code in this package calls it.
func (l *Loop) isLoopThread() bool {
	return !l.running || goroutineID() == l.loopGoroutineID
}

func goroutineID() int64 {
	// Best-effort identity for the thread-affinity check above, parsed from
	// the "goroutine N" header that runtime.Stack writes for the calling
	// goroutine.
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parseGoroutineID(buf[:n])
}

func parseGoroutineID(b []byte) int64 {
	// b looks like "goroutine 123 [running]:..."
	const prefix = "goroutine "
	if len(b) < len(prefix) {
		return -1
	}
	b = b[len(prefix):]
	var id int64
	for _, c := range b {
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + int64(c-'0')
	}
	return id
}
