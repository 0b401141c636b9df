package asyncio

import (
	"github.com/google/uuid"
)

// streamState is the lifecycle of a Stream's state machine.
type streamState int

const (
	streamClosed streamState = iota
	streamOpen
	streamClosing
	streamClosedFinal
)

func (s streamState) String() string {
	switch s {
	case streamClosed:
		return "closed"
	case streamOpen:
		return "open"
	case streamClosing:
		return "closing"
	case streamClosedFinal:
		return "closed_final"
	default:
		return "unknown"
	}
}

// Stream is the shared request-queueing state machine behind Pipe and
// File: every open/read/write/close request is appended to a FIFO queue
// and executed strictly in submission order, one at a time, regardless of
// how many requests a caller submits before the first completes.
//
// Stream itself is not generic - each concrete type (Pipe, File) enqueues
// its own closures and settles its own typed Future/Promise pair from
// inside them, since a Go method cannot introduce new type parameters.
type Stream struct {
	loop    *Loop
	logger  Logger
	name    string // metrics/log label, e.g. "pipe" or "file"
	id      uuid.UUID
	state   streamState
	queue   []streamItem
	running bool
}

// streamItem is one FIFO-queued request: run performs the work (and must
// call Stream.next exactly once when done); abort settles the request's
// Future/Promise immediately, used when the stream is force-closed with
// requests still queued. Open/Bind/Connect/Read/Write requests reject with
// a *StreamError; a queued Close resolves.
type streamItem struct {
	run   func()
	abort func()
}

// newStream constructs a Stream in the closed state, bound to loop.
func newStream(loop *Loop, name string) *Stream {
	return &Stream{
		loop:   loop,
		logger: loop.Logger(),
		name:   name,
		id:     uuid.New(),
		state:  streamClosed,
	}
}

// State returns the stream's current lifecycle state.
func (s *Stream) State() string { return s.state.String() }

// ID returns this stream's correlation id. The stream does not log, and
// its queue-depth metric is labelled by the stream's kind ("pipe" or
// "file"), not by this id.
func (s *Stream) ID() uuid.UUID { return s.id }

// enqueue appends an item to the FIFO queue and starts it immediately if
// nothing else is in flight. run is responsible for calling s.next() once
// its request has fully settled.
func (s *Stream) enqueue(run func(), abort func()) {
	s.queue = append(s.queue, streamItem{run: run, abort: abort})
	s.loop.metrics.setStreamQueueDepth(s.name, len(s.queue))
	s.pump()
}

func (s *Stream) pump() {
	if s.running || len(s.queue) == 0 {
		return
	}
	s.running = true
	item := s.queue[0]
	s.queue = s.queue[1:]
	s.loop.metrics.setStreamQueueDepth(s.name, len(s.queue))
	item.run()
}

// next marks the in-flight request as settled and starts the next queued
// request, if any. Must be called exactly once per enqueue'd item.
func (s *Stream) next() {
	s.running = false
	s.pump()
}

// abortQueued settles every still-queued (not yet started) request through
// its abort closure, used when a stream transitions to closed_final with
// requests pending.
func (s *Stream) abortQueued() {
	pending := s.queue
	s.queue = nil
	s.loop.metrics.setStreamQueueDepth(s.name, 0)
	for _, item := range pending {
		item.abort()
	}
}
