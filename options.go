// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package asyncio

import "time"

// Clock abstracts time so timer deadlines (Timeout, Wait, WaitUntil) can be
// driven deterministically in tests.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) *time.Timer
}

type realClock struct{}

func (realClock) Now() time.Time                      { return time.Now() }
func (realClock) NewTimer(d time.Duration) *time.Timer { return time.NewTimer(d) }

// loopOptions holds configuration options for Loop creation.
type loopOptions struct {
	logger      Logger
	metrics     *Metrics
	fileWorkers int
	clock       Clock
}

// --- Loop Options ---

// LoopOption configures a Loop instance.
type LoopOption interface {
	applyLoop(*loopOptions) error
}

// loopOptionImpl implements LoopOption.
type loopOptionImpl struct {
	applyLoopFunc func(*loopOptions) error
}

func (l *loopOptionImpl) applyLoop(opts *loopOptions) error {
	return l.applyLoopFunc(opts)
}

// WithLogger attaches a Logger, used by the Loop for its own diagnostics.
// Stream/Pipe/File and the background file worker pool do not log.
func WithLogger(logger Logger) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		if logger != nil {
			opts.logger = logger
		}
		return nil
	}}
}

// WithMetrics attaches a Metrics collector. Without this option metrics
// recording calls are no-ops.
func WithMetrics(m *Metrics) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		opts.metrics = m
		return nil
	}}
}

// WithFileWorkers sets the size of the bounded background goroutine pool
// backing File's blocking read/write/close calls. n <= 0 is clamped to 1.
func WithFileWorkers(n int) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		if n <= 0 {
			n = 1
		}
		opts.fileWorkers = n
		return nil
	}}
}

// WithClock overrides the Loop's time source.
func WithClock(c Clock) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		if c != nil {
			opts.clock = c
		}
		return nil
	}}
}

// resolveLoopOptions applies LoopOption instances to loopOptions.
func resolveLoopOptions(opts []LoopOption) (*loopOptions, error) {
	cfg := &loopOptions{
		logger:      NoOpLogger(),
		fileWorkers: 4,
		clock:       realClock{},
	}
	for _, opt := range opts {
		if opt == nil {
			continue // Skip nil options gracefully
		}
		if err := opt.applyLoop(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
