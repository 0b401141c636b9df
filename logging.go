// logging.go - structured logging for the asyncio package.
//
// Built directly on github.com/joeycumines/logiface, using
// github.com/joeycumines/stumpy as the JSON event backend. The Loop logs
// through the Logger below (construction, recovered callback panics, and
// Close before Run has returned); Stream/Pipe/File and the background file
// worker pool do not log.
package asyncio

import (
	"io"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the structured logger used throughout this package. It's a type
// alias for the concrete logiface logger bound to stumpy's JSON event type,
// so callers may use every method logiface.Logger exposes (Debug, Info,
// Warning, Err, etc.) without this package re-exporting each one.
type Logger = *logiface.Logger[*stumpy.Event]

// NewLogger constructs a Logger that writes newline-delimited JSON to w, at
// or above level.
func NewLogger(w io.Writer, level logiface.Level) Logger {
	return logiface.New[*stumpy.Event](
		logiface.WithLevel[*stumpy.Event](level),
		stumpy.WithStumpy(stumpy.WithWriter(w)),
	)
}

// NoOpLogger returns a Logger with logging disabled, used as the Loop
// default when WithLogger is omitted.
func NoOpLogger() Logger {
	return logiface.New[*stumpy.Event](
		logiface.WithLevel[*stumpy.Event](logiface.LevelDisabled),
		stumpy.WithStumpy(),
	)
}
