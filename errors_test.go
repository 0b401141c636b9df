package asyncio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_UnwrapChains(t *testing.T) {
	cause := errors.New("underlying")

	bp := &BrokenPromise{Cause: cause, Message: "dropped"}
	assert.ErrorIs(t, bp, cause)
	assert.Contains(t, bp.Error(), "dropped")

	is := &InvalidState{Cause: cause}
	assert.ErrorIs(t, is, cause)

	se := &StreamError{Cause: cause, Message: "closed"}
	assert.ErrorIs(t, se, cause)

	pe := &PipeError{Code: PipeErrorConnectInFlightOrFinished, Cause: cause}
	assert.ErrorIs(t, pe, cause)
	assert.Contains(t, pe.Error(), "1")
}

func TestIsEndOfStream(t *testing.T) {
	assert.True(t, IsEndOfStream(&EndOfStream{}))
	assert.True(t, IsEndOfStream(WrapError("read failed", &EndOfStream{})))
	assert.False(t, IsEndOfStream(errors.New("plain")))
	assert.False(t, IsEndOfStream(nil))
}

func TestWrapError(t *testing.T) {
	assert.EqualError(t, WrapError("boom", nil), "boom")

	cause := errors.New("disk full")
	wrapped := WrapError("write failed", cause)
	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, wrapped.Error(), "write failed")
}
