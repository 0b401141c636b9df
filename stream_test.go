package asyncio

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream_ForceCloseAbortsQueuedRequests(t *testing.T) {
	loop, err := NewLoop()
	require.NoError(t, err)
	defer loop.Close()

	path := filepath.Join(t.TempDir(), "abort.txt")
	f := NewFile(loop)

	opened := f.Open(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o600)
	opened.attach(func(struct{}, error) {})

	// Queue a write and a close back to back: the write hasn't settled yet
	// (it's off on the file worker pool), so a second close queued behind it
	// lands in the queue rather than running immediately.
	write := f.Write(NewBuffer([]byte("queued")))
	close1 := f.Close()
	close2 := f.Close() // queued behind close1, should resolve once close1 finalizes

	var writeErr, close1Err, close2Err error
	write.attach(func(_ int, err error) { writeErr = err })
	close1.attach(func(_ struct{}, err error) { close1Err = err })
	close2.attach(func(_ struct{}, err error) { close2Err = err })

	require.NoError(t, loop.Run(context.Background()))

	assert.NoError(t, writeErr)
	assert.NoError(t, close1Err)
	assert.NoError(t, close2Err)
	assert.Equal(t, "closed_final", f.State())
}

func TestStream_IDIsStable(t *testing.T) {
	loop, err := NewLoop()
	require.NoError(t, err)
	defer loop.Close()

	f := NewFile(loop)
	id1 := f.stream.ID()
	id2 := f.stream.ID()
	assert.Equal(t, id1, id2)
	assert.NotEqual(t, id1.String(), "")
}

func TestStream_OperationOnClosedRejects(t *testing.T) {
	loop, err := NewLoop()
	require.NoError(t, err)
	defer loop.Close()

	f := NewFile(loop)
	read := f.Read(NewBuffer(make([]byte, 4)))

	var gotErr error
	read.attach(func(_ int, err error) { gotErr = err })

	var se *StreamError
	require.ErrorAs(t, gotErr, &se)

	require.NoError(t, loop.Run(context.Background()))
}
