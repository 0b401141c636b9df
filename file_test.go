package asyncio

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile_RoundTrip(t *testing.T) {
	loop, err := NewLoop()
	require.NoError(t, err)
	defer loop.Close()

	path := filepath.Join(t.TempDir(), "roundtrip.txt")
	payload := []byte("an awesome message to keep")

	f := NewFile(loop)
	var readBack []byte
	var stepErr error

	opened := f.Open(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o600)
	written := ThenFuture(opened, func(struct{}) *Future[int] {
		return f.Write(NewBuffer(payload))
	}, func(err error) *Future[int] {
		stepErr = err
		return Rejected[int](err)
	})
	buf := NewBuffer(make([]byte, len(payload)))
	read := ThenFuture(written, func(int) *Future[int] {
		f.Seek(0)
		return f.Read(buf)
	}, func(err error) *Future[int] {
		stepErr = err
		return Rejected[int](err)
	})
	closed := ThenFuture(read, func(n int) *Future[struct{}] {
		readBack = buf.Bytes()[:n]
		return f.Close()
	}, func(err error) *Future[struct{}] {
		stepErr = err
		return Rejected[struct{}](err)
	})
	closed.attach(func(struct{}, error) {})

	require.NoError(t, loop.Run(context.Background()))
	require.NoError(t, stepErr)
	assert.Equal(t, payload, readBack)
	assert.Equal(t, "closed_final", f.State())
}

func TestFile_OpenMissingFileFails(t *testing.T) {
	loop, err := NewLoop()
	require.NoError(t, err)
	defer loop.Close()

	f := NewFile(loop)
	fut := f.Open(filepath.Join(t.TempDir(), "does-not-exist"), os.O_RDONLY, 0)

	var gotErr error
	fut.attach(func(_ struct{}, err error) { gotErr = err })

	require.NoError(t, loop.Run(context.Background()))
	assert.Error(t, gotErr)
}

func TestFile_ReadPastEndYieldsEndOfStream(t *testing.T) {
	loop, err := NewLoop()
	require.NoError(t, err)
	defer loop.Close()

	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	f := NewFile(loop)
	opened := f.Open(path, os.O_RDONLY, 0)
	buf := NewBuffer(make([]byte, 16))
	read := ThenFuture(opened, func(struct{}) *Future[int] {
		return f.Read(buf)
	}, nil)

	var gotErr error
	read.attach(func(_ int, err error) {
		gotErr = err
		f.Close() // an open File keeps Run alive
	})

	require.NoError(t, loop.Run(context.Background()))
	assert.True(t, IsEndOfStream(gotErr))
}

func TestFile_QueuedRequestsRunInOrder(t *testing.T) {
	loop, err := NewLoop()
	require.NoError(t, err)
	defer loop.Close()

	path := filepath.Join(t.TempDir(), "ordered.txt")
	f := NewFile(loop)

	opened := f.Open(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o600)
	opened.attach(func(struct{}, error) {})

	// Two writes queued back-to-back before either settles; Stream FIFO
	// semantics guarantee "first" lands before "second".
	w1 := f.Write(NewBuffer([]byte("first-")))
	w2 := f.Write(NewBuffer([]byte("second")))

	var order []string
	w1.attach(func(int, error) { order = append(order, "first") })
	w2.attach(func(int, error) { order = append(order, "second") })
	f.Close() // queued after both writes; an open File keeps Run alive

	require.NoError(t, loop.Run(context.Background()))
	assert.Equal(t, []string{"first", "second"}, order)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first-second", string(got))
}
