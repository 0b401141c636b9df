package asyncio

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipe_BindConnectRoundTrip(t *testing.T) {
	loop, err := NewLoop()
	require.NoError(t, err)
	defer loop.Close()

	sockPath := filepath.Join(t.TempDir(), "test.sock")
	payload := []byte("an awesome message to keep")

	server := NewPipe(loop)
	client := NewPipe(loop)

	bound := server.Bind(sockPath)
	var serverRead []byte
	var serverErr error
	bound.attach(func(struct{}, error) {
		buf := NewBuffer(make([]byte, len(payload)))
		server.Read(buf).attach(func(n int, err error) {
			serverErr = err
			if err == nil {
				serverRead = append([]byte(nil), buf.Bytes()[:n]...)
			}
			server.Close()
		})
	})

	connected := client.Connect(sockPath)
	var clientErr error
	connected.attach(func(_ struct{}, err error) {
		clientErr = err
		if err == nil {
			client.Write(NewBuffer(payload)).attach(func(int, error) {
				client.Close()
			})
		}
	})

	require.NoError(t, loop.Run(context.Background()))
	require.NoError(t, clientErr)
	require.NoError(t, serverErr)
	assert.Equal(t, payload, serverRead)
}

func TestPipe_ConnectAtMostOnce(t *testing.T) {
	loop, err := NewLoop()
	require.NoError(t, err)
	defer loop.Close()

	sockPath := filepath.Join(t.TempDir(), "guard.sock")
	p := NewPipe(loop)

	first := p.Connect(sockPath)
	second := p.Connect(sockPath)

	var secondErr error
	second.attach(func(_ struct{}, err error) { secondErr = err })

	var pe *PipeError
	require.True(t, errors.As(secondErr, &pe))
	assert.Equal(t, PipeErrorConnectInFlightOrFinished, pe.Code)

	// Drain the first attempt so the loop doesn't hang on a failed dial.
	first.attach(func(struct{}, error) {})
	require.NoError(t, loop.Run(context.Background()))
}

func TestPipe_OpenAdoptsFD(t *testing.T) {
	loop, err := NewLoop()
	require.NoError(t, err)
	defer loop.Close()

	p := NewPipe(loop)
	opened := p.Open(StdoutFD)

	var settled bool
	opened.attach(func(_ struct{}, err error) {
		require.NoError(t, err)
		settled = true
	})
	assert.Equal(t, "open", p.State())

	p.Close().attach(func(struct{}, error) {})
	require.NoError(t, loop.Run(context.Background()))
	assert.True(t, settled)
}
