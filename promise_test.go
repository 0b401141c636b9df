package asyncio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromise_ResolveThenAttach(t *testing.T) {
	p, f := NewPromise[int]()
	p.Resolve(42)

	var got int
	f.attach(func(v int, err error) {
		require.NoError(t, err)
		got = v
	})
	assert.Equal(t, 42, got)
}

func TestPromise_AttachThenResolve(t *testing.T) {
	p, f := NewPromise[int]()

	var got int
	var fired bool
	f.attach(func(v int, err error) {
		require.NoError(t, err)
		got = v
		fired = true
	})
	assert.False(t, fired)

	p.Resolve(7)
	assert.True(t, fired)
	assert.Equal(t, 7, got)
}

func TestPromise_DoubleResolvePanics(t *testing.T) {
	p, _ := NewPromise[int]()
	p.Resolve(1)
	assert.Panics(t, func() { p.Resolve(2) })
}

func TestPromise_DoubleAttachPanics(t *testing.T) {
	_, f := NewPromise[int]()
	f.attach(func(int, error) {})
	assert.Panics(t, func() { f.attach(func(int, error) {}) })
}

func TestPromise_RejectPropagates(t *testing.T) {
	p, f := NewPromise[int]()
	sentinel := errors.New("boom")
	p.Reject(sentinel)

	var gotErr error
	f.attach(func(_ int, err error) { gotErr = err })
	assert.ErrorIs(t, gotErr, sentinel)
}

// Void_Void: resolve before attach, handler takes and returns nothing of
// interest - only ordering of flags matters.
func TestPromiseSync_VoidVoid(t *testing.T) {
	p, f := NewPromise[struct{}]()
	var resolved, handled bool

	p.Resolve(struct{}{})
	resolved = true

	f.attach(func(struct{}, error) { handled = true })

	assert.True(t, resolved)
	assert.True(t, handled)
}

// Void_PromiseVoid: a handler attached before resolve, firing synchronously
// inside Resolve.
func TestPromiseSync_VoidPromiseVoid(t *testing.T) {
	p, f := NewPromise[struct{}]()
	var order []string

	f.attach(func(struct{}, error) { order = append(order, "handler") })
	order = append(order, "before-resolve")
	p.Resolve(struct{}{})
	order = append(order, "after-resolve")

	assert.Equal(t, []string{"before-resolve", "handler", "after-resolve"}, order)
}

// Void_PromiseInt: Then flattens a handler returning a plain int.
func TestPromiseSync_VoidPromiseInt(t *testing.T) {
	p, f := NewPromise[struct{}]()
	out := Then(f, func(struct{}) int { return 99 }, nil)

	var got int
	out.attach(func(v int, err error) {
		require.NoError(t, err)
		got = v
	})
	assert.Equal(t, 0, got) // not yet resolved

	p.Resolve(struct{}{})
	assert.Equal(t, 99, got)
}

// FutureInt_Void: ThenFuture flattens a handler returning a Future instead
// of a bare value - the outer Future waits for the inner one.
func TestPromiseSync_FutureIntVoid(t *testing.T) {
	p, f := NewPromise[struct{}]()
	innerP, innerF := NewPromise[int]()

	out := ThenFuture(f, func(struct{}) *Future[int] { return innerF }, nil)

	var got int
	var fired bool
	out.attach(func(v int, err error) {
		require.NoError(t, err)
		got = v
		fired = true
	})

	p.Resolve(struct{}{})
	assert.False(t, fired, "outer future must wait for the inner future")

	innerP.Resolve(5)
	assert.True(t, fired)
	assert.Equal(t, 5, got)
}

// Int_Void: a plain value handler running off an already-int future.
func TestPromiseSync_IntVoid(t *testing.T) {
	p, f := NewPromise[int]()
	p.Resolve(3)

	doubled := Then(f, func(v int) int { return v * 2 }, nil)
	var got int
	doubled.attach(func(v int, _ error) { got = v })
	assert.Equal(t, 6, got)
}

// ConnectPromise: a Future forwarded into a Promise via Connect, the
// explicit "then(promise)" forwarding form.
func TestPromiseSync_ConnectPromise(t *testing.T) {
	sourceP, sourceF := NewPromise[string]()
	targetP, targetF := NewPromise[string]()

	Connect(sourceF, targetP)

	var got string
	targetF.attach(func(v string, err error) {
		require.NoError(t, err)
		got = v
	})

	sourceP.Resolve("an awesome message to keep")
	assert.Equal(t, "an awesome message to keep", got)
}

func TestThenDeferred_HandlerSettlesLater(t *testing.T) {
	p, f := NewPromise[int]()
	var deferredPromise *Promise[string]

	out := ThenDeferred(f, func(v int, dp *Promise[string]) {
		deferredPromise = dp
	}, nil)

	p.Resolve(1)

	var got string
	var fired bool
	out.attach(func(v string, err error) {
		require.NoError(t, err)
		got = v
		fired = true
	})
	assert.False(t, fired)

	deferredPromise.Resolve("done")
	assert.True(t, fired)
	assert.Equal(t, "done", got)
}

func TestPromise_ResetAllowsReuse(t *testing.T) {
	p, f := NewPromise[int]()
	p.Resolve(1)
	require.True(t, p.IsFinished())

	assert.True(t, p.Reset())
	assert.False(t, p.IsFinished())

	// f was obtained before Reset, so it keeps observing the original
	// state's settled value - it must never see what the post-reset
	// Promise resolves with.
	var got int
	f.attach(func(v int, _ error) { got = v })
	assert.Equal(t, 1, got)

	// A Future obtained after Reset observes the new pending state.
	newFuture := p.Future()
	var gotAfterReset int
	var firedAfterReset bool
	newFuture.attach(func(v int, _ error) {
		gotAfterReset = v
		firedAfterReset = true
	})
	assert.False(t, firedAfterReset)

	p.Resolve(2)
	assert.True(t, firedAfterReset)
	assert.Equal(t, 2, gotAfterReset)
	assert.Equal(t, 1, got, "the pre-reset future must still reflect its original value")
}

func TestFuture_ToChannel(t *testing.T) {
	p, f := NewPromise[int]()
	ch := f.ToChannel()
	p.Resolve(10)
	res := <-ch
	assert.Equal(t, 10, res.Value)
	assert.NoError(t, res.Err)
}
