package fsworker

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_SubmitRunsJobAndPosts(t *testing.T) {
	var postedMu sync.Mutex
	var posted []func()
	post := func(fn func()) {
		postedMu.Lock()
		posted = append(posted, fn)
		postedMu.Unlock()
	}

	pool := New(2, post, Hooks{})

	var wg sync.WaitGroup
	wg.Add(1)
	pool.Submit(Job{
		Run: func() (any, error) { return 42, nil },
		Done: func(v any, err error) {
			require.NoError(t, err)
			assert.Equal(t, 42, v)
			wg.Done()
		},
	})

	require.Eventually(t, func() bool {
		postedMu.Lock()
		defer postedMu.Unlock()
		return len(posted) == 1
	}, time.Second, time.Millisecond)

	postedMu.Lock()
	posted[0]()
	postedMu.Unlock()

	wg.Wait()
}

func TestPool_ConcurrencyBounded(t *testing.T) {
	const limit = 2
	pool := New(limit, func(fn func()) { fn() }, Hooks{})

	var inFlight int32
	var maxSeen int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		pool.Submit(Job{
			Run: func() (any, error) {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					old := atomic.LoadInt32(&maxSeen)
					if n <= old || atomic.CompareAndSwapInt32(&maxSeen, old, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return nil, nil
			},
			Done: func(any, error) { wg.Done() },
		})
	}

	wg.Wait()
	assert.LessOrEqual(t, atomic.LoadInt32(&maxSeen), int32(limit))
}

func TestPool_HooksCalled(t *testing.T) {
	var before, after int32
	pool := New(1, func(fn func()) { fn() }, Hooks{
		Before: func() { atomic.AddInt32(&before, 1) },
		After:  func() { atomic.AddInt32(&after, 1) },
	})

	var wg sync.WaitGroup
	wg.Add(1)
	pool.Submit(Job{
		Run:  func() (any, error) { return nil, nil },
		Done: func(any, error) { wg.Done() },
	})
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&before))
	assert.EqualValues(t, 1, atomic.LoadInt32(&after))
}
