package asyncio

import (
	"context"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMetrics_RecordsTimerHeapDepth(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	loop, err := NewLoop(WithMetrics(m))
	require.NoError(t, err)
	defer loop.Close()

	loop.retain()
	loop.ScheduleTimer(50*time.Millisecond, func() { loop.release() })

	assert.Equal(t, 1, loop.timers.Len())

	var out dto.Metric
	require.NoError(t, m.TimerHeapDepth.Write(&out))
	assert.Equal(t, float64(1), out.GetGauge().GetValue())

	require.NoError(t, loop.Run(context.Background()))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.observeTick(time.Millisecond)
		m.setTimerHeapDepth(3)
		m.setStreamQueueDepth("file", 1)
		m.incFileWorkersBusy()
		m.decFileWorkersBusy()
	})
}
