package asyncio

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics wraps the Prometheus collectors a Loop records to when attached
// via WithMetrics. A nil *Metrics is valid: every method is a no-op, so
// Loop internals never need to nil-check the option.
type Metrics struct {
	TickLatency      prometheus.Histogram
	TimerHeapDepth   prometheus.Gauge
	StreamQueueDepth *prometheus.GaugeVec
	FileWorkersBusy  prometheus.Gauge
}

// NewMetrics constructs a Metrics bound to a fresh set of collectors and
// registers them with reg. Pass prometheus.NewRegistry() for an isolated
// registry in tests, or prometheus.DefaultRegisterer in production.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TickLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "asyncio",
			Name:      "loop_tick_latency_seconds",
			Help:      "Wall-clock duration of a single Loop tick (poll + timers + callbacks).",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
		}),
		TimerHeapDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "asyncio",
			Name:      "loop_timer_heap_depth",
			Help:      "Number of pending entries (Timeout, Wait, WaitUntil) in the Loop's timer heap.",
		}),
		StreamQueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "asyncio",
			Name:      "stream_request_queue_depth",
			Help:      "Number of queued but not-yet-completed requests on a Stream.",
		}, []string{"stream"}),
		FileWorkersBusy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "asyncio",
			Name:      "file_workers_busy",
			Help:      "Number of background file-worker goroutines currently executing blocking I/O.",
		}),
	}
	reg.MustRegister(m.TickLatency, m.TimerHeapDepth, m.StreamQueueDepth, m.FileWorkersBusy)
	return m
}

func (m *Metrics) observeTick(d time.Duration) {
	if m == nil {
		return
	}
	m.TickLatency.Observe(d.Seconds())
}

func (m *Metrics) setTimerHeapDepth(n int) {
	if m == nil {
		return
	}
	m.TimerHeapDepth.Set(float64(n))
}

func (m *Metrics) setStreamQueueDepth(stream string, n int) {
	if m == nil {
		return
	}
	m.StreamQueueDepth.WithLabelValues(stream).Set(float64(n))
}

func (m *Metrics) incFileWorkersBusy() {
	if m == nil {
		return
	}
	m.FileWorkersBusy.Inc()
}

func (m *Metrics) decFileWorkersBusy() {
	if m == nil {
		return
	}
	m.FileWorkersBusy.Dec()
}
