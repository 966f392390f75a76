package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cic64",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cic64",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	sessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cic64",
			Subsystem: "session",
			Name:      "total",
			Help:      "Finished sessions by termination reason.",
		},
		[]string{"region", "variant", "reason"},
	)
	sessionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cic64",
			Subsystem: "session",
			Name:      "duration_seconds",
			Help:      "Session duration from reset release to termination.",
			Buckets:   []float64{0.01, 0.1, 1, 10, 60, 600, 3600, 14400},
		},
		[]string{"region", "variant"},
	)
	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cic64",
			Subsystem: "command",
			Name:      "total",
			Help:      "Host commands served by mode.",
		},
		[]string{"region", "variant", "mode"},
	)
	bitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cic64",
			Subsystem: "wire",
			Name:      "bits_total",
			Help:      "Bits transferred by direction.",
		},
		[]string{"region", "variant", "direction"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			sessionsTotal, sessionDuration, commandsTotal, bitsTotal,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

// SessionMetrics holds counters pre-bound to one region and variant so the
// command loop only performs atomic adds.
type SessionMetrics struct {
	region  string
	variant string

	compare prometheus.Counter
	vmode   prometheus.Counter
	reset   prometheus.Counter
	die     prometheus.Counter
	bitsIn  prometheus.Counter
	bitsOut prometheus.Counter
}

func NewSessionMetrics(region, variant string) *SessionMetrics {
	RegisterMetrics()
	return &SessionMetrics{
		region:  region,
		variant: variant,
		compare: commandsTotal.WithLabelValues(region, variant, "compare"),
		vmode:   commandsTotal.WithLabelValues(region, variant, "variant"),
		reset:   commandsTotal.WithLabelValues(region, variant, "reset"),
		die:     commandsTotal.WithLabelValues(region, variant, "die"),
		bitsIn:  bitsTotal.WithLabelValues(region, variant, "in"),
		bitsOut: bitsTotal.WithLabelValues(region, variant, "out"),
	}
}

func (m *SessionMetrics) Compare()  { m.compare.Inc() }
func (m *SessionMetrics) Variant()  { m.vmode.Inc() }
func (m *SessionMetrics) ResetAck() { m.reset.Inc() }
func (m *SessionMetrics) Die()      { m.die.Inc() }

// Finish records one terminated session.
func (m *SessionMetrics) Finish(reason string, duration time.Duration, bitsIn, bitsOut uint64) {
	sessionsTotal.WithLabelValues(m.region, m.variant, reason).Inc()
	sessionDuration.WithLabelValues(m.region, m.variant).Observe(duration.Seconds())
	m.bitsIn.Add(float64(bitsIn))
	m.bitsOut.Add(float64(bitsOut))
}
