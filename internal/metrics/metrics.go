// Package metrics exposes Prometheus instrumentation for the poll and render loops.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glucosewatch_polls_total",
			Help: "Poll ticks by outcome.",
		},
		[]string{"result"},
	)
	lastValue = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "glucosewatch_last_reading_value",
		Help: "Value of the freshest known reading.",
	})
	lastTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "glucosewatch_last_reading_timestamp_seconds",
		Help: "Unix time of the freshest known reading.",
	})
	rangeState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "glucosewatch_range_state",
			Help: "1 for the current range class of the freshest reading, 0 otherwise.",
		},
		[]string{"range"},
	)
	renderDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "glucosewatch_render_duration_seconds",
		Help:    "Time spent rebinning and rendering one frame.",
		Buckets: prometheus.DefBuckets,
	})
)

// ObservePoll counts one poll tick.
func ObservePoll(result string) {
	pollsTotal.WithLabelValues(result).Inc()
}

// ObserveReading records the freshest reading.
func ObserveReading(value float64, ts time.Time, rangeClass string) {
	lastValue.Set(value)
	lastTimestamp.Set(float64(ts.Unix()))
	for _, r := range []string{"low", "in_range", "high"} {
		v := 0.0
		if r == rangeClass {
			v = 1
		}
		rangeState.WithLabelValues(r).Set(v)
	}
}

// ObserveRender records how long a frame took.
func ObserveRender(d time.Duration) {
	renderDurationSeconds.Observe(d.Seconds())
}
