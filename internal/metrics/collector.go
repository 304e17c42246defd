// Package metrics exports dispatcher timings to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/amit-batra/playing-with-llama/internal/dispatch"
)

const namespace = "llama"

// Collector implements dispatch.Observer.
type Collector struct {
	callsTotal       *prometheus.CounterVec
	callDuration     *prometheus.HistogramVec
	inFlight         *prometheus.GaugeVec
	dispatchDuration *prometheus.HistogramVec
	dispatchesTotal  *prometheus.CounterVec
}

var _ dispatch.Observer = (*Collector)(nil)

// NewCollector registers the dispatcher metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		callsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "dispatch",
				Name:      "calls_total",
				Help:      "Total number of chat calls issued by the dispatcher",
			},
			[]string{"mode", "status"},
		),
		callDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "dispatch",
				Name:      "call_duration_seconds",
				Help:      "Latency of a single chat call in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"mode"},
		),
		inFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "dispatch",
				Name:      "inflight_calls",
				Help:      "Chat calls currently in flight",
			},
			[]string{"mode"},
		),
		dispatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "dispatch",
				Name:      "duration_seconds",
				Help:      "Wall-clock duration of a whole dispatch in seconds",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
			[]string{"mode"},
		),
		dispatchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "dispatch",
				Name:      "runs_total",
				Help:      "Total number of dispatches",
			},
			[]string{"mode", "status"},
		),
	}
}

// CallStarted implements dispatch.Observer.
func (c *Collector) CallStarted(mode dispatch.Mode) {
	c.inFlight.WithLabelValues(mode.Kind.String()).Inc()
}

// CallFinished implements dispatch.Observer.
func (c *Collector) CallFinished(mode dispatch.Mode, elapsed time.Duration, err error) {
	kind := mode.Kind.String()
	c.inFlight.WithLabelValues(kind).Dec()
	c.callsTotal.WithLabelValues(kind, status(err)).Inc()
	c.callDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// DispatchFinished implements dispatch.Observer.
func (c *Collector) DispatchFinished(mode dispatch.Mode, _ int, elapsed time.Duration, err error) {
	kind := mode.Kind.String()
	c.dispatchesTotal.WithLabelValues(kind, status(err)).Inc()
	c.dispatchDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
