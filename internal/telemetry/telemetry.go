// Package telemetry exports engine activity as Prometheus metrics.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/san-kum/nebula/internal/grid"
)

// Collector receives engine events and records them. Register it once per
// engine; use ConstLabels to tell engines apart on a shared registry.
type Collector struct {
	steps      prometheus.Counter
	resets     prometheus.Counter
	rejected   prometheus.Counter
	simTime    prometheus.Counter
	generation prometheus.Gauge
	particles  prometheus.Gauge
	stepTime   prometheus.Histogram
}

func NewCollector(reg prometheus.Registerer, labels prometheus.Labels) (*Collector, error) {
	c := &Collector{
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nebula", Name: "steps_total",
			Help: "Integration steps taken", ConstLabels: labels,
		}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nebula", Name: "resets_total",
			Help: "Times the particle grid was reseeded", ConstLabels: labels,
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nebula", Name: "rejected_deltas_total",
			Help: "Advance calls ignored because delta was NaN, infinite or negative", ConstLabels: labels,
		}),
		simTime: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nebula", Name: "simulated_seconds_total",
			Help: "Simulated time integrated", ConstLabels: labels,
		}),
		generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nebula", Name: "generation",
			Help: "Current buffer generation", ConstLabels: labels,
		}),
		particles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nebula", Name: "particles",
			Help: "Particles in the grid", ConstLabels: labels,
		}),
		stepTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nebula", Name: "step_seconds",
			Help:        "Wall time of one kick and drift",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(1e-5, 4, 10),
		}),
	}

	for _, m := range []prometheus.Collector{
		c.steps, c.resets, c.rejected, c.simTime, c.generation, c.particles, c.stepTime,
	} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) OnReset(shape grid.Shape) {
	c.resets.Inc()
	c.generation.Set(0)
	c.particles.Set(float64(shape.Len()))
}

func (c *Collector) OnStep(gen uint64, dt float64, took time.Duration) {
	c.steps.Inc()
	c.simTime.Add(dt)
	c.generation.Set(float64(gen))
	c.stepTime.Observe(took.Seconds())
}

func (c *Collector) OnRejectedDelta(float64) {
	c.rejected.Inc()
}
