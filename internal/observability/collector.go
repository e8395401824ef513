// Package observability exposes layout run statistics as Prometheus metrics.
package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the Prometheus metrics updated by the step runner.
type Collector struct {
	gatherer prometheus.Gatherer

	StepsTotal         prometheus.Counter
	StepDuration       prometheus.Histogram
	KineticEnergy      prometheus.Gauge
	MeanStrain         prometheus.Gauge
	Nodes              prometheus.Gauge
	CollisionsResolved prometheus.Counter
}

// NewCollector registers the layout metrics against reg. A nil reg uses
// the default registerer.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	steps, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "springz_steps_total",
		Help: "Simulation steps executed.",
	}))
	if err != nil {
		return nil, err
	}
	duration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "springz_step_duration_seconds",
		Help:    "Wall time of one simulate step including extra passes.",
		Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
	}))
	if err != nil {
		return nil, err
	}
	energy, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "springz_kinetic_energy",
		Help: "Sum of squared velocities of unlocked nodes after the last step.",
	}))
	if err != nil {
		return nil, err
	}
	strain, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "springz_mean_strain",
		Help: "Mean absolute deviation from target distance over active springs.",
	}))
	if err != nil {
		return nil, err
	}
	nodes, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "springz_nodes",
		Help: "Nodes in the simulated collection.",
	}))
	if err != nil {
		return nil, err
	}
	resolved, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "springz_collisions_resolved_total",
		Help: "Overlapping node pairs separated by extra uncollide passes.",
	}))
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:           gatherer,
		StepsTotal:         steps,
		StepDuration:       duration,
		KineticEnergy:      energy,
		MeanStrain:         strain,
		Nodes:              nodes,
		CollisionsResolved: resolved,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *Collector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveStep records one finished step.
func (c *Collector) ObserveStep(d time.Duration, energy, strain float64, nodes int) {
	if c == nil {
		return
	}
	c.StepsTotal.Inc()
	c.StepDuration.Observe(d.Seconds())
	c.KineticEnergy.Set(energy)
	c.MeanStrain.Set(strain)
	c.Nodes.Set(float64(nodes))
}

// AddResolved counts collisions separated outside Simulate.
func (c *Collector) AddResolved(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.CollisionsResolved.Add(float64(n))
}

func register[T prometheus.Collector](reg prometheus.Registerer, col T) (T, error) {
	if err := reg.Register(col); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %T already registered with incompatible type", col)
		}
		var zero T
		return zero, err
	}
	return col, nil
}
