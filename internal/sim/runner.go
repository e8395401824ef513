package sim

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/san-kum/springz/internal/metrics"
	"github.com/san-kum/springz/internal/observability"
	"github.com/san-kum/springz/internal/springz"
)

// Runner steps a collection repeatedly and records what happens.
type Runner struct {
	coll      *springz.Collection
	metrics   []Metric
	observers []Observer
	collector *observability.Collector
	logger    *log.Logger
}

func New(c *springz.Collection, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		coll:      c,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		logger:    logger,
	}
}

func (r *Runner) AddMetric(m Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

func (r *Runner) SetCollector(c *observability.Collector) { r.collector = c }

// Collection returns the collection being stepped.
func (r *Runner) Collection() *springz.Collection { return r.coll }

// Run executes up to cfg.Steps steps. The first frame holds the starting
// positions and the last frame always holds the final ones. On
// cancellation the partial result is returned with ctx.Err().
func (r *Runner) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	result := &Result{
		Frames:  make([]Frame, 0, cfg.Steps/max(cfg.SampleEvery, 1)+2),
		Energy:  make([]float64, 0, cfg.Steps),
		Metrics: make(map[string]float64),
	}
	for _, m := range r.metrics {
		m.Reset()
	}

	result.Frames = append(result.Frames, NewFrame(0, r.coll.Nodes()))
	r.logger.Debug("run started", "nodes", r.coll.NumNodes(), "connections", r.coll.NumConnections(), "steps", cfg.Steps)

	lastSampled := 0
	for step := 1; step <= cfg.Steps; step++ {
		select {
		case <-ctx.Done():
			r.finish(result)
			return result, ctx.Err()
		default:
		}

		nodes, err := r.step(step, cfg, result)
		if err != nil {
			r.finish(result)
			return result, err
		}

		if cfg.SampleEvery > 0 && step%cfg.SampleEvery == 0 {
			result.Frames = append(result.Frames, NewFrame(step, nodes))
			lastSampled = step
		}

		energy := result.Energy[len(result.Energy)-1]
		if cfg.SettleThreshold > 0 && energy < cfg.SettleThreshold {
			result.Settled = true
			r.logger.Info("layout settled", "step", step, "energy", energy)
			break
		}
	}

	if result.StepsTaken > lastSampled {
		result.Frames = append(result.Frames, NewFrame(result.StepsTaken, r.coll.Nodes()))
	}
	r.finish(result)
	return result, nil
}

// Step advances the collection once outside of Run, applying cfg's extra
// passes and bounds. n numbers the step for metrics and observers.
func (r *Runner) Step(n int, cfg Config) (energy float64, resolved int, err error) {
	result := &Result{Energy: make([]float64, 0, 1)}
	if _, err := r.step(n, cfg, result); err != nil {
		return 0, 0, err
	}
	return result.Energy[0], result.Resolved, nil
}

func (r *Runner) step(step int, cfg Config, result *Result) ([]*springz.Node, error) {
	start := time.Now()

	r.coll.Simulate(nil)
	resolved := 0
	for i := 0; i < cfg.UncollidePasses; i++ {
		resolved += r.coll.Uncollide(nil)
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		r.coll.FitWithin(cfg.Width, cfg.Height)
	}

	nodes, conns := r.coll.Nodes(), r.coll.Connections()
	for _, n := range nodes {
		if math.IsNaN(n.X) || math.IsNaN(n.Y) || math.IsInf(n.X, 0) || math.IsInf(n.Y, 0) {
			return nil, &StepError{Step: step, Err: fmt.Errorf("%w: node %d", ErrNonFinite, n.ID())}
		}
	}

	for _, m := range r.metrics {
		m.Observe(nodes, conns, step)
	}
	for _, obs := range r.observers {
		obs.OnStep(step, nodes, conns)
	}

	energy := metrics.KineticEnergy(nodes)
	result.Energy = append(result.Energy, energy)
	result.Resolved += resolved
	result.StepsTaken++

	r.collector.ObserveStep(time.Since(start), energy, metrics.MeanStrain(conns), len(nodes))
	r.collector.AddResolved(resolved)
	return nodes, nil
}

func (r *Runner) finish(result *Result) {
	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func validateConfig(cfg Config) error {
	if cfg.Steps <= 0 {
		return fmt.Errorf("%w: steps must be positive, got %d", ErrInvalidConfig, cfg.Steps)
	}
	if cfg.UncollidePasses < 0 {
		return fmt.Errorf("%w: uncollide passes must not be negative", ErrInvalidConfig)
	}
	if cfg.SampleEvery < 0 {
		return fmt.Errorf("%w: sample interval must not be negative", ErrInvalidConfig)
	}
	if cfg.Width < 0 || cfg.Height < 0 {
		return fmt.Errorf("%w: bounds must not be negative", ErrInvalidConfig)
	}
	return nil
}
