package optim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/san-kum/springz/internal/config"
	"github.com/san-kum/springz/internal/metrics"
	"github.com/san-kum/springz/internal/sim"
)

var (
	ErrUnknownParam  = errors.New("optim: unknown parameter")
	ErrUnknownMetric = errors.New("optim: unknown metric")
	ErrNoTrials      = errors.New("optim: no trial succeeded")
)

// setters apply a grid value to a scene.
var setters = map[string]func(s *config.Scene, v float64){
	"scale":     func(s *config.Scene, v float64) { s.Collection.Scale = v },
	"glide":     func(s *config.Scene, v float64) { s.Collection.Glide = v },
	"max_speed": func(s *config.Scene, v float64) { s.Collection.MaxSpeed = v },
	"passes":    func(s *config.Scene, v float64) { s.Run.UncollidePasses = int(v) },
	"force": func(s *config.Scene, v float64) {
		for i := range s.Connections {
			f := v
			s.Connections[i].Force = &f
		}
	},
}

// integerParams only accept whole numbers.
var integerParams = map[string]bool{"passes": true}

// MetricSteps ranks trials by how many steps they took, which is only
// useful together with a settle threshold.
const MetricSteps = "steps"

func Params() []string  { return slices.Sorted(maps.Keys(setters)) }
func Metrics() []string { return []string{"containment", "kinetic_energy", "max_overlaps", MetricSteps, "strain"} }

func newMetric(name string, s *config.Scene) (sim.Metric, error) {
	switch name {
	case "kinetic_energy":
		return metrics.NewEnergy(), nil
	case "strain":
		return metrics.NewStrain(), nil
	case "max_overlaps":
		return metrics.NewOverlap(), nil
	case "containment":
		return metrics.NewContainment(s.Run.Width, s.Run.Height), nil
	case MetricSteps:
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
}

// Param is one axis of the grid.
type Param struct {
	Name   string
	Values []float64
}

// ParseParam reads "name=v1,v2,...".
func ParseParam(s string) (Param, error) {
	name, list, ok := strings.Cut(s, "=")
	if !ok || name == "" || list == "" {
		return Param{}, fmt.Errorf("optim: expected name=v1,v2,... got %q", s)
	}
	if _, known := setters[name]; !known {
		return Param{}, fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	p := Param{Name: name}
	for _, field := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return Param{}, fmt.Errorf("optim: %s: %w", name, err)
		}
		if integerParams[name] && (math.IsInf(v, 0) || v != math.Trunc(v)) {
			return Param{}, fmt.Errorf("optim: %s takes whole numbers, got %v", name, v)
		}
		p.Values = append(p.Values, v)
	}
	return p, nil
}

// Trial is one point of the grid and what it scored.
type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type GridSearch struct {
	params  []Param
	metric  string
	workers int
	logger  *log.Logger
}

func NewGridSearch(params []Param, metric string) *GridSearch {
	return &GridSearch{
		params:  params,
		metric:  metric,
		workers: runtime.GOMAXPROCS(0),
		logger:  log.New(io.Discard),
	}
}

// SetWorkers bounds how many trials run at once.
func (g *GridSearch) SetWorkers(n int) { g.workers = max(n, 1) }

// SetLogger receives one debug line per finished trial.
func (g *GridSearch) SetLogger(l *log.Logger) { g.logger = l }

// Search runs base once for every combination of parameter values and
// returns the trial with the lowest metric value along with every trial
// in grid order. Ties go to the earlier trial.
func (g *GridSearch) Search(ctx context.Context, base *config.Scene) (Trial, []Trial, error) {
	for _, p := range g.params {
		if _, ok := setters[p.Name]; !ok {
			return Trial{}, nil, fmt.Errorf("%w: %q", ErrUnknownParam, p.Name)
		}
	}
	if _, err := newMetric(g.metric, base); err != nil {
		return Trial{}, nil, err
	}

	var points []map[string]float64
	g.enumerate(0, make(map[string]float64), &points)

	trials := make([]Trial, len(points))
	sem := make(chan struct{}, g.workers)
	var wg sync.WaitGroup
	for i, p := range points {
		wg.Add(1)
		go func(idx int, params map[string]float64) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			v, err := g.evaluate(ctx, base, params)
			trials[idx] = Trial{Params: params, Value: v, Err: err}
			g.logger.Debug("trial done", "params", params, g.metric, v, "err", err)
		}(i, p)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Trial{}, trials, err
	}

	best, found := Trial{Value: math.Inf(1)}, false
	for _, t := range trials {
		if t.Err == nil && t.Value < best.Value {
			best, found = t, true
		}
	}
	if !found {
		return Trial{}, trials, ErrNoTrials
	}
	return best, trials, nil
}

func (g *GridSearch) enumerate(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.params) {
		*out = append(*out, maps.Clone(current))
		return
	}
	p := g.params[depth]
	for _, v := range p.Values {
		current[p.Name] = v
		g.enumerate(depth+1, current, out)
	}
	delete(current, p.Name)
}

func (g *GridSearch) evaluate(ctx context.Context, base *config.Scene, params map[string]float64) (float64, error) {
	scene := base.Clone()
	for name, v := range params {
		setters[name](scene, v)
	}

	coll, err := scene.Build(log.New(io.Discard))
	if err != nil {
		return 0, err
	}
	runner := sim.New(coll, log.New(io.Discard))
	m, err := newMetric(g.metric, scene)
	if err != nil {
		return 0, err
	}
	if m != nil {
		runner.AddMetric(m)
	}

	result, err := runner.Run(ctx, sim.Config{
		Steps:           scene.Run.Steps,
		Width:           scene.Run.Width,
		Height:          scene.Run.Height,
		UncollidePasses: scene.Run.UncollidePasses,
		SettleThreshold: scene.Run.SettleThreshold,
	})
	if err != nil {
		return 0, err
	}
	if m == nil {
		return float64(result.StepsTaken), nil
	}
	return result.Metrics[g.metric], nil
}
