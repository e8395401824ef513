package sim

import (
	"errors"
	"fmt"

	"github.com/san-kum/springz/internal/springz"
)

var (
	// ErrNonFinite indicates a node position became NaN or Inf.
	ErrNonFinite = errors.New("sim: non-finite node position")

	// ErrInvalidConfig indicates run parameters that cannot be executed.
	ErrInvalidConfig = errors.New("sim: invalid config")

	ErrFrameMismatch = errors.New("sim: frame does not match nodes")
)

type Metric interface {
	Name() string
	Observe(nodes []*springz.Node, conns []*springz.Connection, step int)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(step int, nodes []*springz.Node, conns []*springz.Connection)
}

// Config controls a run. Width and Height are half extents for a bounding
// pass after every step; zero disables it. A positive SettleThreshold stops
// the run once kinetic energy falls below it.
type Config struct {
	Steps           int
	Width           float64
	Height          float64
	UncollidePasses int
	SampleEvery     int
	SettleThreshold float64
}

func DefaultConfig() Config {
	return Config{
		Steps:       300,
		SampleEvery: 1,
	}
}

// Frame is a snapshot of node positions in insertion order.
type Frame struct {
	Step int
	X, Y []float64
}

func NewFrame(step int, nodes []*springz.Node) Frame {
	f := Frame{
		Step: step,
		X:    make([]float64, len(nodes)),
		Y:    make([]float64, len(nodes)),
	}
	for i, n := range nodes {
		f.X[i], f.Y[i] = n.X, n.Y
	}
	return f
}

// Apply moves nodes to the frame's positions and zeroes their velocity.
// It fails when the frame was taken from a different number of nodes.
func (f Frame) Apply(nodes []*springz.Node) error {
	if len(nodes) != len(f.X) || len(nodes) != len(f.Y) {
		return fmt.Errorf("%w: frame holds %d nodes, have %d", ErrFrameMismatch, len(f.X), len(nodes))
	}
	for i, n := range nodes {
		n.X, n.Y = f.X[i], f.Y[i]
		n.VX, n.VY = 0, 0
	}
	return nil
}

type Result struct {
	Frames     []Frame
	Energy     []float64
	Metrics    map[string]float64
	StepsTaken int
	Settled    bool
	Resolved   int
}

// StepError carries the step at which a run failed.
type StepError struct {
	Step int
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
