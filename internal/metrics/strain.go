package metrics

import (
	"math"

	"github.com/san-kum/springz/internal/springz"
)

// MeanStrain is the mean absolute deviation from target distance over the
// active connections.
func MeanStrain(conns []*springz.Connection) float64 {
	sum, n := 0.0, 0
	for _, c := range conns {
		if !c.Active || c.Force <= 0 {
			continue
		}
		sum += math.Abs(c.Deviation())
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Strain averages MeanStrain across observations.
type Strain struct {
	name    string
	sum     float64
	last    float64
	samples int
}

func NewStrain() *Strain {
	return &Strain{name: "strain"}
}

func (s *Strain) Name() string { return s.name }

func (s *Strain) Observe(nodes []*springz.Node, conns []*springz.Connection, step int) {
	s.last = MeanStrain(conns)
	s.sum += s.last
	s.samples++
}

func (s *Strain) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return s.sum / float64(s.samples)
}

// Last is the strain of the most recent observation.
func (s *Strain) Last() float64 { return s.last }

func (s *Strain) Reset() {
	s.sum = 0
	s.last = 0
	s.samples = 0
}
