package metrics

import "github.com/san-kum/springz/internal/springz"

// KineticEnergy sums vx²+vy² over the unlocked nodes. Locked nodes carry
// velocity that never moves them, so they are left out.
func KineticEnergy(nodes []*springz.Node) float64 {
	total := 0.0
	for _, n := range nodes {
		if n.Locked {
			continue
		}
		total += n.VX*n.VX + n.VY*n.VY
	}
	return total
}

// Energy reports the kinetic energy of the most recent observation.
type Energy struct {
	name    string
	last    float64
	peak    float64
	samples int
}

func NewEnergy() *Energy {
	return &Energy{name: "kinetic_energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(nodes []*springz.Node, conns []*springz.Connection, step int) {
	e.last = KineticEnergy(nodes)
	if e.last > e.peak {
		e.peak = e.last
	}
	e.samples++
}

func (e *Energy) Value() float64 { return e.last }

// Peak is the largest energy seen since the last Reset.
func (e *Energy) Peak() float64 { return e.peak }

func (e *Energy) Reset() {
	e.last = 0
	e.peak = 0
	e.samples = 0
}
