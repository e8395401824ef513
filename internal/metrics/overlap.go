package metrics

import (
	"math"

	"github.com/san-kum/springz/internal/springz"
)

// Overlaps counts node pairs whose centers are closer than their combined
// radii.
func Overlaps(nodes []*springz.Node) int {
	count := 0
	for i, a := range nodes {
		for _, b := range nodes[i+1:] {
			if math.Hypot(b.X-a.X, b.Y-a.Y) < a.Radius+b.Radius {
				count++
			}
		}
	}
	return count
}

// Overlap tracks the most overlapping pairs seen in a single observation.
type Overlap struct {
	name string
	max  int
}

func NewOverlap() *Overlap {
	return &Overlap{name: "max_overlaps"}
}

func (o *Overlap) Name() string { return o.name }

func (o *Overlap) Observe(nodes []*springz.Node, conns []*springz.Connection, step int) {
	if n := Overlaps(nodes); n > o.max {
		o.max = n
	}
}

func (o *Overlap) Value() float64 { return float64(o.max) }

func (o *Overlap) Reset() { o.max = 0 }
