package metrics

import "github.com/san-kum/springz/internal/springz"

// Containment is the fraction of observations in which every node, radius
// included, lay inside [-width, width] x [-height, height].
type Containment struct {
	name          string
	width, height float64
	violations    int
	samples       int
}

func NewContainment(width, height float64) *Containment {
	return &Containment{
		name:   "containment",
		width:  width,
		height: height,
	}
}

func (c *Containment) Name() string {
	return c.name
}

func (c *Containment) Observe(nodes []*springz.Node, conns []*springz.Connection, step int) {
	c.samples++
	for _, n := range nodes {
		if n.X+n.Radius > c.width || n.X-n.Radius < -c.width ||
			n.Y+n.Radius > c.height || n.Y-n.Radius < -c.height {
			c.violations++
			break
		}
	}
}

func (c *Containment) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

func (c *Containment) Reset() {
	c.violations = 0
	c.samples = 0
}
