package springz

import "math"

// Simulate applies every active connection once, then clamps and
// integrates every node. Connections and nodes are both visited last
// created first; with a low Glide the order decides which contribution
// dominates a node touched by several connections. Locked nodes keep
// their accumulated velocity but their position is never integrated.
// When AvoidCollisions is set an uncollide pass follows. fn, if non-nil,
// receives the nodes and connections afterwards.
func (c *Collection) Simulate(fn StepFunc) {
	for i := len(c.connections) - 1; i >= 0; i-- {
		c.applyConnection(c.connections[i])
	}

	for i := len(c.nodes) - 1; i >= 0; i-- {
		n := c.nodes[i]
		n.VX = clampSpeed(n.VX, c.MaxSpeed)
		n.VY = clampSpeed(n.VY, c.MaxSpeed)
		if n.Locked {
			continue
		}
		n.X += n.VX
		n.Y += n.VY
	}

	if c.AvoidCollisions {
		c.uncollide()
	}
	c.notify(fn)
}

func (c *Collection) applyConnection(conn *Connection) {
	n1, n2 := conn.node1, conn.node2
	if !conn.Active || (n1.Locked && n2.Locked) {
		return
	}

	// Exactly coincident axes get a random offset so the pair can separate.
	dx := n2.X - n1.X
	if dx == 0 {
		dx = c.jitter()
	}
	dy := n2.Y - n1.Y
	if dy == 0 {
		dy = c.jitter()
	}

	distance := math.Sqrt(dx*dx + dy*dy)
	deviation := distance - (conn.Distance + n1.Radius + n2.Radius)

	magnitude := deviation
	if conn.Force <= 0 {
		magnitude = 1 / math.Pow(distance, 0.2)
	}
	force := magnitude * c.Scale * conn.Force * 0.5

	share1, share2 := force/2, force/2
	if c.Masses {
		w1 := massWeight(n1, n2)
		share1 = w1 * force
		share2 = (1 - w1) * force
	}

	n1.VX = n1.VX*c.Glide + dx*share2
	n1.VY = n1.VY*c.Glide + dy*share2
	n2.VX = n2.VX*c.Glide - dx*share1
	n2.VY = n2.VY*c.Glide - dy*share1
}

// massWeight is n1's fraction of the pair's combined effective mass. A
// locked endpoint takes the whole fraction; two massless nodes split it.
func massWeight(n1, n2 *Node) float64 {
	switch {
	case n1.Locked:
		return 1
	case n2.Locked:
		return 0
	}
	m1, m2 := n1.EffectiveMass(), n2.EffectiveMass()
	if m1+m2 == 0 {
		return 0.5
	}
	return m1 / (m1 + m2)
}

// clampSpeed bounds v to [-max, max]; NaN becomes 0.
func clampSpeed(v, max float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v > max:
		return max
	case v < -max:
		return -max
	}
	return v
}
