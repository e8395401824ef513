package springz

import "math"

// Uncollide makes one pass over every node pair and pushes overlapping
// nodes apart along the line between their centers. A locked node never
// moves, so its partner absorbs the whole separation; otherwise the
// separation is split evenly, or by effective mass when Masses is set.
// Later pairs can reintroduce overlap, so callers wanting a cleaner result
// call it repeatedly. It returns the number of pairs it separated.
func (c *Collection) Uncollide(fn StepFunc) int {
	resolved := c.uncollide()
	c.notify(fn)
	return resolved
}

func (c *Collection) uncollide() int {
	resolved := 0
	for i, a := range c.nodes {
		for _, b := range c.nodes[i+1:] {
			if a.Locked && b.Locked {
				continue
			}
			minDist := a.Radius + b.Radius
			if minDist <= 0 {
				continue
			}

			dx, dy := b.X-a.X, b.Y-a.Y
			dist := math.Hypot(dx, dy)
			if dist >= minDist {
				continue
			}

			overlap := minDist - dist
			if dist == 0 {
				dx, dy = c.jitter(), c.jitter()
				dist = math.Hypot(dx, dy)
			}
			ux, uy := dx/dist, dy/dist
			share := separationShare(a, b, c.Masses)

			a.X -= ux * overlap * share
			a.Y -= uy * overlap * share
			b.X += ux * overlap * (1 - share)
			b.Y += uy * overlap * (1 - share)
			resolved++
		}
	}
	return resolved
}

// separationShare is the fraction of an overlap that a absorbs.
func separationShare(a, b *Node, masses bool) float64 {
	switch {
	case a.Locked:
		return 0
	case b.Locked:
		return 1
	case masses:
		return 1 - massWeight(a, b)
	}
	return 0.5
}
