package springz

// FitWithin clamps every node so that its radius stays inside
// [-width, width] x [-height, height]. Velocities are left untouched.
func (c *Collection) FitWithin(width, height float64) {
	for _, n := range c.nodes {
		if n.X > width-n.Radius {
			n.X = width - n.Radius
		} else if n.X < n.Radius-width {
			n.X = n.Radius - width
		}
		if n.Y > height-n.Radius {
			n.Y = height - n.Radius
		} else if n.Y < n.Radius-height {
			n.Y = n.Radius - height
		}
	}
}
