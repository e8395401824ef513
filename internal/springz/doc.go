// Package springz relaxes a set of point masses joined by spring-like
// connections toward a layout that honours each connection's target gap.
//
// A Collection owns every Node and Connection. Each call to Simulate runs
// one force sweep over the active connections (last created first), then
// clamps and integrates every node (last created first). Velocities are
// damped pseudo-forces rather than Newtonian momentum: Glide scales the
// previous velocity before each new contribution is added.
//
// Typical use:
//
//	c := springz.New(springz.DefaultOptions())
//	a := c.CreateNode(springz.NodeOptions{X: 0, Y: 0, Radius: 4})
//	b := c.CreateNode(springz.NodeOptions{X: 50, Y: 0, Radius: 4})
//	if _, err := c.CreateConnection(a, b, springz.DefaultConnectionOptions()); err != nil {
//		return err
//	}
//	for i := 0; i < 100; i++ {
//		c.Simulate(nil)
//	}
//	c.FitWithin(200, 100)
//
// A Collection is not safe for concurrent use.
package springz
