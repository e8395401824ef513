package springz

import (
	"fmt"
	"math"
	"reflect"
)

// Node is a point mass owned by a Collection.
type Node struct {
	// Obj is an opaque reference supplied by the caller, never read by the
	// simulation.
	Obj any

	X, Y   float64
	VX, VY float64

	// Mass is used when the collection weighs by mass. Zero means Radius².
	Mass   float64
	Radius float64

	// Locked nodes are never moved by Simulate or Uncollide. FitWithin
	// still clamps them.
	Locked bool

	id    int
	owner *Collection
}

// ID returns the identity assigned when the node was created.
func (n *Node) ID() int { return n.id }

// Label names the node for display: Obj when it is a string or a non-nil
// fmt.Stringer, otherwise "n" followed by the id.
func (n *Node) Label() string {
	switch v := n.Obj.(type) {
	case string:
		return v
	case fmt.Stringer:
		if rv := reflect.ValueOf(v); !isNilable(rv.Kind()) || !rv.IsNil() {
			return v.String()
		}
	}
	return fmt.Sprintf("n%d", n.id)
}

func isNilable(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return true
	}
	return false
}

// EffectiveMass is the mass used for weighting: infinite when locked,
// Mass when set, otherwise Radius².
func (n *Node) EffectiveMass() float64 {
	if n.Locked {
		return math.Inf(1)
	}
	if n.Mass != 0 {
		return n.Mass
	}
	return n.Radius * n.Radius
}

// Connection is a spring between two nodes. Its endpoints are fixed at
// creation; reconnecting requires Disconnect followed by CreateConnection.
type Connection struct {
	// Force is the spring coefficient. Non-positive values turn the
	// connection into a slowly decaying pure repulsion.
	Force float64

	// Active connections take part in Simulate.
	Active bool

	// Distance is the desired gap between the node surfaces.
	Distance float64

	id           int
	node1, node2 *Node
}

// ID returns the identity assigned when the connection was created.
func (c *Connection) ID() int { return c.id }

func (c *Connection) Node1() *Node { return c.node1 }
func (c *Connection) Node2() *Node { return c.node2 }

// Joins reports whether the connection links a and b in either orientation.
func (c *Connection) Joins(a, b *Node) bool {
	return (c.node1 == a && c.node2 == b) || (c.node1 == b && c.node2 == a)
}

// Touches reports whether n is one of the connection's endpoints.
func (c *Connection) Touches(n *Node) bool {
	return c.node1 == n || c.node2 == n
}

// TargetDistance is the desired center-to-center distance.
func (c *Connection) TargetDistance() float64 {
	return c.Distance + c.node1.Radius + c.node2.Radius
}

// Deviation is the current center distance minus the target distance.
// Positive means the endpoints are too far apart.
func (c *Connection) Deviation() float64 {
	return math.Hypot(c.node2.X-c.node1.X, c.node2.Y-c.node1.Y) - c.TargetDistance()
}

// StepFunc receives the collection's nodes and connections in insertion
// order after a sweep. The slices are copies; the nodes are not.
type StepFunc func(nodes []*Node, conns []*Connection)
