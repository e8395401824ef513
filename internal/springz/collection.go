package springz

import (
	"math"
	"math/rand"
	"slices"
	"time"

	"github.com/charmbracelet/log"
)

// Collection owns a set of nodes and the connections between them, plus
// the parameters shared by every step. Fields may be changed between steps.
type Collection struct {
	Masses          bool
	Scale           float64
	Glide           float64
	MaxSpeed        float64
	AvoidCollisions bool

	nodes          []*Node
	connections    []*Connection
	nodeByID       map[int]*Node
	connectionByID map[int]*Connection
	nextNodeID     int
	nextConnID     int

	rng    *rand.Rand
	logger *log.Logger
}

// New creates an empty collection.
func New(opts Options) *Collection {
	maxSpeed := opts.MaxSpeed
	if !(maxSpeed > 0) || math.IsInf(maxSpeed, 1) {
		maxSpeed = DefaultMaxSpeed
	}
	scale := opts.Scale
	if scale == 0 || math.IsNaN(scale) {
		scale = DefaultScale
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Collection{
		Masses:          opts.Masses,
		Scale:           scale,
		Glide:           clampGlide(opts.Glide),
		MaxSpeed:        maxSpeed,
		AvoidCollisions: opts.AvoidCollisions,
		nodeByID:        make(map[int]*Node),
		connectionByID:  make(map[int]*Connection),
		rng:             rand.New(rand.NewSource(seed)),
		logger:          logger,
	}
}

// CreateNode adds a node built from opts and returns it.
func (c *Collection) CreateNode(opts NodeOptions) *Node {
	n := &Node{
		Obj:    opts.Obj,
		X:      opts.X,
		Y:      opts.Y,
		Mass:   opts.Mass,
		Radius: opts.Radius,
		Locked: opts.Locked,
		id:     c.nextNodeID,
		owner:  c,
	}
	c.nextNodeID++
	c.nodes = append(c.nodes, n)
	c.nodeByID[n.id] = n
	return n
}

// CreateConnection joins n1 and n2, replacing any connection already
// between them. Both nodes must belong to c. On error nothing changes.
func (c *Collection) CreateConnection(n1, n2 *Node, opts ConnectionOptions) (*Connection, error) {
	if err := c.checkPair(n1, n2); err != nil {
		c.logger.Error("connect rejected", "err", err, "node1", nodeID(n1), "node2", nodeID(n2))
		return nil, err
	}

	c.Disconnect(n1, n2)

	conn := &Connection{
		Force:    opts.Force,
		Active:   opts.Active,
		Distance: opts.Distance,
		id:       c.nextConnID,
		node1:    n1,
		node2:    n2,
	}
	c.nextConnID++
	c.connections = append(c.connections, conn)
	c.connectionByID[conn.id] = conn
	return conn, nil
}

// Disconnect removes the connection between n1 and n2 in either
// orientation. It reports false when no such connection exists.
func (c *Collection) Disconnect(n1, n2 *Node) (*Connection, bool) {
	for i := len(c.connections) - 1; i >= 0; i-- {
		conn := c.connections[i]
		if !conn.Joins(n1, n2) {
			continue
		}
		delete(c.connectionByID, conn.id)
		c.connections = slices.Delete(c.connections, i, i+1)
		return conn, true
	}
	return nil, false
}

// RemoveNode removes n and every connection touching it. It reports false
// when n does not belong to c.
func (c *Collection) RemoveNode(n *Node) bool {
	if !c.owns(n) {
		return false
	}

	delete(c.nodeByID, n.id)
	if i := slices.Index(c.nodes, n); i >= 0 {
		c.nodes = slices.Delete(c.nodes, i, i+1)
	}
	n.owner = nil

	for i := len(c.connections) - 1; i >= 0; i-- {
		conn := c.connections[i]
		if conn.Touches(n) {
			delete(c.connectionByID, conn.id)
			c.connections = slices.Delete(c.connections, i, i+1)
		}
	}
	return true
}

// Nodes returns the nodes in insertion order.
func (c *Collection) Nodes() []*Node { return slices.Clone(c.nodes) }

// Connections returns the connections in insertion order.
func (c *Collection) Connections() []*Connection { return slices.Clone(c.connections) }

func (c *Collection) NodeByID(id int) (*Node, bool) {
	n, ok := c.nodeByID[id]
	return n, ok
}

func (c *Collection) ConnectionByID(id int) (*Connection, bool) {
	conn, ok := c.connectionByID[id]
	return conn, ok
}

func (c *Collection) NumNodes() int       { return len(c.nodes) }
func (c *Collection) NumConnections() int { return len(c.connections) }

func (c *Collection) owns(n *Node) bool {
	return n != nil && n.owner == c && c.nodeByID[n.id] == n
}

func (c *Collection) checkPair(n1, n2 *Node) error {
	switch {
	case n1 == nil || n2 == nil:
		return ErrNilNode
	case !c.owns(n1) || !c.owns(n2):
		return ErrForeignNode
	case n1 == n2:
		return ErrSelfConnection
	}
	return nil
}

func (c *Collection) notify(fn StepFunc) {
	if fn != nil {
		fn(c.Nodes(), c.Connections())
	}
}

// jitter returns a non-zero value in [-0.5, 0.5).
func (c *Collection) jitter() float64 {
	for {
		if v := c.rng.Float64() - 0.5; v != 0 {
			return v
		}
	}
}

func nodeID(n *Node) int {
	if n == nil {
		return -1
	}
	return n.id
}
