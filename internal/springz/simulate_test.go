package springz

import (
	"math"
	"testing"
)

const eps = 1e-9

func newPlainCollection(glide float64) *Collection {
	return New(Options{Scale: 1, Glide: glide, MaxSpeed: DefaultMaxSpeed, Seed: 7})
}

func TestSimulate_SpringPullsTogether(t *testing.T) {
	c := newPlainCollection(0)
	a := c.CreateNode(NodeOptions{X: 0, Y: 0})
	b := c.CreateNode(NodeOptions{X: 10, Y: 0})
	c.CreateConnection(a, b, ConnectionOptions{Force: 1, Active: true, Distance: 5})

	c.Simulate(nil)

	if a.VX <= 0 || b.VX >= 0 {
		t.Fatalf("velocities point apart: a.VX=%v b.VX=%v", a.VX, b.VX)
	}
	if math.Abs(a.X-(10-b.X)) > eps {
		t.Errorf("asymmetric x displacement: a moved %v, b moved %v", a.X, 10-b.X)
	}
	if math.Abs(a.Y+b.Y) > eps {
		t.Errorf("asymmetric y displacement: a.Y=%v b.Y=%v", a.Y, b.Y)
	}
	// deviation ~5, force = 5*0.5, each endpoint takes half of dx*force.
	if math.Abs(a.X-12.5) > 0.05 {
		t.Errorf("a.X = %v, want ~12.5", a.X)
	}
}

func TestSimulate_TooCloseSpringPushesApart(t *testing.T) {
	c := newPlainCollection(0)
	a := c.CreateNode(NodeOptions{X: 0, Y: 0, Radius: 2})
	b := c.CreateNode(NodeOptions{X: 3, Y: 4, Radius: 2})
	c.CreateConnection(a, b, ConnectionOptions{Force: 1, Active: true, Distance: 6})

	c.Simulate(nil)

	// distance 5, target 10, deviation -5: force -2.5, share -1.25.
	wantVX, wantVY := 3*-1.25, 4*-1.25
	if math.Abs(a.VX-wantVX) > eps || math.Abs(a.VY-wantVY) > eps {
		t.Errorf("a velocity = (%v, %v), want (%v, %v)", a.VX, a.VY, wantVX, wantVY)
	}
	if math.Abs(b.VX+wantVX) > eps || math.Abs(b.VY+wantVY) > eps {
		t.Errorf("b velocity = (%v, %v), want (%v, %v)", b.VX, b.VY, -wantVX, -wantVY)
	}
}

func TestSimulate_NonPositiveForceRepels(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
	}{
		{"far beyond target", 0},
		{"inside target", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newPlainCollection(0)
			a := c.CreateNode(NodeOptions{X: 0, Y: 0})
			b := c.CreateNode(NodeOptions{X: 10, Y: 5})
			c.CreateConnection(a, b, ConnectionOptions{Force: -1, Active: true, Distance: tt.distance})

			c.Simulate(nil)

			dist := math.Hypot(10, 5)
			share := -0.25 / math.Pow(dist, 0.2)
			if math.Abs(a.VX-10*share) > eps {
				t.Errorf("a.VX = %v, want %v", a.VX, 10*share)
			}
			if a.X >= 0 || b.X <= 10 {
				t.Errorf("nodes did not separate: a.X=%v b.X=%v", a.X, b.X)
			}
		})
	}
}

func TestSimulate_SkipsInactiveAndDoublyLocked(t *testing.T) {
	tests := []struct {
		name   string
		active bool
		lockA  bool
		lockB  bool
	}{
		{"inactive", false, false, false},
		{"both locked", true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newPlainCollection(0.5)
			a := c.CreateNode(NodeOptions{X: 0, Y: 0, Locked: tt.lockA})
			b := c.CreateNode(NodeOptions{X: 30, Y: 40, Locked: tt.lockB})
			c.CreateConnection(a, b, ConnectionOptions{Force: 1, Active: tt.active})

			c.Simulate(nil)

			if a.VX != 0 || a.VY != 0 || b.VX != 0 || b.VY != 0 {
				t.Errorf("velocities changed: a=(%v,%v) b=(%v,%v)", a.VX, a.VY, b.VX, b.VY)
			}
		})
	}
}

func TestSimulate_MassWeightedSplit(t *testing.T) {
	c := New(Options{Masses: true, Scale: 1, MaxSpeed: DefaultMaxSpeed, Seed: 1})
	heavy := c.CreateNode(NodeOptions{X: 0, Y: 0, Mass: 300})
	light := c.CreateNode(NodeOptions{X: 6, Y: 8, Mass: 100})
	c.CreateConnection(heavy, light, ConnectionOptions{Force: 1, Active: true})

	c.Simulate(nil)

	heavyMoved := math.Hypot(heavy.X, heavy.Y)
	lightMoved := math.Hypot(light.X-6, light.Y-8)
	if math.Abs(lightMoved/heavyMoved-3) > 1e-9 {
		t.Errorf("light/heavy displacement = %v, want 3", lightMoved/heavyMoved)
	}
}

func TestSimulate_LockedPartnerTakesNoShare(t *testing.T) {
	c := New(Options{Masses: true, Scale: 1, MaxSpeed: DefaultMaxSpeed, Seed: 1})
	anchor := c.CreateNode(NodeOptions{X: 0, Y: 0, Locked: true})
	free := c.CreateNode(NodeOptions{X: 6, Y: 8, Radius: 2})
	c.CreateConnection(anchor, free, ConnectionOptions{Force: 1, Active: true})

	c.Simulate(nil)

	if anchor.VX != 0 || anchor.VY != 0 {
		t.Errorf("locked velocity = (%v, %v), want zero", anchor.VX, anchor.VY)
	}
	// deviation 8, force 4, the free node takes all of it.
	if math.Abs(free.VX-(-6*4)) > eps || math.Abs(free.VY-(-8*4)) > eps {
		t.Errorf("free velocity = (%v, %v), want (-24, -32)", free.VX, free.VY)
	}
	if math.IsNaN(free.X) || math.IsNaN(free.Y) {
		t.Fatal("free node position is NaN")
	}
}

func TestSimulate_MasslessPairSplitsEvenly(t *testing.T) {
	c := New(Options{Masses: true, Scale: 1, MaxSpeed: DefaultMaxSpeed, Seed: 1})
	a := c.CreateNode(NodeOptions{X: 0, Y: 0})
	b := c.CreateNode(NodeOptions{X: 6, Y: 8})
	c.CreateConnection(a, b, ConnectionOptions{Force: 1, Active: true})

	c.Simulate(nil)

	if math.IsNaN(a.VX) || math.Abs(a.VX+b.VX) > eps || math.Abs(a.VY+b.VY) > eps {
		t.Errorf("uneven split: a=(%v,%v) b=(%v,%v)", a.VX, a.VY, b.VX, b.VY)
	}
}

func TestSimulate_LowGlideKeepsLastProcessedContribution(t *testing.T) {
	build := func(withSecond bool) *Node {
		c := newPlainCollection(0)
		a := c.CreateNode(NodeOptions{X: 0, Y: 0})
		b := c.CreateNode(NodeOptions{X: 10, Y: 5})
		c.CreateConnection(a, b, ConnectionOptions{Force: 1, Active: true})
		if withSecond {
			d := c.CreateNode(NodeOptions{X: 40, Y: 12})
			c.CreateConnection(b, d, ConnectionOptions{Force: 1, Active: true})
		}
		c.Simulate(nil)
		return b
	}

	alone := build(false)
	shared := build(true)

	// Connections run newest first, so a-b is applied last and with zero
	// glide overwrites the b-d contribution entirely.
	if alone.VX != shared.VX || alone.VY != shared.VY {
		t.Errorf("shared node velocity = (%v, %v), want (%v, %v)", shared.VX, shared.VY, alone.VX, alone.VY)
	}
}

func TestSimulate_GlideDampsPreviousVelocity(t *testing.T) {
	c := newPlainCollection(0.5)
	a := c.CreateNode(NodeOptions{X: 0, Y: 0})
	a.VX, a.VY = 8, -4
	c.Simulate(nil)

	if a.VX != 8 || a.VY != -4 {
		t.Errorf("unconnected node velocity changed to (%v, %v)", a.VX, a.VY)
	}
	if a.X != 8 || a.Y != -4 {
		t.Errorf("position = (%v, %v), want (8, -4)", a.X, a.Y)
	}

	b := c.CreateNode(NodeOptions{X: 30, Y: 40})
	c.CreateConnection(a, b, ConnectionOptions{Force: 1, Active: true, Distance: math.Hypot(22, 44)})
	c.Simulate(nil)

	if math.Abs(a.VX-4) > 1e-6 || math.Abs(a.VY+2) > 1e-6 {
		t.Errorf("damped velocity = (%v, %v), want (4, -2)", a.VX, a.VY)
	}
}

func TestSimulate_LockedNodeDoesNotMove(t *testing.T) {
	c := newPlainCollection(0.5)
	anchor := c.CreateNode(NodeOptions{X: 5, Y: -3, Locked: true})
	free := c.CreateNode(NodeOptions{X: 40, Y: 25})
	c.CreateConnection(anchor, free, ConnectionOptions{Force: 1, Active: true, Distance: 10})

	for i := 0; i < 50; i++ {
		c.Simulate(nil)
	}

	if anchor.X != 5 || anchor.Y != -3 {
		t.Errorf("locked node moved to (%v, %v)", anchor.X, anchor.Y)
	}
	if anchor.VX == 0 && anchor.VY == 0 {
		t.Error("locked node should still accumulate velocity without masses")
	}
}

func TestSimulate_ClampsSpeed(t *testing.T) {
	c := New(Options{Scale: 10, Glide: 1, MaxSpeed: 20, Seed: 3})
	a := c.CreateNode(NodeOptions{X: 0, Y: 0})
	b := c.CreateNode(NodeOptions{X: 1000, Y: -700})
	c.CreateConnection(a, b, ConnectionOptions{Force: 5, Active: true})

	for i := 0; i < 10; i++ {
		c.Simulate(nil)
		for _, n := range c.Nodes() {
			if math.Abs(n.VX) > c.MaxSpeed || math.Abs(n.VY) > c.MaxSpeed {
				t.Fatalf("step %d: velocity (%v, %v) exceeds %v", i, n.VX, n.VY, c.MaxSpeed)
			}
		}
	}
	if a.VX != 20 || a.VY != -20 {
		t.Errorf("first-step velocity = (%v, %v), want (20, -20)", a.VX, a.VY)
	}
}

func TestClampSpeed(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		want float64
	}{
		{"inside", 3, 3},
		{"above", 150, 100},
		{"below", -150, -100},
		{"+Inf", math.Inf(1), 100},
		{"-Inf", math.Inf(-1), -100},
		{"NaN", math.NaN(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clampSpeed(tt.v, 100); got != tt.want {
				t.Errorf("clampSpeed(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestSimulate_CallbackGetsInsertionOrder(t *testing.T) {
	c := newPlainCollection(0)
	a := c.CreateNode(NodeOptions{})
	b := c.CreateNode(NodeOptions{X: 1, Y: 1})
	conn, _ := c.CreateConnection(a, b, DefaultConnectionOptions())

	calls := 0
	c.Simulate(func(nodes []*Node, conns []*Connection) {
		calls++
		if len(nodes) != 2 || nodes[0] != a || nodes[1] != b {
			t.Errorf("nodes = %v, want [a b]", nodes)
		}
		if len(conns) != 1 || conns[0] != conn {
			t.Errorf("connections = %v, want [conn]", conns)
		}
		nodes[0] = nil
	})

	if calls != 1 {
		t.Errorf("callback calls = %d, want 1", calls)
	}
	if c.Nodes()[0] != a {
		t.Error("callback mutation leaked into the collection")
	}
}

func TestSimulate_CoincidentEndpoints(t *testing.T) {
	tests := []struct {
		name      string
		force     float64
		wantApart bool
	}{
		{"spring", 1, true},
		{"no force", 0, false},
		{"repulsion", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newPlainCollection(0.5)
			a := c.CreateNode(NodeOptions{X: 5, Y: 5, Radius: 2})
			b := c.CreateNode(NodeOptions{X: 5, Y: 5, Radius: 2})
			if _, err := c.CreateConnection(a, b, ConnectionOptions{Force: tt.force, Active: true}); err != nil {
				t.Fatal(err)
			}

			for range 50 {
				c.Simulate(nil)
			}

			for _, n := range []*Node{a, b} {
				if math.IsNaN(n.X) || math.IsNaN(n.Y) || math.IsInf(n.X, 0) || math.IsInf(n.Y, 0) {
					t.Fatalf("node %d at (%v, %v), want finite", n.ID(), n.X, n.Y)
				}
			}

			d := math.Hypot(b.X-a.X, b.Y-a.Y)
			if tt.wantApart {
				if d <= 0 {
					t.Errorf("distance = %v, want > 0", d)
				}
				return
			}
			for _, n := range []*Node{a, b} {
				if math.Abs(n.X-5) > eps || math.Abs(n.Y-5) > eps {
					t.Errorf("node %d moved to (%v, %v), want (5, 5)", n.ID(), n.X, n.Y)
				}
			}
		})
	}
}

func TestSimulate_SameSeedSameTrajectory(t *testing.T) {
	run := func() []*Node {
		c := New(Options{Scale: 1, Glide: 0.5, MaxSpeed: DefaultMaxSpeed, Seed: 9})
		hub := c.CreateNode(NodeOptions{})
		for i := range 4 {
			leaf := c.CreateNode(NodeOptions{Radius: float64(i)})
			if _, err := c.CreateConnection(hub, leaf, DefaultConnectionOptions()); err != nil {
				t.Fatal(err)
			}
		}
		for range 20 {
			c.Simulate(nil)
		}
		return c.Nodes()
	}

	first, second := run(), run()
	for i := range first {
		if first[i].X != second[i].X || first[i].Y != second[i].Y {
			t.Errorf("node %d: (%v, %v) then (%v, %v), want identical runs",
				i, first[i].X, first[i].Y, second[i].X, second[i].Y)
		}
	}
}
