package springz

import (
	"math"
	"testing"
)

func TestUncollide_Pairs(t *testing.T) {
	tests := []struct {
		name         string
		masses       bool
		a, b         NodeOptions
		wantResolved int
		wantAX       float64
		wantBX       float64
	}{
		{
			name:         "even split",
			a:            NodeOptions{X: 0, Radius: 5},
			b:            NodeOptions{X: 6, Radius: 5},
			wantResolved: 1, wantAX: -2, wantBX: 8,
		},
		{
			name:         "locked first",
			a:            NodeOptions{X: 0, Radius: 5, Locked: true},
			b:            NodeOptions{X: 6, Radius: 5},
			wantResolved: 1, wantAX: 0, wantBX: 10,
		},
		{
			name:         "locked second",
			a:            NodeOptions{X: 0, Radius: 5},
			b:            NodeOptions{X: 6, Radius: 5, Locked: true},
			wantResolved: 1, wantAX: -4, wantBX: 6,
		},
		{
			name:         "mass weighted",
			masses:       true,
			a:            NodeOptions{X: 0, Radius: 5, Mass: 300},
			b:            NodeOptions{X: 6, Radius: 5, Mass: 100},
			wantResolved: 1, wantAX: -1, wantBX: 9,
		},
		{
			name:         "both locked",
			a:            NodeOptions{X: 0, Radius: 5, Locked: true},
			b:            NodeOptions{X: 6, Radius: 5, Locked: true},
			wantResolved: 0, wantAX: 0, wantBX: 6,
		},
		{
			name:         "touching",
			a:            NodeOptions{X: 0, Radius: 3},
			b:            NodeOptions{X: 6, Radius: 3},
			wantResolved: 0, wantAX: 0, wantBX: 6,
		},
		{
			name:         "points",
			a:            NodeOptions{X: 2},
			b:            NodeOptions{X: 2},
			wantResolved: 0, wantAX: 2, wantBX: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(Options{Masses: tt.masses, Scale: 1, Seed: 1})
			a := c.CreateNode(tt.a)
			b := c.CreateNode(tt.b)

			got := c.Uncollide(nil)

			if got != tt.wantResolved {
				t.Errorf("resolved = %d, want %d", got, tt.wantResolved)
			}
			if math.Abs(a.X-tt.wantAX) > eps || math.Abs(b.X-tt.wantBX) > eps {
				t.Errorf("x = (%v, %v), want (%v, %v)", a.X, b.X, tt.wantAX, tt.wantBX)
			}
			if a.Y != 0 || b.Y != 0 {
				t.Errorf("y drifted: (%v, %v)", a.Y, b.Y)
			}
		})
	}
}

func TestUncollide_CoincidentNodesSeparate(t *testing.T) {
	c := New(Options{Scale: 1, Seed: 42})
	a := c.CreateNode(NodeOptions{X: 3, Y: 3, Radius: 5})
	b := c.CreateNode(NodeOptions{X: 3, Y: 3, Radius: 5})

	if got := c.Uncollide(nil); got != 1 {
		t.Fatalf("resolved = %d, want 1", got)
	}

	if d := math.Hypot(b.X-a.X, b.Y-a.Y); math.Abs(d-10) > 1e-9 {
		t.Errorf("separation = %v, want 10", d)
	}
}

func TestUncollide_InvokesCallback(t *testing.T) {
	c := New(Options{Scale: 1, Seed: 1})
	c.CreateNode(NodeOptions{Radius: 1})

	called := false
	c.Uncollide(func(nodes []*Node, conns []*Connection) {
		called = len(nodes) == 1 && len(conns) == 0
	})

	if !called {
		t.Error("callback not invoked with the collection contents")
	}
}

func TestSimulate_AvoidCollisions(t *testing.T) {
	c := New(Options{Scale: 1, AvoidCollisions: true, Seed: 1})
	a := c.CreateNode(NodeOptions{X: 0, Radius: 5})
	b := c.CreateNode(NodeOptions{X: 6, Radius: 5})

	c.Simulate(nil)

	if math.Abs(a.X+2) > eps || math.Abs(b.X-8) > eps {
		t.Errorf("x = (%v, %v), want (-2, 8)", a.X, b.X)
	}
}
