package springz_test

import (
	"io"
	"math"

	"github.com/charmbracelet/log"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/springz/internal/springz"
)

var _ = Describe("Collection", func() {
	var c *springz.Collection

	newCollection := func(mutate func(*springz.Options)) *springz.Collection {
		opts := springz.DefaultOptions()
		opts.Seed = 11
		opts.Logger = log.New(io.Discard)
		if mutate != nil {
			mutate(&opts)
		}
		return springz.New(opts)
	}

	BeforeEach(func() {
		c = newCollection(nil)
	})

	Describe("locked nodes", func() {
		It("keep their position across many steps", func() {
			anchor := c.CreateNode(springz.NodeOptions{X: -20, Y: 15, Radius: 4, Locked: true})
			for i := 0; i < 6; i++ {
				n := c.CreateNode(springz.NodeOptions{X: float64(i * 13), Y: float64(i*7 - 9), Radius: 3})
				_, err := c.CreateConnection(anchor, n, springz.ConnectionOptions{Force: 0.01, Active: true, Distance: 10})
				Expect(err).NotTo(HaveOccurred())
			}
			c.AvoidCollisions = true

			for i := 0; i < 200; i++ {
				c.Simulate(nil)
				Expect(anchor.X).To(Equal(-20.0))
				Expect(anchor.Y).To(Equal(15.0))
			}
		})
	})

	Describe("speed clamp", func() {
		It("bounds every velocity component after each step", func() {
			c.MaxSpeed = 3
			prev := c.CreateNode(springz.NodeOptions{})
			for i := 1; i < 10; i++ {
				n := c.CreateNode(springz.NodeOptions{X: float64(i * 100), Y: float64(-i * 70)})
				_, err := c.CreateConnection(prev, n, springz.ConnectionOptions{Force: 2, Active: true})
				Expect(err).NotTo(HaveOccurred())
				prev = n
			}

			for i := 0; i < 25; i++ {
				c.Simulate(func(nodes []*springz.Node, _ []*springz.Connection) {
					for _, n := range nodes {
						Expect(math.Abs(n.VX)).To(BeNumerically("<=", 3))
						Expect(math.Abs(n.VY)).To(BeNumerically("<=", 3))
					}
				})
			}
		})
	})

	Describe("endpoint order", func() {
		run := func(reverse bool) (a, b *springz.Node) {
			col := newCollection(func(o *springz.Options) {
				o.Masses = true
				o.Glide = 0
			})
			a = col.CreateNode(springz.NodeOptions{X: 1, Y: 2, Mass: 5})
			b = col.CreateNode(springz.NodeOptions{X: 21, Y: 17, Mass: 2})
			opts := springz.ConnectionOptions{Force: 0.7, Active: true, Distance: 4}
			if reverse {
				_, _ = col.CreateConnection(b, a, opts)
			} else {
				_, _ = col.CreateConnection(a, b, opts)
			}
			col.Simulate(nil)
			return a, b
		}

		It("does not change the outcome", func() {
			a1, b1 := run(false)
			a2, b2 := run(true)

			Expect(a1.X).To(BeNumerically("~", a2.X, 1e-9))
			Expect(a1.Y).To(BeNumerically("~", a2.Y, 1e-9))
			Expect(b1.X).To(BeNumerically("~", b2.X, 1e-9))
			Expect(b1.Y).To(BeNumerically("~", b2.Y, 1e-9))
		})
	})

	Describe("registry", func() {
		var a, b, d *springz.Node

		BeforeEach(func() {
			a = c.CreateNode(springz.NodeOptions{Obj: "a"})
			b = c.CreateNode(springz.NodeOptions{Obj: "b", X: 5})
			d = c.CreateNode(springz.NodeOptions{Obj: "d", Y: 5})
			_, err := c.CreateConnection(a, b, springz.DefaultConnectionOptions())
			Expect(err).NotTo(HaveOccurred())
		})

		It("leaves everything untouched when disconnecting an unconnected pair", func() {
			nodes, conns := c.Nodes(), c.Connections()

			removed, ok := c.Disconnect(a, d)

			Expect(ok).To(BeFalse())
			Expect(removed).To(BeNil())
			Expect(c.Nodes()).To(Equal(nodes))
			Expect(c.Connections()).To(Equal(conns))
		})

		It("keeps one connection per pair with the latest configuration", func() {
			_, err := c.CreateConnection(b, a, springz.ConnectionOptions{Force: 3, Active: true, Distance: 12})
			Expect(err).NotTo(HaveOccurred())

			var between []*springz.Connection
			for _, conn := range c.Connections() {
				if conn.Joins(a, b) {
					between = append(between, conn)
				}
			}
			Expect(between).To(HaveLen(1))
			Expect(between[0].Force).To(Equal(3.0))
			Expect(between[0].Distance).To(Equal(12.0))
		})

		It("drops every connection touching a removed node", func() {
			_, _ = c.CreateConnection(d, a, springz.DefaultConnectionOptions())
			_, _ = c.CreateConnection(b, d, springz.DefaultConnectionOptions())

			Expect(c.RemoveNode(a)).To(BeTrue())

			for _, conn := range c.Connections() {
				Expect(conn.Touches(a)).To(BeFalse())
			}
			Expect(c.Connections()).To(HaveLen(1))
		})

		It("rejects nodes from another collection without mutating", func() {
			other := newCollection(nil).CreateNode(springz.NodeOptions{})

			_, err := c.CreateConnection(a, other, springz.DefaultConnectionOptions())

			Expect(err).To(MatchError(springz.ErrForeignNode))
			Expect(c.Connections()).To(HaveLen(1))
		})
	})

	Describe("scenarios", func() {
		It("pulls a stretched pair toward each other symmetrically", func() {
			col := newCollection(func(o *springz.Options) { o.Glide = 0 })
			a := col.CreateNode(springz.NodeOptions{X: 0, Y: 0})
			b := col.CreateNode(springz.NodeOptions{X: 10, Y: 0})
			_, err := col.CreateConnection(a, b, springz.ConnectionOptions{Force: 1, Active: true, Distance: 5})
			Expect(err).NotTo(HaveOccurred())

			col.Simulate(nil)

			Expect(a.VX).To(BeNumerically(">", 0))
			Expect(b.VX).To(BeNumerically("<", 0))
			Expect(a.X - 0).To(BeNumerically("~", 10-b.X, 1e-9))
		})

		It("fits a node inside the bounds", func() {
			n := c.CreateNode(springz.NodeOptions{X: 150, Radius: 10})
			c.FitWithin(100, 100)
			Expect(n.X).To(Equal(90.0))
		})

		It("moves the lighter node three times as far", func() {
			col := newCollection(func(o *springz.Options) {
				o.Masses = true
				o.Glide = 0
			})
			heavy := col.CreateNode(springz.NodeOptions{X: 0, Y: 0, Mass: 300})
			light := col.CreateNode(springz.NodeOptions{X: 12, Y: 5, Mass: 100})
			_, err := col.CreateConnection(heavy, light, springz.DefaultConnectionOptions())
			Expect(err).NotTo(HaveOccurred())

			col.Simulate(nil)

			heavyMoved := math.Hypot(heavy.X, heavy.Y)
			lightMoved := math.Hypot(light.X-12, light.Y-5)
			Expect(lightMoved / heavyMoved).To(BeNumerically("~", 3, 1e-9))
		})
	})

	DescribeTable("uncollide respects locks",
		func(lockA, lockB bool, wantAX, wantBX float64) {
			a := c.CreateNode(springz.NodeOptions{X: 0, Radius: 4, Locked: lockA})
			b := c.CreateNode(springz.NodeOptions{X: 4, Radius: 4, Locked: lockB})

			c.Uncollide(nil)

			Expect(a.X).To(BeNumerically("~", wantAX, 1e-9))
			Expect(b.X).To(BeNumerically("~", wantBX, 1e-9))
		},
		Entry("neither locked", false, false, -2.0, 6.0),
		Entry("first locked", true, false, 0.0, 8.0),
		Entry("second locked", false, true, -4.0, 4.0),
		Entry("both locked", true, true, 0.0, 4.0),
	)
})
