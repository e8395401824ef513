package config

import (
	"fmt"
	"math"
	"sort"
)

var Presets = map[string]func() *Scene{
	"chain":   func() *Scene { return chainScene(8) },
	"ring":    func() *Scene { return ringScene(12) },
	"star":    func() *Scene { return starScene(10) },
	"grid":    func() *Scene { return gridScene(4, 4) },
	"cluster": func() *Scene { return clusterScene(6) },
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Scene {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ptr[T any](v T) *T { return &v }

func nodeName(prefix string, i int) string {
	return fmt.Sprintf("%s%d", prefix, i)
}

// chainScene starts n nodes bunched together so the springs unfold them.
func chainScene(n int) *Scene {
	s := DefaultScene()
	s.Name = "chain"
	s.Collection.Seed = 1
	for i := 0; i < n; i++ {
		s.Nodes = append(s.Nodes, NodeConfig{
			Name:   nodeName("n", i),
			X:      float64(i)*3 - float64(n),
			Y:      float64(i%2) * 2,
			Radius: 2,
			Locked: i == 0,
		})
		if i > 0 {
			s.Connections = append(s.Connections, ConnectionConfig{
				From: nodeName("n", i-1), To: nodeName("n", i), Force: ptr(0.05), Distance: 10,
			})
		}
	}
	return s
}

func ringScene(n int) *Scene {
	s := DefaultScene()
	s.Name = "ring"
	s.Collection.Seed = 2
	s.Collection.AvoidCollisions = true
	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(n)
		s.Nodes = append(s.Nodes, NodeConfig{
			Name:   nodeName("r", i),
			X:      8 * math.Cos(angle),
			Y:      8 * math.Sin(angle),
			Radius: 2,
		})
	}
	for i := 0; i < n; i++ {
		s.Connections = append(s.Connections, ConnectionConfig{
			From: nodeName("r", i), To: nodeName("r", (i+1)%n), Force: ptr(0.05), Distance: 12,
		})
		if i < n/2 {
			s.Connections = append(s.Connections, ConnectionConfig{
				From: nodeName("r", i), To: nodeName("r", i+n/2), Force: ptr(-2.0),
			})
		}
	}
	return s
}

// starScene pins a hub at the origin with leaves on springs around it.
func starScene(n int) *Scene {
	s := DefaultScene()
	s.Name = "star"
	s.Collection.Seed = 3
	s.Collection.AvoidCollisions = true
	s.Nodes = append(s.Nodes, NodeConfig{Name: "hub", Radius: 6, Locked: true})
	for i := 0; i < n; i++ {
		s.Nodes = append(s.Nodes, NodeConfig{
			Name:   nodeName("leaf", i),
			X:      float64(i%5)*4 - 8,
			Y:      float64(i/5)*4 - 2,
			Radius: 3,
		})
		s.Connections = append(s.Connections, ConnectionConfig{
			From: "hub", To: nodeName("leaf", i), Force: ptr(0.04), Distance: 25,
		})
	}
	return s
}

func gridScene(cols, rows int) *Scene {
	s := DefaultScene()
	s.Name = "grid"
	s.Collection.Seed = 4
	s.Collection.Glide = 0.3
	name := func(c, r int) string { return fmt.Sprintf("g%d_%d", c, r) }
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			s.Nodes = append(s.Nodes, NodeConfig{
				Name:   name(c, r),
				X:      float64(c*7 + r),
				Y:      float64(r*3 - c),
				Radius: 2,
			})
			if c > 0 {
				s.Connections = append(s.Connections, ConnectionConfig{
					From: name(c-1, r), To: name(c, r), Force: ptr(0.05), Distance: 16,
				})
			}
			if r > 0 {
				s.Connections = append(s.Connections, ConnectionConfig{
					From: name(c, r-1), To: name(c, r), Force: ptr(0.05), Distance: 16,
				})
			}
		}
	}
	return s
}

// clusterScene builds two heavy hubs with light satellites, weighted by mass.
func clusterScene(perHub int) *Scene {
	s := DefaultScene()
	s.Name = "cluster"
	s.Collection.Seed = 5
	s.Collection.Masses = true
	s.Collection.AvoidCollisions = true
	for h, x := range []float64{-10, 10} {
		hub := nodeName("hub", h)
		s.Nodes = append(s.Nodes, NodeConfig{Name: hub, X: x, Y: 1, Radius: 5, Mass: 300})
		for i := 0; i < perHub; i++ {
			sat := fmt.Sprintf("s%d_%d", h, i)
			s.Nodes = append(s.Nodes, NodeConfig{
				Name:   sat,
				X:      x + float64(i) - 2,
				Y:      float64(i%3) - 1,
				Radius: 2,
			})
			s.Connections = append(s.Connections, ConnectionConfig{
				From: hub, To: sat, Force: ptr(0.05), Distance: 8,
			})
		}
	}
	s.Connections = append(s.Connections, ConnectionConfig{
		From: "hub0", To: "hub1", Force: ptr(0.02), Distance: 60,
	})
	return s
}
