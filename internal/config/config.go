package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/springz/internal/springz"
)

const (
	DefaultSteps       = 300
	DefaultSampleEvery = 1
	DefaultWidth       = 120.0
	DefaultHeight      = 60.0
)

var (
	ErrDuplicateNode = errors.New("config: duplicate node name")
	ErrUnnamedNode   = errors.New("config: node without a name")
	ErrUnknownNode   = errors.New("config: connection references unknown node")
	ErrInvalidRun    = errors.New("config: invalid run parameters")
)

// Scene describes a collection, its nodes and connections, and how to run it.
type Scene struct {
	Name        string             `yaml:"name" toml:"name"`
	Collection  CollectionConfig   `yaml:"collection" toml:"collection"`
	Nodes       []NodeConfig       `yaml:"nodes" toml:"nodes"`
	Connections []ConnectionConfig `yaml:"connections" toml:"connections"`
	Run         RunConfig          `yaml:"run" toml:"run"`
}

type CollectionConfig struct {
	Masses          bool    `yaml:"masses" toml:"masses"`
	Scale           float64 `yaml:"scale" toml:"scale"`
	AvoidCollisions bool    `yaml:"avoid_collisions" toml:"avoid_collisions"`
	Glide           float64 `yaml:"glide" toml:"glide"`
	MaxSpeed        float64 `yaml:"max_speed" toml:"max_speed"`
	Seed            int64   `yaml:"seed" toml:"seed"`
}

type NodeConfig struct {
	Name   string  `yaml:"name" toml:"name"`
	X      float64 `yaml:"x" toml:"x"`
	Y      float64 `yaml:"y" toml:"y"`
	Mass   float64 `yaml:"mass,omitempty" toml:"mass,omitempty"`
	Radius float64 `yaml:"radius,omitempty" toml:"radius,omitempty"`
	Locked bool    `yaml:"locked,omitempty" toml:"locked,omitempty"`
}

// ConnectionConfig joins two nodes by name. Force and Active fall back to
// the connection defaults when absent.
type ConnectionConfig struct {
	From     string   `yaml:"from" toml:"from"`
	To       string   `yaml:"to" toml:"to"`
	Force    *float64 `yaml:"force,omitempty" toml:"force,omitempty"`
	Active   *bool    `yaml:"active,omitempty" toml:"active,omitempty"`
	Distance float64  `yaml:"distance,omitempty" toml:"distance,omitempty"`
}

// RunConfig controls the step runner. Width and Height are half extents
// for the per-step bounding pass; zero disables it.
type RunConfig struct {
	Steps           int     `yaml:"steps" toml:"steps"`
	Width           float64 `yaml:"width" toml:"width"`
	Height          float64 `yaml:"height" toml:"height"`
	UncollidePasses int     `yaml:"uncollide_passes" toml:"uncollide_passes"`
	SampleEvery     int     `yaml:"sample_every" toml:"sample_every"`
	SettleThreshold float64 `yaml:"settle_threshold" toml:"settle_threshold"`
}

func DefaultScene() *Scene {
	return &Scene{
		Name: "untitled",
		Collection: CollectionConfig{
			Scale:    springz.DefaultScale,
			Glide:    springz.DefaultGlide,
			MaxSpeed: springz.DefaultMaxSpeed,
		},
		Run: RunConfig{
			Steps:       DefaultSteps,
			Width:       DefaultWidth,
			Height:      DefaultHeight,
			SampleEvery: DefaultSampleEvery,
		},
	}
}

// Load reads a scene from a .toml, .yaml or .yml file. Keys absent from
// the file keep their defaults.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := DefaultScene()
	if isTOML(path) {
		err = toml.Unmarshal(data, s)
	} else {
		err = yaml.Unmarshal(data, s)
	}
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return s, nil
}

func Save(path string, s *Scene) error {
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		var b strings.Builder
		err = toml.NewEncoder(&b).Encode(s)
		data = []byte(b.String())
	} else {
		data, err = yaml.Marshal(s)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Validate checks node names and connection endpoints.
func (s *Scene) Validate() error {
	if s.Run.Steps < 0 || s.Run.UncollidePasses < 0 || s.Run.SampleEvery < 0 || s.Run.Width < 0 || s.Run.Height < 0 {
		return ErrInvalidRun
	}

	names := make(map[string]struct{}, len(s.Nodes))
	for i, n := range s.Nodes {
		if n.Name == "" {
			return fmt.Errorf("%w (index %d)", ErrUnnamedNode, i)
		}
		if _, dup := names[n.Name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateNode, n.Name)
		}
		names[n.Name] = struct{}{}
	}
	for _, c := range s.Connections {
		for _, end := range []string{c.From, c.To} {
			if _, ok := names[end]; !ok {
				return fmt.Errorf("%w: %q", ErrUnknownNode, end)
			}
		}
	}
	return nil
}

// Options converts the collection section into springz options.
func (s *Scene) Options(logger *log.Logger) springz.Options {
	return springz.Options{
		Masses:          s.Collection.Masses,
		Scale:           s.Collection.Scale,
		AvoidCollisions: s.Collection.AvoidCollisions,
		Glide:           s.Collection.Glide,
		MaxSpeed:        s.Collection.MaxSpeed,
		Seed:            s.Collection.Seed,
		Logger:          logger,
	}
}

// Build validates the scene and creates its collection. Each node's Obj is
// its name.
func (s *Scene) Build(logger *log.Logger) (*springz.Collection, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	c := springz.New(s.Options(logger))
	byName := make(map[string]*springz.Node, len(s.Nodes))
	for _, n := range s.Nodes {
		byName[n.Name] = c.CreateNode(springz.NodeOptions{
			Obj:    n.Name,
			X:      n.X,
			Y:      n.Y,
			Mass:   n.Mass,
			Radius: n.Radius,
			Locked: n.Locked,
		})
	}
	for _, cc := range s.Connections {
		if _, err := c.CreateConnection(byName[cc.From], byName[cc.To], cc.options()); err != nil {
			return nil, fmt.Errorf("config: connect %s-%s: %w", cc.From, cc.To, err)
		}
	}
	return c, nil
}

func (cc ConnectionConfig) options() springz.ConnectionOptions {
	opts := springz.DefaultConnectionOptions()
	if cc.Force != nil {
		opts.Force = *cc.Force
	}
	if cc.Active != nil {
		opts.Active = *cc.Active
	}
	opts.Distance = cc.Distance
	return opts
}

// Clone returns a deep copy of the scene.
func (s *Scene) Clone() *Scene {
	c := *s
	c.Nodes = append([]NodeConfig(nil), s.Nodes...)
	c.Connections = make([]ConnectionConfig, len(s.Connections))
	for i, cc := range s.Connections {
		if cc.Force != nil {
			f := *cc.Force
			cc.Force = &f
		}
		if cc.Active != nil {
			a := *cc.Active
			cc.Active = &a
		}
		c.Connections[i] = cc
	}
	return &c
}
