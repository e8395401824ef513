package springz

import (
	"math"

	"github.com/charmbracelet/log"
)

const (
	DefaultScale    = 1.0
	DefaultGlide    = 0.5
	DefaultMaxSpeed = 1e2
	DefaultForce    = 1.0
)

// Options configures a Collection.
type Options struct {
	// Masses weighs each connection's pull by the endpoints' effective mass.
	Masses bool
	// Scale multiplies the strength of every connection. Zero uses
	// DefaultScale; set Collection.Scale after New to freeze a layout.
	Scale float64
	// AvoidCollisions runs an uncollide pass after every Simulate.
	AvoidCollisions bool
	// Glide is the fraction of the previous velocity kept each step,
	// clamped into [0,1].
	Glide float64
	// MaxSpeed bounds each velocity component. Non-positive or non-finite
	// values use DefaultMaxSpeed.
	MaxSpeed float64
	// Seed drives the jitter used to separate coincident nodes. Zero seeds
	// from the clock.
	Seed int64
	// Logger receives diagnostics for rejected requests. Nil uses
	// log.Default().
	Logger *log.Logger
}

func DefaultOptions() Options {
	return Options{
		Scale:    DefaultScale,
		Glide:    DefaultGlide,
		MaxSpeed: DefaultMaxSpeed,
	}
}

// NodeOptions configures a new node. The zero value is a valid node at the
// origin with no radius and default mass.
type NodeOptions struct {
	Obj    any
	X, Y   float64
	Mass   float64
	Radius float64
	Locked bool
}

// ConnectionOptions configures a new connection. The zero value is an
// inactive connection with no force; start from DefaultConnectionOptions
// and override the fields you need.
type ConnectionOptions struct {
	Force    float64
	Active   bool
	Distance float64
}

func DefaultConnectionOptions() ConnectionOptions {
	return ConnectionOptions{Force: DefaultForce, Active: true}
}

func clampGlide(g float64) float64 {
	if math.IsNaN(g) {
		return 0
	}
	return math.Max(0, math.Min(1, g))
}
