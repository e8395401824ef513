// Package viz draws a layout in the terminal.
//
// [Model] is a Bubble Tea program that steps a collection on every tick
// and renders it onto a braille [Canvas], with an energy trace beside it.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Rebuild the scene from its starting positions
//	C     - Toggle collision avoidance
//	M     - Toggle mass weighting
//	+/-   - Raise or lower glide
//	T     - Cycle color themes
//	Q     - Quit
package viz
