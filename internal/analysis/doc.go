// Package analysis inspects recorded runs.
//
//   - [Spectrum] and [DominantPeriod]: oscillation in an energy trace
//   - [SettleStep]: when a trace stops exceeding a fraction of its peak
//   - [NodePath] and [PathToASCII]: the route one node took across frames
//
// A layout whose springs keep ringing shows a strong peak away from zero:
//
//	period, share := analysis.DominantPeriod(result.Energy)
//	if share > 0.5 {
//	    // most of the variation repeats every period steps
//	}
package analysis
