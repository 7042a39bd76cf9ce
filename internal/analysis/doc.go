// Package analysis characterizes recorded episodes.
//
//   - [PowerSpectrum]: one-sided power spectrum of a detrended series
//   - [DominantPeriod]: period of the strongest non-DC oscillation
//   - [Divergence]: sensitivity of an episode to its initial attitude
//   - [NewPhasePortrait]: attitude/error trajectory of a trace
//
// # Oscillation Check
//
// A controller that rings after the step shows up as a spectral peak:
//
//	p, ok := analysis.DominantPeriod(res.Trace.Attitudes(), cfg.Dt)
//	if ok && p < 20 {
//	    // fast oscillation around the reference
//	}
package analysis
