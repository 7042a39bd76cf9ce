// Package viz renders tuning progress and episode state in the terminal.
//
//   - [TuneModel]: Bubble Tea view of a running genetic search
//   - [Lattice]: shaded attitude map of the cellular lattice
//   - [ProgressBar], [Sparkline]: inline gauges shared by the CLI
//
// # Key Bindings
//
//	q, ctrl+c - stop the search and keep the best individual so far
package viz
