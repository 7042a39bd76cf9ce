// Package metrics reduces an episode trace to robustness scores.
//
// Each score is a streaming [Metric] fed one [sim.Record] at a time, so the
// same types work as episode observers and as a post-hoc fold via
// [Summarize].
package metrics
