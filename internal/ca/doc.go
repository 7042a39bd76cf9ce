// Package ca implements the cellular-automaton lattice that stands in for the
// vehicle's longitudinal dynamics.
//
// Every cell carries three fields:
//
//   - attitude (a): pitch-like deflection, driven at the vehicle cell by the
//     applied control input and turbulence
//   - stability (s): in [0, 1], relaxes toward a setpoint that drops with
//     tracking error and turbulence
//   - speed (v): relaxes toward trim, modulated by stability
//
// All cells diffuse toward the mean of their Moore neighbourhood each tick.
// Boundary cells use the reduced (in-bounds) neighbourhood.
//
// # Usage
//
//	g, _ := ca.New(ca.Shape{Rows: 30, Cols: 30}, ca.DefaultInit(), rng)
//	rule := ca.DefaultRule()
//	rule.Step(g, ca.Input{Applied: u, Disturbance: d, Reference: r})
//	if ca.DefaultLimits().Crashed(g) {
//	    // terminal
//	}
package ca
