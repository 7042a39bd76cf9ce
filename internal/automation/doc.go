// Package automation runs batches of episodes: factorial sweeps over the
// experiment registry with grouped aggregates and a quality check, and
// Monte Carlo trials over perturbed initial conditions.
package automation
