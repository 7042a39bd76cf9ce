// Package experiment names the factor levels of controller benchmarks
// (controller, grid, turbulence, failure) and turns a factor combination
// into a runnable episode.
package experiment
