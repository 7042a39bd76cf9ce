// Package optim tunes controller gains against the episode simulator.
//
// [GA] is a generational genetic algorithm with elitism, tournament
// selection, blend crossover and log-normal mutation. [GridSearch] is an
// exhaustive baseline over a Cartesian grid of candidates. Both minimise the
// fitness defined by [Objective].
package optim
