// Package optim provides the outer search loops used to verify optimal
// parameters: a one-dimensional golden-section search and an exhaustive
// grid search over several parameters. Each candidate is scored by an
// [Objective], typically a full simulation.
package optim
