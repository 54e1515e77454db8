// Package nebula is a double-buffered gravitational N-body integrator for a
// fixed grid of particles.
//
// An Engine holds two generations of positions and velocities. Every step
// reads generation t and writes generation t+1 in two passes, a velocity
// kick followed by a position drift, then swaps. Callers see only the
// current generation through Positions.
//
// The Engine is driven by a single external scheduler and is not safe for
// concurrent use. The passes themselves run data-parallel on the configured
// compute backend.
package nebula
