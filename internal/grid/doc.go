// Package grid holds the particle state of a simulation session.
//
// Particles have no identity beyond their grid coordinate. A [Shape] fixes
// the population size for the whole session and a [Store] keeps two
// generations of every quantity:
//
//   - positions: x, y, z and mass packed into a [Cell]
//   - velocities: one r3.Vec per particle
//
// Kernels read generation [Store.Current] and write generation
// [Store.Next]; [Store.Swap] flips the roles once a step is complete. A pass
// never reads and writes the same generation, so per-particle work inside
// a pass can run on any number of goroutines without locks.
package grid
