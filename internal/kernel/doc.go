// Package kernel implements the two per-particle passes of a step.
//
// [Kick] computes v(t+dt) for every particle from the positions and
// velocities of generation t. [Drift] then computes x(t+dt) from the
// positions of generation t and the velocities Kick just wrote. Both
// passes write only their own output buffer, and the output for particle i
// depends on nothing else written in the same pass.
//
// Gravity is softened: the squared distance always carries Softening²,
// so the force is finite even for coincident particles and no NaN can be
// produced by the force sum.
package kernel
