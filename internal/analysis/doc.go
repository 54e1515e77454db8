// Package analysis finds periodic behaviour in sampled diagnostics, such as
// the breathing oscillation of a collapsing cloud's radius.
package analysis
