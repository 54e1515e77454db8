// Package viz is the terminal dashboard behind "nebula watch".
//
// It drives an engine from the Bubble Tea tick loop and shows a braille
// preview of the particle cloud next to running diagnostics. Pausing
// simply stops calling Advance.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Reseed with the same seed
//	N     - Reseed with the next seed
//	Tab   - Cycle the graphed diagnostic
//	+/-   - More/fewer ticks per frame
//	X/Y   - Rotate the preview
//	?     - Toggle help
//	Q     - Quit
package viz
