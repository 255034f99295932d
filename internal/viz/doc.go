// Package viz renders trajectories in the terminal.
//
// [Plot] draws compartments with asciigraph, [Summary] formats the metric
// table with lipgloss, and [Model] is a Bubble Tea program that integrates
// a run a few steps per frame while parameters are tuned.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Reset to initial state and parameters
//	Tab   - Select parameter
//	↑/↓   - Tune selected parameter by 5%
//	[ ]   - Time travel (rewind/forward)
//	?     - Show help overlay
package viz
