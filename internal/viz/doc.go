// Package viz renders simulation output in the terminal.
//
// The package holds the shared lipgloss styles used by the command line
// tools and a Bubble Tea program that replays a stored trajectory:
//
//   - [Replay]: steps through the samples of a [dynamo.Trajectory]
//   - [MetricsPanel] and [Sparkline]: static summaries
//
// # Key Bindings
//
//	Space - Pause/Resume playback
//	R     - Rewind to the first sample
//	Tab   - Cycle the plotted component
//	[ ]   - Step one stride back or forward
//	+ -   - Double or halve the stride
//	Q     - Quit
package viz
