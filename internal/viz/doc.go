// Package viz renders sweep progress and results in the terminal.
//
//   - [Console]: one styled line per finished run
//   - [Progress]: Bubble Tea view used with --tui
//   - [PlotTimings]: asciigraph chart of execution time over the sweep
//
// # Key Bindings
//
//	Q / Esc / Ctrl+C - stop the sweep; rows gathered so far are still exported
package viz
