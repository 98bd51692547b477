// Package viz draws a running simulation in the terminal.
//
// The live view is a Bubble Tea program. Each frame it projects the
// exported position and axis segment buffers through an orbiting [Camera]
// onto a braille [Canvas], outlines the periodic box, and shows a panel of
// frame statistics with a kinetic energy chart.
//
// # Key Bindings
//
//	Space   - Pause/Resume simulation
//	N       - Single step while paused
//	R       - Reseed particles and restore parameters
//	Tab/↑/↓ - Select and tune a parameter
//	A       - Toggle axis segments
//	X/Y/Z   - Rotate camera (shift reverses)
//	+/-     - Zoom
//	T       - Cycle color themes
//	G       - Toggle GIF recording
//	?       - Show help overlay
//
// # Recording
//
// G starts capturing rasterized canvas frames; pressing it again (or
// quitting) writes them as an animated GIF to [Config].GIFPath.
package viz
