// Package viz is the terminal cockpit for a running flight.
//
// The view is a Bubble Tea program that only reads published snapshots
// from the stepper and writes pilot inputs to the shared control state;
// it never touches the integrated state directly.
//
// # Key Bindings
//
//	S       - Start (or restart after a reset)
//	Space   - Pause/Resume
//	R       - Reset to the trimmed state (while paused)
//	Up/Down - Elevator (stick forward/back)
//	Left/Right - Aileron
//	, .     - Rudder
//	+ -     - Throttle, all engines
//	F / V   - Flaps down/up
//	G       - Gear
//	B       - Brakes
//	C       - Clear the output log
//	T       - Cycle color themes
//	?       - Show help overlay
package viz
