// Package viz provides the terminal replay viewer for recorded runs.
//
// The viewer is a Bubble Tea program stepping through the ticks of a stored
// run and drawing each agent's force for the selected environment.
//
// # Key Bindings
//
//	Space - Pause/Resume playback
//	←/→   - Step one tick back/forward while paused
//	↑/↓   - Select environment
//	+/-   - Playback speed
//	Home  - Rewind
//	Q     - Quit
package viz
