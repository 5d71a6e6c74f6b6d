// Package viz draws spring bone rigs in the terminal.
//
// Rendering is built from a few small pieces:
//
//   - [Canvas]: braille dot canvas with lines and circles
//   - [Camera]: orbiting perspective camera projecting world points
//   - [ChainWireframe]: bones as segments and colliders as circles
//   - [PlotSeries] and [Sparkline]: charts of recorded series
//   - [LiveModel]: Bubble Tea program stepping a simulator in real time
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Restore the captured rest pose
//	I     - Identity pose, re-captured as rest
//	G     - Toggle gravity
//	Tab   - Select next chain
//	Up/Dn - Scale stiffness of the selected chain
//	Arrows, W/S, +/- - Orbit and zoom
//	V     - Toggle GIF recording
//	T     - Cycle themes
package viz
