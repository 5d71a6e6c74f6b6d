// Package analysis extracts oscillation characteristics from recorded runs.
//
// A run is reduced to scalar series first:
//
//   - [TailSeries]: one component of a bone's tail position per frame
//   - [SwingSeries]: a bone's angle from its rest direction per frame
//
// The series can then be characterized:
//
//   - [SwingSpectrum]: power spectrum and dominant swing frequency
//   - [DecayRate]: exponential decay of the swing envelope
//   - [Divergence]: separation rate of two runs started slightly apart
//   - [GeneratePhasePortrait]: position against velocity
//   - [Sweep]: late-run values over a range of a tuning parameter
//
// # Damping
//
// A damped chain released from an offset swings at its dominant frequency
// while the envelope shrinks:
//
//	s := analysis.SwingSeries(result.Frames, 0)
//	spec := analysis.SwingSpectrum(s, cfg.Dt)
//	fmt.Println(spec.Dominant(), analysis.DecayRate(s, cfg.Dt))
package analysis
