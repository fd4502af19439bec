// Package analysis inspects recorded controller output.
//
//   - [DominantFrequency]: strongest oscillation in a force trace
//   - [ForceHodograph]: force vector trajectory of one agent environment
//
// # Ringing Detection
//
// A derivative-heavy or windup-prone tuning shows up as a strong non-zero
// spectral peak in the force norm:
//
//	peak := analysis.DominantFrequency(result.ForceNormSeries(0, 0), cfg.Dt)
//	if peak.Frequency > 0 && peak.Share > 0.5 {
//	    // force is dominated by one oscillation
//	}
package analysis
