// Package analysis characterizes recorded per-frame series such as the
// kinetic energy or contact count of a run.
//
//   - [Describe]: mean, spread and range of a series
//   - [SettlingIndex]: frame after which a series stays near its final value
//   - [PowerSpectrum] and [DominantFrequency]: periodic content
//
// # Relaxation
//
// A damped soft-sphere system relaxes towards rest; steering keeps it
// moving. The settling index of the kinetic energy tells the two apart:
//
//	ke, _ := storage.Column(stats, "kinetic_energy")
//	if analysis.SettlingIndex(ke, 0.05) < 0 {
//	    // never settled
//	}
package analysis
