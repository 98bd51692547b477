package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns |X_k|^2 / n for k = 0..n/2 of the mean-removed
// series, so the zero bin is always empty.
func PowerSpectrum(data []float64) []float64 {
	n := len(data)
	if n == 0 {
		return nil
	}
	mean := stat.Mean(data, nil)
	centred := make([]float64, n)
	for i, v := range data {
		centred[i] = v - mean
	}

	coeffs := fft.FFTReal(centred)
	ps := make([]float64, n/2+1)
	for i, c := range coeffs[:len(ps)] {
		a := cmplx.Abs(c)
		ps[i] = a * a / float64(n)
	}
	return ps
}

// DominantFrequency returns the frequency of the strongest non-zero bin for
// samples dt apart, and its power. It is zero for series too short or flat
// to have one.
func DominantFrequency(data []float64, dt float64) (freq, power float64) {
	ps := PowerSpectrum(data)
	best := 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > ps[best] {
			best = i
		}
	}
	if best == 0 || dt <= 0 {
		return 0, 0
	}
	return float64(best) / (float64(len(data)) * dt), ps[best]
}
