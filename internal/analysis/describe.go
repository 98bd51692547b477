package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type Summary struct {
	N      int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	Final  float64
}

// Describe summarizes a series. StdDev is the unbiased estimate and is
// zero for fewer than two samples.
func Describe(data []float64) Summary {
	if len(data) == 0 {
		return Summary{}
	}
	mean, std := stat.MeanStdDev(data, nil)
	if len(data) < 2 {
		std = 0
	}
	return Summary{
		N:      len(data),
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(data),
		Max:    floats.Max(data),
		Final:  data[len(data)-1],
	}
}

// SettlingIndex returns the first index from which every sample lies within
// tol*(max-min) of the final sample, or -1 for an empty series. A constant
// series settles at 0.
func SettlingIndex(data []float64, tol float64) int {
	if len(data) == 0 {
		return -1
	}
	band := tol * (floats.Max(data) - floats.Min(data))
	final := data[len(data)-1]
	idx := len(data) - 1
	for i := len(data) - 1; i >= 0; i-- {
		if math.Abs(data[i]-final) > band {
			break
		}
		idx = i
	}
	return idx
}
