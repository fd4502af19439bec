package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Peak is the strongest non-DC component of a spectrum.
type Peak struct {
	Frequency float64 // Hz, in units of 1/dt
	Magnitude float64
	Share     float64 // fraction of total non-DC spectral magnitude
}

// PowerSpectrum returns the one-sided magnitude spectrum of data after mean
// removal and a Hann window.
func PowerSpectrum(data []float64) []float64 {
	n := len(data)
	if n < 2 {
		return nil
	}

	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(n)

	windowed := make([]float64, n)
	for i, v := range data {
		w := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		windowed[i] = (v - mean) * w
	}

	spectrum := fft.FFTReal(windowed)
	ps := make([]float64, n/2+1)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// DominantFrequency finds the strongest oscillation in a series sampled every dt.
func DominantFrequency(data []float64, dt float64) Peak {
	ps := PowerSpectrum(data)
	if len(ps) < 2 || dt <= 0 {
		return Peak{}
	}

	total := 0.0
	best := 1
	for i := 1; i < len(ps); i++ {
		total += ps[i]
		if ps[i] > ps[best] {
			best = i
		}
	}
	if total == 0 {
		return Peak{}
	}

	return Peak{
		Frequency: float64(best) / (float64(len(data)) * dt),
		Magnitude: ps[best],
		Share:     ps[best] / total,
	}
}
