package analysis

import (
	"errors"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/stat"
)

var ErrTooShort = errors.New("analysis: need at least 4 samples")

// Spectrum returns the one-sided amplitude spectrum of series sampled every
// interval seconds. The mean is removed first so bin 0 carries no offset.
func Spectrum(series []float64, interval float64) (freqs, amp []float64, err error) {
	n := len(series)
	if n < 4 {
		return nil, nil, ErrTooShort
	}
	if !(interval > 0) {
		return nil, nil, errors.New("analysis: sample interval must be positive")
	}

	mean := stat.Mean(series, nil)
	centred := make([]float64, n)
	for i, v := range series {
		centred[i] = v - mean
	}

	coeffs := fft.FFTReal(centred)
	half := n/2 + 1
	freqs = make([]float64, half)
	amp = make([]float64, half)
	for k := 0; k < half; k++ {
		freqs[k] = float64(k) / (float64(n) * interval)
		amp[k] = 2 * cmplx.Abs(coeffs[k]) / float64(n)
	}
	return freqs, amp, nil
}

// Dominant returns the frequency of the strongest non-zero bin.
func Dominant(series []float64, interval float64) (freq, amplitude float64, err error) {
	freqs, amp, err := Spectrum(series, interval)
	if err != nil {
		return 0, 0, err
	}
	best := 1
	for k := 2; k < len(amp); k++ {
		if amp[k] > amp[best] {
			best = k
		}
	}
	return freqs[best], amp[best], nil
}

// Uniform trims ticks to the leading run with constant spacing and returns
// the number of samples kept and that spacing.
func Uniform(ticks []int) (n, spacing int) {
	if len(ticks) < 2 {
		return len(ticks), 0
	}
	spacing = ticks[1] - ticks[0]
	n = 2
	for n < len(ticks) && ticks[n]-ticks[n-1] == spacing {
		n++
	}
	return n, spacing
}
