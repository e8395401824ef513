package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Spectrum returns the magnitude of each frequency bin of series with its
// mean removed. Bin k completes k cycles over the whole series; only the
// first half of the bins is returned.
func Spectrum(series []float64) []float64 {
	if len(series) < 2 {
		return nil
	}

	mean := 0.0
	for _, v := range series {
		mean += v
	}
	mean /= float64(len(series))

	centered := make([]float64, len(series))
	for i, v := range series {
		centered[i] = v - mean
	}

	bins := fft.FFTReal(centered)
	ps := make([]float64, len(bins)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(bins[i])
	}
	return ps
}

// DominantPeriod finds the strongest non-zero frequency in series and
// returns its period in samples along with its share of the total power.
// A flat or too short series gives (0, 0).
func DominantPeriod(series []float64) (period, share float64) {
	ps := Spectrum(series)
	if len(ps) < 2 {
		return 0, 0
	}

	total, best, bestIdx := 0.0, 0.0, 0
	for i := 1; i < len(ps); i++ {
		p := ps[i] * ps[i]
		total += p
		if p > best {
			best, bestIdx = p, i
		}
	}
	if total == 0 {
		return 0, 0
	}
	return float64(len(series)) / float64(bestIdx), best / total
}

// SettleStep returns the first index after which series never again
// rises above frac of its peak, or -1 if the last value still does.
func SettleStep(series []float64, frac float64) int {
	if len(series) == 0 {
		return -1
	}
	peak := series[0]
	for _, v := range series {
		peak = max(peak, v)
	}
	limit := peak * frac

	for i := len(series) - 1; i >= 0; i-- {
		if series[i] > limit {
			if i == len(series)-1 {
				return -1
			}
			return i + 1
		}
	}
	return 0
}
