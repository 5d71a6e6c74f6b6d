package analysis

import (
	"math/cmplx"

	"github.com/san-kum/springsim/internal/dynamo"
	"github.com/san-kum/springsim/internal/metrics"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Spectrum is a one-sided amplitude spectrum. Freqs are in Hz.
type Spectrum struct {
	Freqs []float64
	Power []float64
}

// SwingSpectrum computes the spectrum of a series sampled every dt seconds.
// The mean is removed first so a chain hanging off-axis does not show up as
// a DC peak.
func SwingSpectrum(series []float64, dt float64) Spectrum {
	n := len(series)
	if n < 2 || dt <= 0 {
		return Spectrum{}
	}

	centered := make([]float64, n)
	copy(centered, series)
	floats.AddConst(-stat.Mean(series, nil), centered)

	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, centered)

	spec := Spectrum{
		Freqs: make([]float64, len(coeff)),
		Power: make([]float64, len(coeff)),
	}
	for i, c := range coeff {
		spec.Freqs[i] = fft.Freq(i) / dt
		spec.Power[i] = cmplx.Abs(c)
	}
	return spec
}

// Dominant returns the frequency with the most power, ignoring DC. It is 0
// for an empty or flat spectrum.
func (s Spectrum) Dominant() float64 {
	if len(s.Power) < 2 {
		return 0
	}
	i := floats.MaxIdx(s.Power[1:]) + 1
	if s.Power[i] == 0 {
		return 0
	}
	return s.Freqs[i]
}

// TailSeries extracts one component (0=x, 1=y, 2=z) of the tail of the
// bone at index bone, counting bones across all chains in update order.
// Frames that do not contain the bone are skipped.
func TailSeries(frames []dynamo.Frame, bone, axis int) []float64 {
	out := make([]float64, 0, len(frames))
	for _, f := range frames {
		bones := f.Bones()
		if bone < 0 || bone >= len(bones) || axis < 0 || axis > 2 {
			continue
		}
		out = append(out, bones[bone].Tail[axis])
	}
	return out
}

// SwingSeries is the angle, in degrees, between the bone and its rest
// direction in every frame.
func SwingSeries(frames []dynamo.Frame, bone int) []float64 {
	out := make([]float64, 0, len(frames))
	for _, f := range frames {
		bones := f.Bones()
		if bone < 0 || bone >= len(bones) {
			continue
		}
		b := bones[bone]
		out = append(out, metrics.Angle(b.Direction(), b.Rest))
	}
	return out
}
