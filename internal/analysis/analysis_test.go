package analysis

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/springsim/internal/dynamo"
)

func sampled(n int, dt float64, fn func(t float64) float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = fn(float64(i) * dt)
	}
	return out
}

func TestSwingSpectrumDominant(t *testing.T) {
	dt := 0.01
	series := sampled(200, dt, func(t float64) float64 {
		return 0.3 + math.Sin(2*math.Pi*2*t)
	})

	spec := SwingSpectrum(series, dt)
	if len(spec.Freqs) != 101 {
		t.Fatalf("expected 101 bins, got %d", len(spec.Freqs))
	}
	if got := spec.Dominant(); math.Abs(got-2) > 1e-9 {
		t.Errorf("expected dominant 2 Hz, got %f", got)
	}
	if spec.Power[0] > 1e-9 {
		t.Errorf("expected mean removed, DC power %f", spec.Power[0])
	}
}

func TestSwingSpectrumEdgeCases(t *testing.T) {
	if s := SwingSpectrum(nil, 0.01); s.Dominant() != 0 {
		t.Errorf("expected 0 for empty series, got %f", s.Dominant())
	}
	if s := SwingSpectrum([]float64{1, 1, 1, 1}, 0.01); s.Dominant() != 0 {
		t.Errorf("expected 0 for flat series, got %f", s.Dominant())
	}
	if s := SwingSpectrum([]float64{1, 2, 3}, 0); len(s.Power) != 0 {
		t.Error("expected empty spectrum for zero dt")
	}
}

func TestDecayRate(t *testing.T) {
	dt := 0.01
	series := sampled(400, dt, func(t float64) float64 {
		return math.Exp(-0.5*t) * math.Cos(2*math.Pi*2*t)
	})

	if got := DecayRate(series, dt); math.Abs(got-0.5) > 0.05 {
		t.Errorf("expected decay rate near 0.5, got %f", got)
	}
	if got := DecayRate([]float64{0, 1, 2, 3, 4}, dt); got != 0 {
		t.Errorf("expected 0 for monotonic series, got %f", got)
	}
}

func TestDivergence(t *testing.T) {
	dt := 0.1
	a := make([]float64, 20)
	b := sampled(20, dt, func(t float64) float64 { return math.Exp(-t) })

	if got := Divergence(a, b, dt); math.Abs(got+1) > 1e-9 {
		t.Errorf("expected -1, got %f", got)
	}
	if got := Divergence(a, a, dt); got != 0 {
		t.Errorf("expected 0 for identical runs, got %f", got)
	}
}

func TestSeries(t *testing.T) {
	rest := mgl64.Vec3{0, -1, 0}
	frames := []dynamo.Frame{
		{Chains: []dynamo.ChainSample{{Bones: []dynamo.BoneSample{
			{Head: mgl64.Vec3{}, Tail: mgl64.Vec3{0, -1, 0}, Rest: rest, Length: 1},
		}}}},
		{Chains: []dynamo.ChainSample{{Bones: []dynamo.BoneSample{
			{Head: mgl64.Vec3{}, Tail: mgl64.Vec3{1, 0, 0}, Rest: rest, Length: 1},
		}}}},
		{},
	}

	xs := TailSeries(frames, 0, 0)
	if len(xs) != 2 || xs[0] != 0 || xs[1] != 1 {
		t.Errorf("unexpected tail series %v", xs)
	}
	if got := TailSeries(frames, 0, 5); len(got) != 0 {
		t.Errorf("expected no samples for bad axis, got %v", got)
	}

	swing := SwingSeries(frames, 0)
	if len(swing) != 2 || math.Abs(swing[0]) > 1e-9 || math.Abs(swing[1]-90) > 1e-9 {
		t.Errorf("unexpected swing series %v", swing)
	}
}

func TestPhasePortrait(t *testing.T) {
	dt := 0.01
	series := sampled(100, dt, func(t float64) float64 { return math.Sin(t) })

	p := GeneratePhasePortrait(series, dt)
	if p == nil || len(p.Points) != 98 {
		t.Fatalf("expected 98 points, got %v", p)
	}
	// velocity of sin is cos
	if math.Abs(p.Points[0].Y-math.Cos(dt)) > 1e-4 {
		t.Errorf("expected velocity %f, got %f", math.Cos(dt), p.Points[0].Y)
	}

	art := PhasePortraitToASCII(p, 20, 10)
	if strings.Count(art, "\n") != 10 || !strings.Contains(art, "•") {
		t.Errorf("unexpected portrait:\n%s", art)
	}
	if GeneratePhasePortrait(series[:2], dt) != nil {
		t.Error("expected nil portrait for short series")
	}
}

func TestSweep(t *testing.T) {
	params := Linspace(0, 1, 5)
	if len(params) != 5 || params[4] != 1 {
		t.Fatalf("unexpected linspace %v", params)
	}

	points, err := Sweep(params, 2, func(p float64) ([]float64, error) {
		return []float64{9, 9, p, p, p}, nil
	})
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	for _, pt := range points {
		if len(pt.Values) != 1 || pt.Values[0] != pt.Param {
			t.Errorf("param %f: expected single settled value, got %v", pt.Param, pt.Values)
		}
	}
	if art := SweepToASCII(points, 10, 5); strings.Count(art, "\n") != 5 {
		t.Errorf("unexpected sweep plot:\n%s", art)
	}

	boom := errors.New("boom")
	_, err = Sweep(params, 0, func(p float64) ([]float64, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}
