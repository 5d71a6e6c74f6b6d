package metrics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/springsim/internal/dynamo"
)

func frame(dt float64, colliders []dynamo.Sphere, bones ...dynamo.BoneSample) dynamo.Frame {
	return dynamo.Frame{
		Dt:     dt,
		Chains: []dynamo.ChainSample{{Bones: bones, Colliders: colliders}},
	}
}

func bone(head, tail, rest mgl64.Vec3, length float64) dynamo.BoneSample {
	return dynamo.BoneSample{Head: head, Tail: tail, Rest: rest, Length: length, Radius: 0.02}
}

func TestLengthError(t *testing.T) {
	m := NewLengthError()
	if m.Value() != 0 {
		t.Errorf("expected 0 before observing, got %f", m.Value())
	}

	down := mgl64.Vec3{0, -1, 0}
	m.Observe(frame(0.1, nil, bone(mgl64.Vec3{}, mgl64.Vec3{0, -1, 0}, down, 1)))
	m.Observe(frame(0.1, nil, bone(mgl64.Vec3{}, mgl64.Vec3{0, -1.25, 0}, down, 1)))
	m.Observe(frame(0.1, nil, bone(mgl64.Vec3{}, mgl64.Vec3{0, -0.9, 0}, down, 1)))

	if math.Abs(m.Value()-0.25) > 1e-12 {
		t.Errorf("expected 0.25, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Errorf("expected 0 after reset, got %f", m.Value())
	}
}

func TestPenetration(t *testing.T) {
	down := mgl64.Vec3{0, -1, 0}
	sphere := []dynamo.Sphere{{Center: mgl64.Vec3{0, -1, 0}, Radius: 0.1}}

	tests := []struct {
		name string
		tail mgl64.Vec3
		want float64
	}{
		{"outside", mgl64.Vec3{0, -1, 0.5}, 0},
		{"touching", mgl64.Vec3{0, -1, 0.12}, 0},
		{"inside", mgl64.Vec3{0, -1, 0.07}, 0.05},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewPenetration()
			m.Observe(frame(0.1, sphere, bone(mgl64.Vec3{}, tt.tail, down, 1)))
			if math.Abs(m.Value()-tt.want) > 1e-9 {
				t.Errorf("expected %f, got %f", tt.want, m.Value())
			}
		})
	}
}

func TestSwingAngle(t *testing.T) {
	m := NewSwingAngle()
	down := mgl64.Vec3{0, -1, 0}

	m.Observe(frame(0.1, nil, bone(mgl64.Vec3{}, mgl64.Vec3{0, -1, 0}, down, 1)))
	m.Observe(frame(0.1, nil, bone(mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}, down, 1)))

	if math.Abs(m.Value()-45) > 1e-9 {
		t.Errorf("expected mean 45 degrees, got %f", m.Value())
	}
	if m.StdDev() <= 0 {
		t.Errorf("expected positive spread, got %f", m.StdDev())
	}
}

func TestAngle(t *testing.T) {
	tests := []struct {
		name string
		a, b mgl64.Vec3
		want float64
	}{
		{"same", mgl64.Vec3{1, 0, 0}, mgl64.Vec3{2, 0, 0}, 0},
		{"perpendicular", mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 0, 1}, 90},
		{"opposite", mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, -1, 0}, 180},
		{"degenerate", mgl64.Vec3{}, mgl64.Vec3{0, -1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Angle(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestTailSpeedAndEnergy(t *testing.T) {
	speed := NewTailSpeed()
	energy := NewEnergy()
	down := mgl64.Vec3{0, -1, 0}

	tails := []mgl64.Vec3{{0, -1, 0}, {0.1, -1, 0}, {0.3, -1, 0}}
	for _, tail := range tails {
		f := frame(0.1, nil, bone(mgl64.Vec3{}, tail, down, 1))
		speed.Observe(f)
		energy.Observe(f)
	}

	// speeds 1 and 2
	if math.Abs(speed.Value()-1.5) > 1e-9 {
		t.Errorf("expected mean speed 1.5, got %f", speed.Value())
	}
	if math.Abs(speed.Peak()-2) > 1e-9 {
		t.Errorf("expected peak speed 2, got %f", speed.Peak())
	}
	if math.Abs(energy.Value()-1.25) > 1e-9 {
		t.Errorf("expected mean energy 1.25, got %f", energy.Value())
	}
	if math.Abs(energy.Last()-2) > 1e-9 {
		t.Errorf("expected last energy 2, got %f", energy.Last())
	}

	speed.Reset()
	energy.Reset()
	if speed.Value() != 0 || energy.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestStability(t *testing.T) {
	m := NewStability(0.01)
	if m.Value() != 1.0 {
		t.Errorf("expected 1.0 before observing, got %f", m.Value())
	}

	down := mgl64.Vec3{0, -1, 0}
	m.Observe(frame(0.1, nil, bone(mgl64.Vec3{}, mgl64.Vec3{0, -1, 0}, down, 1)))
	m.Observe(frame(0.1, nil, bone(mgl64.Vec3{}, mgl64.Vec3{0, -2, 0}, down, 1)))
	m.Observe(frame(0.1, nil, bone(mgl64.Vec3{}, mgl64.Vec3{0, math.NaN(), 0}, down, 1)))
	m.Observe(frame(0.1, nil, bone(mgl64.Vec3{}, mgl64.Vec3{0, -1, 0}, down, 1)))

	if math.Abs(m.Value()-0.5) > 1e-12 {
		t.Errorf("expected 0.5, got %f", m.Value())
	}
}
