package metrics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/springsim/internal/dynamo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// velocities keeps the previous tail of every bone so consecutive frames
// can be differenced. Frames with a different bone layout or no elapsed
// time only refresh the stored tails.
type velocities struct {
	prev []mgl64.Vec3
}

func (v *velocities) observe(f dynamo.Frame, fn func(speed float64)) {
	bones := f.Bones()
	if len(v.prev) == len(bones) && f.Dt > 0 {
		for i, b := range bones {
			fn(b.Tail.Sub(v.prev[i]).Len() / f.Dt)
		}
	}
	v.prev = v.prev[:0]
	for _, b := range bones {
		v.prev = append(v.prev, b.Tail)
	}
}

func (v *velocities) reset() { v.prev = v.prev[:0] }

// TailSpeed is the mean speed of every tail over the run.
type TailSpeed struct {
	name   string
	vel    velocities
	speeds []float64
}

func NewTailSpeed() *TailSpeed {
	return &TailSpeed{name: "tail_speed"}
}

func (t *TailSpeed) Name() string { return t.name }

func (t *TailSpeed) Observe(f dynamo.Frame) {
	t.vel.observe(f, func(speed float64) { t.speeds = append(t.speeds, speed) })
}

func (t *TailSpeed) Value() float64 {
	if len(t.speeds) == 0 {
		return 0
	}
	return stat.Mean(t.speeds, nil)
}

// Peak is the fastest tail speed seen.
func (t *TailSpeed) Peak() float64 {
	if len(t.speeds) == 0 {
		return 0
	}
	return floats.Max(t.speeds)
}

func (t *TailSpeed) Reset() {
	t.vel.reset()
	t.speeds = t.speeds[:0]
}

// Energy is the mean kinetic energy per frame of all tails, treating each
// tail as a unit point mass. A chain settling to rest drives it to zero.
type Energy struct {
	name   string
	vel    velocities
	frame  float64
	totals []float64
}

func NewEnergy() *Energy {
	return &Energy{name: "energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(f dynamo.Frame) {
	e.frame = 0
	seen := false
	e.vel.observe(f, func(speed float64) {
		e.frame += 0.5 * speed * speed
		seen = true
	})
	if seen {
		e.totals = append(e.totals, e.frame)
	}
}

func (e *Energy) Value() float64 {
	if len(e.totals) == 0 {
		return 0
	}
	return stat.Mean(e.totals, nil)
}

// Last is the kinetic energy of the most recent frame.
func (e *Energy) Last() float64 {
	if len(e.totals) == 0 {
		return 0
	}
	return e.totals[len(e.totals)-1]
}

func (e *Energy) Reset() {
	e.vel.reset()
	e.totals = e.totals[:0]
}
