package dynamo

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// near compares with an absolute tolerance; mgl64's ApproxEqualThreshold
// squares the threshold when either side is zero.
func near(a, b mgl64.Vec3, tol float64) bool {
	return a.Sub(b).Len() <= tol
}

func nearQuat(a, b mgl64.Quat, tol float64) bool {
	return near(a.V, b.V, tol) && math.Abs(a.W-b.W) <= tol
}

func nearMat(a, b mgl64.Mat4, tol float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

func TestFromToRotation(t *testing.T) {
	tests := []struct {
		name     string
		from, to mgl64.Vec3
	}{
		{"quarter turn", mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}},
		{"unnormalized", mgl64.Vec3{0, 0, -3}, mgl64.Vec3{0, -2, 0}},
		{"oblique", mgl64.Vec3{1, 2, 3}, mgl64.Vec3{-2, 0.5, 1}},
		{"near opposite", mgl64.Vec3{1, 0, 0}, mgl64.Vec3{-1, 1e-3, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := FromToRotation(tt.from, tt.to, UnitY)
			got := q.Rotate(tt.from.Normalize())
			want := tt.to.Normalize()
			if !near(got, want, 1e-9) {
				t.Errorf("expected %v, got %v", want, got)
			}
			if math.Abs(q.Len()-1) > 1e-9 {
				t.Errorf("expected unit quaternion, got length %f", q.Len())
			}
		})
	}
}

func TestFromToRotation_Parallel(t *testing.T) {
	q := FromToRotation(mgl64.Vec3{0, 0, 2}, mgl64.Vec3{0, 0, 5}, UnitY)
	if !nearQuat(q, mgl64.QuatIdent(), 1e-12) {
		t.Errorf("expected identity, got %v", q)
	}
}

func TestFromToRotation_Antiparallel(t *testing.T) {
	from := mgl64.Vec3{1, 0, 0}
	q := FromToRotation(from, mgl64.Vec3{-1, 0, 0}, UnitY)

	got := q.Rotate(from)
	if !near(got, mgl64.Vec3{-1, 0, 0}, 1e-9) {
		t.Errorf("expected (-1,0,0), got %v", got)
	}
	// the fallback axis itself must be left alone
	if axis := q.Rotate(UnitY); !near(axis, UnitY, 1e-9) {
		t.Errorf("expected rotation about up axis, up moved to %v", axis)
	}
}

func TestFromToRotation_Degenerate(t *testing.T) {
	q := FromToRotation(mgl64.Vec3{}, mgl64.Vec3{0, 1, 0}, UnitY)
	if q != mgl64.QuatIdent() {
		t.Errorf("expected identity for zero input, got %v", q)
	}
}

func TestEulerQuatMatchesMatrix(t *testing.T) {
	angles := []mgl64.Vec3{
		{0, 0, 0},
		{90, 0, 0},
		{0, 90, 0},
		{0, 0, 90},
		{30, -45, 60},
		{-170, 10, 5},
	}
	p := mgl64.Vec3{0.3, -1.2, 2}

	for _, a := range angles {
		fromQuat := EulerQuat(a).Rotate(p)
		fromMat := TransformPoint(EulerMatrix(a), p)
		if !near(fromQuat, fromMat, 1e-9) {
			t.Errorf("euler %v: quat gives %v, matrix gives %v", a, fromQuat, fromMat)
		}
	}
}

func TestEulerOrder(t *testing.T) {
	// positive yaw turns forward (-Z) toward -X
	q := EulerQuat(mgl64.Vec3{0, 90, 0})
	got := q.Rotate(mgl64.Vec3{0, 0, -1})
	if !near(got, mgl64.Vec3{-1, 0, 0}, 1e-9) {
		t.Errorf("expected (-1,0,0), got %v", got)
	}
}

func TestTRS(t *testing.T) {
	m := TRS(mgl64.Vec3{1, 2, 3}, mgl64.Vec3{0, 0, 90}, mgl64.Vec3{2, 2, 2})
	got := TransformPoint(m, mgl64.Vec3{1, 0, 0})
	want := mgl64.Vec3{1, 4, 3}
	if !near(got, want, 1e-9) {
		t.Errorf("expected %v, got %v", want, got)
	}

	mq := TRSQuat(mgl64.Vec3{1, 2, 3}, EulerQuat(mgl64.Vec3{0, 0, 90}), mgl64.Vec3{2, 2, 2})
	if !nearMat(mq, m, 1e-9) {
		t.Errorf("TRS and TRSQuat disagree:\n%v\n%v", m, mq)
	}
}

func TestTransformPoint_Homogeneous(t *testing.T) {
	m := mgl64.Ident4()
	m.Set(3, 0, 1) // w = x + 1

	got := TransformPoint(m, mgl64.Vec3{1, 4, 6})
	want := mgl64.Vec3{0.5, 2, 3}
	if !near(got, want, 1e-12) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestNormalize(t *testing.T) {
	if _, ok := Normalize(mgl64.Vec3{}); ok {
		t.Error("expected zero vector to have no direction")
	}
	v, ok := Normalize(mgl64.Vec3{0, 3, 4})
	if !ok || math.Abs(v.Len()-1) > 1e-12 {
		t.Errorf("expected unit vector, got %v", v)
	}
}

func TestBoneError(t *testing.T) {
	err := &BoneError{Node: 4, Name: "hair_end", Wrapped: ErrMissingParent}

	if !errors.Is(err, ErrMissingParent) {
		t.Error("expected BoneError to match its cause")
	}
	if !errors.Is(err, ErrInvalidBone) {
		t.Error("expected BoneError to match ErrInvalidBone")
	}

	expected := `bone "hair_end" (node 4): dynamo: leaf bone has no parent`
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestSimError(t *testing.T) {
	err := SimError{Time: 1.5, Step: 150, Message: "test error"}
	expected := "step 150 (t=1.5000): test error"
	if err.Error() != expected {
		t.Errorf("SimError.Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, ErrInvalidState) {
		t.Error("expected SimError to match ErrInvalidState")
	}
}

func TestParallelFor(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100, 1001} {
		var sum atomic.Int64
		seen := make([]int32, n)
		ParallelFor(n, 4, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&seen[i], 1)
				sum.Add(int64(i))
			}
		})
		for i, c := range seen {
			if c != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, c)
			}
		}
		if want := int64(n * (n - 1) / 2); sum.Load() != want {
			t.Errorf("n=%d: expected sum %d, got %d", n, want, sum.Load())
		}
	}
}

func TestFrameIsValid(t *testing.T) {
	f := Frame{Chains: []ChainSample{{Bones: []BoneSample{{Tail: mgl64.Vec3{1, 2, 3}}}}}}
	if !f.IsValid() {
		t.Error("expected finite frame to be valid")
	}
	if len(f.Bones()) != 1 {
		t.Errorf("expected 1 bone, got %d", len(f.Bones()))
	}
	f.Chains[0].Bones[0].Tail[1] = math.NaN()
	if f.IsValid() {
		t.Error("expected NaN frame to be invalid")
	}
}
