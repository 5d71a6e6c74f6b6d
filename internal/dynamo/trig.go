package dynamo

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AntiparallelEpsilon is the slack below -1 for which two directions are
// treated as exactly opposed by FromToRotation.
const AntiparallelEpsilon = 1e-9

var (
	UnitX = mgl64.Vec3{1, 0, 0}
	UnitY = mgl64.Vec3{0, 1, 0}
	UnitZ = mgl64.Vec3{0, 0, 1}
)

// EulerQuat converts euler angles in degrees to a rotation applied as
// Y, then X, then Z (yaw * pitch * roll in matrix order).
func EulerQuat(deg mgl64.Vec3) mgl64.Quat {
	qy := mgl64.QuatRotate(mgl64.DegToRad(deg.Y()), UnitY)
	qx := mgl64.QuatRotate(mgl64.DegToRad(deg.X()), UnitX)
	qz := mgl64.QuatRotate(mgl64.DegToRad(deg.Z()), UnitZ)
	return qy.Mul(qx).Mul(qz).Normalize()
}

// EulerMatrix is the matrix form of EulerQuat.
func EulerMatrix(deg mgl64.Vec3) mgl64.Mat4 {
	return mgl64.HomogRotate3DY(mgl64.DegToRad(deg.Y())).
		Mul4(mgl64.HomogRotate3DX(mgl64.DegToRad(deg.X()))).
		Mul4(mgl64.HomogRotate3DZ(mgl64.DegToRad(deg.Z())))
}

// TRS composes translate * rotate * scale with rotation given as euler
// degrees.
func TRS(t, eulerDeg, s mgl64.Vec3) mgl64.Mat4 {
	return mgl64.Translate3D(t.X(), t.Y(), t.Z()).
		Mul4(EulerMatrix(eulerDeg)).
		Mul4(mgl64.Scale3D(s.X(), s.Y(), s.Z()))
}

// TRSQuat is TRS with the rotation given as a quaternion.
func TRSQuat(t mgl64.Vec3, q mgl64.Quat, s mgl64.Vec3) mgl64.Mat4 {
	return mgl64.Translate3D(t.X(), t.Y(), t.Z()).
		Mul4(q.Mat4()).
		Mul4(mgl64.Scale3D(s.X(), s.Y(), s.Z()))
}

// TransformPoint applies m to p and divides by the homogeneous w row, so
// projective matrices are handled as well as affine ones.
func TransformPoint(m mgl64.Mat4, p mgl64.Vec3) mgl64.Vec3 {
	v := m.Mul4x1(p.Vec4(1))
	w := v.W()
	if w == 0 {
		return v.Vec3()
	}
	return v.Vec3().Mul(1 / w)
}

// Normalize returns v scaled to unit length, and false when v has no
// direction.
func Normalize(v mgl64.Vec3) (mgl64.Vec3, bool) {
	l := v.Len()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return mgl64.Vec3{}, false
	}
	return v.Mul(1 / l), true
}

// FromToRotation returns the shortest-arc rotation taking direction from
// onto direction to. Opposed directions rotate 180 degrees about fallback,
// since the cross product carries no axis there.
func FromToRotation(from, to, fallback mgl64.Vec3) mgl64.Quat {
	a, okA := Normalize(from)
	b, okB := Normalize(to)
	if !okA || !okB {
		return mgl64.QuatIdent()
	}

	d := a.Dot(b)
	switch {
	case d >= 1:
		return mgl64.QuatIdent()
	case d < -1+AntiparallelEpsilon:
		axis, ok := Normalize(fallback)
		if !ok {
			axis = UnitY
		}
		return mgl64.QuatRotate(math.Pi, axis)
	}

	s := math.Sqrt((1 + d) * 2)
	return mgl64.Quat{W: s * 0.5, V: a.Cross(b).Mul(1 / s)}
}
