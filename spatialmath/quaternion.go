// Package spatialmath defines the spatial primitives used by the kinematics and dynamics packages:
// rigid transforms, motion and force vectors, quaternion algebra, rotation matrices and mass properties.
//
// All functions are pure and total. Quaternions are gonum quat.Number values with the scalar part in Real,
// 3-vectors are r3.Vector values and 3x3 matrices are mgl64.Mat3 values.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/bodytree/utils"
)

// normTol is the norm below which a quaternion or axis is considered degenerate.
const normTol = 1e-12

// smallAngle is the rotation angle below which exp/log switch to their series expansions.
const smallAngle = 1e-8

// QuatIdentity returns the identity rotation.
func QuatIdentity() quat.Number {
	return quat.Number{Real: 1}
}

// QuatNormalize returns the canonical unit quaternion for q: unit norm with a non-negative scalar part.
// Quaternions whose norm is below tolerance normalize to the identity.
func QuatNormalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n < normTol || math.IsNaN(n) || math.IsInf(n, 0) {
		return QuatIdentity()
	}
	q = quat.Scale(1/n, q)
	if q.Real < 0 {
		q = Flip(q)
	}
	return q
}

// Flip will multiply a quaternion by -1, returning a quaternion representing the same orientation but in the opposing octant.
func Flip(q quat.Number) quat.Number {
	return quat.Number{Real: -q.Real, Imag: -q.Imag, Jmag: -q.Jmag, Kmag: -q.Kmag}
}

// imagNorm returns the norm of the vector part of the quaternion.
func imagNorm(q quat.Number) float64 {
	return math.Sqrt(q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
}

// QuatExp maps a rotation vector to the unit quaternion rotating by |phi| about phi.
func QuatExp(phi r3.Vector) quat.Number {
	theta := phi.Norm()
	if theta < smallAngle {
		return QuatNormalize(quat.Number{Real: 1, Imag: phi.X / 2, Jmag: phi.Y / 2, Kmag: phi.Z / 2})
	}
	s := math.Sin(theta/2) / theta
	return quat.Number{Real: math.Cos(theta / 2), Imag: phi.X * s, Jmag: phi.Y * s, Kmag: phi.Z * s}
}

// QuatLog maps a quaternion to its rotation vector. The quaternion is canonicalized first so the
// returned angle lies in [0, pi].
func QuatLog(q quat.Number) r3.Vector {
	q = QuatNormalize(q)
	v := imagNorm(q)
	if v < smallAngle {
		// 2*asin(v)/v -> 2 as v -> 0
		return r3.Vector{X: 2 * q.Imag, Y: 2 * q.Jmag, Z: 2 * q.Kmag}
	}
	s := 2 * math.Atan2(v, q.Real) / v
	return r3.Vector{X: q.Imag * s, Y: q.Jmag * s, Z: q.Kmag * s}
}

// QuatBoxPlus applies the body-fixed rotation vector phi to q: q * exp(phi).
func QuatBoxPlus(q quat.Number, phi r3.Vector) quat.Number {
	return QuatNormalize(quat.Mul(q, QuatExp(phi)))
}

// QuatBoxMinus returns the body-fixed rotation vector that takes q1 to q2, so that
// QuatBoxPlus(q1, QuatBoxMinus(q1, q2)) == q2.
func QuatBoxMinus(q1, q2 quat.Number) r3.Vector {
	return QuatLog(quat.Mul(quat.Conj(q1), q2))
}

// QuatRotate rotates v by the unit quaternion q.
func QuatRotate(q quat.Number, v r3.Vector) r3.Vector {
	u := r3.Vector{X: q.Imag, Y: q.Jmag, Z: q.Kmag}
	t := u.Cross(v).Mul(2)
	return v.Add(t.Mul(q.Real)).Add(u.Cross(t))
}

// QuatFromAxisAngle returns the rotation of angle radians about axis. A zero axis yields the identity.
func QuatFromAxisAngle(axis r3.Vector, angle float64) quat.Number {
	return (&R4AA{Theta: angle, RX: axis.X, RY: axis.Y, RZ: axis.Z}).ToQuat()
}

// QuatRotX returns a rotation of angle radians about the x axis.
func QuatRotX(angle float64) quat.Number {
	return quat.Number{Real: math.Cos(angle / 2), Imag: math.Sin(angle / 2)}
}

// QuatRotY returns a rotation of angle radians about the y axis.
func QuatRotY(angle float64) quat.Number {
	return quat.Number{Real: math.Cos(angle / 2), Jmag: math.Sin(angle / 2)}
}

// QuatRotZ returns a rotation of angle radians about the z axis.
func QuatRotZ(angle float64) quat.Number {
	return quat.Number{Real: math.Cos(angle / 2), Kmag: math.Sin(angle / 2)}
}

// QuaternionAlmostEqual is an equality test for quaternions that treats q and -q as equal.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	a, b = QuatNormalize(a), QuatNormalize(b)
	return math.Abs(a.Real-b.Real) <= tol &&
		math.Abs(a.Imag-b.Imag) <= tol &&
		math.Abs(a.Jmag-b.Jmag) <= tol &&
		math.Abs(a.Kmag-b.Kmag) <= tol
}

// R3VectorAlmostEqual compares two r3.Vector objects and returns if the all elementwise differences are less than epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return utils.Float64AlmostEqual(a.X, b.X, epsilon) &&
		utils.Float64AlmostEqual(a.Y, b.Y, epsilon) &&
		utils.Float64AlmostEqual(a.Z, b.Z, epsilon)
}

// Axis is one of the three coordinate axes.
type Axis int

// The coordinate axes.
const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// Unit returns the unit vector along the axis.
func (a Axis) Unit() r3.Vector {
	switch a {
	case AxisX:
		return r3.Vector{X: 1}
	case AxisY:
		return r3.Vector{Y: 1}
	default:
		return r3.Vector{Z: 1}
	}
}

// Rotation returns a rotation of angle radians about the axis.
func (a Axis) Rotation(angle float64) quat.Number {
	switch a {
	case AxisX:
		return QuatRotX(angle)
	case AxisY:
		return QuatRotY(angle)
	default:
		return QuatRotZ(angle)
	}
}
