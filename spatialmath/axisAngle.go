package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// See here for a thorough explanation: https://en.wikipedia.org/wiki/Axis%E2%80%93angle_representation
// Basic explanation: Imagine a 3d cartesian grid centered at 0,0,0, and a sphere of radius 1 centered at
// that same point. An orientation can be expressed by first specifying an axis, i.e. a line from the origin
// to a point on that sphere, represented by (rx, ry, rz), and a rotation around that axis, theta.
// These four numbers can be used as-is (R4), or they can be converted to R3, where theta is multiplied by each of
// the unit sphere components to give a vector whose length is theta and whose direction is the original axis.
// The R3 form is what the rest of this package calls a rotation vector.

// R4AA represents an R4 axis angle.
type R4AA struct {
	Theta float64 `json:"th"`
	RX    float64 `json:"x"`
	RY    float64 `json:"y"`
	RZ    float64 `json:"z"`
}

// NewR4AA creates a zero rotation about the z axis.
func NewR4AA() *R4AA {
	return &R4AA{Theta: 0, RX: 0, RY: 0, RZ: 1}
}

// ToR3 converts an R4 angle axis to a rotation vector.
func (r4 *R4AA) ToR3() r3.Vector {
	r4.Normalize()
	return r3.Vector{X: r4.RX * r4.Theta, Y: r4.RY * r4.Theta, Z: r4.RZ * r4.Theta}
}

// ToQuat converts an R4 axis angle to a unit quaternion
// See: https://www.euclideanspace.com/maths/geometry/rotations/conversions/angleToQuaternion/index.htm
// A zero axis yields the identity.
func (r4 *R4AA) ToQuat() quat.Number {
	if !r4.Normalize() {
		return quat.Number{Real: 1}
	}
	sinA := math.Sin(r4.Theta / 2)
	return QuatNormalize(quat.Number{
		Real: math.Cos(r4.Theta / 2),
		Imag: r4.RX * sinA,
		Jmag: r4.RY * sinA,
		Kmag: r4.RZ * sinA,
	})
}

// Normalize scales the x, y, and z components of a R4 axis angle to be on the unit sphere. It returns false and
// leaves the axis untouched when the axis has zero length.
func (r4 *R4AA) Normalize() bool {
	norm := math.Sqrt(r4.RX*r4.RX + r4.RY*r4.RY + r4.RZ*r4.RZ)
	if norm < normTol {
		return false
	}
	r4.RX /= norm
	r4.RY /= norm
	r4.RZ /= norm
	return true
}

// R3ToR4 converts a rotation vector to an R4 axis angle. The zero vector maps to a zero rotation about z.
func R3ToR4(aa r3.Vector) *R4AA {
	theta := aa.Norm()
	if theta < normTol {
		return NewR4AA()
	}
	return &R4AA{theta, aa.X / theta, aa.Y / theta, aa.Z / theta}
}

// QuatToR4AA converts a quat to an R4 axis angle in the same way the C++ Eigen library does.
// https://eigen.tuxfamily.org/dox/AngleAxis_8h_source.html
func QuatToR4AA(q quat.Number) R4AA {
	q = QuatNormalize(q)
	denom := imagNorm(q)
	angle := 2 * math.Atan2(denom, q.Real)
	if denom < normTol {
		return R4AA{angle, 0, 0, 1}
	}
	return R4AA{angle, q.Imag / denom, q.Jmag / denom, q.Kmag / denom}
}
