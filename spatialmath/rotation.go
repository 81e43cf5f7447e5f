package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// EulerAngles are three angles (in radians) used to represent the rotation of an object in 3D Euclidean space.
// The rotation is applied yaw about z, then pitch about y, then roll about x (intrinsic ZYX).
// Euler angles are terrible, don't use them for anything but display.
type EulerAngles struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// QuatToRotationMatrix converts a quaternion to its rotation matrix. The matrix is column-major, as all mgl64
// matrices are.
func QuatToRotationMatrix(q quat.Number) mgl64.Mat3 {
	q = QuatNormalize(q)
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return mgl64.Mat3{
		1 - 2*(y*y+z*z), 2 * (x*y + w*z), 2 * (x*z - w*y),
		2 * (x*y - w*z), 1 - 2*(x*x+z*z), 2 * (y*z + w*x),
		2 * (x*z + w*y), 2 * (y*z - w*x), 1 - 2*(x*x+y*y),
	}
}

// RotationMatrixToQuat converts a rotation matrix to a canonical unit quaternion using Shepperd's method.
func RotationMatrixToQuat(m mgl64.Mat3) quat.Number {
	m00, m11, m22 := m.At(0, 0), m.At(1, 1), m.At(2, 2)
	trace := m00 + m11 + m22
	var q quat.Number
	switch {
	case trace > 0:
		s := 2 * math.Sqrt(1+trace)
		q = quat.Number{
			Real: s / 4,
			Imag: (m.At(2, 1) - m.At(1, 2)) / s,
			Jmag: (m.At(0, 2) - m.At(2, 0)) / s,
			Kmag: (m.At(1, 0) - m.At(0, 1)) / s,
		}
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1+m00-m11-m22)
		q = quat.Number{
			Real: (m.At(2, 1) - m.At(1, 2)) / s,
			Imag: s / 4,
			Jmag: (m.At(0, 1) + m.At(1, 0)) / s,
			Kmag: (m.At(0, 2) + m.At(2, 0)) / s,
		}
	case m11 > m22:
		s := 2 * math.Sqrt(1+m11-m00-m22)
		q = quat.Number{
			Real: (m.At(0, 2) - m.At(2, 0)) / s,
			Imag: (m.At(0, 1) + m.At(1, 0)) / s,
			Jmag: s / 4,
			Kmag: (m.At(1, 2) + m.At(2, 1)) / s,
		}
	default:
		s := 2 * math.Sqrt(1+m22-m00-m11)
		q = quat.Number{
			Real: (m.At(1, 0) - m.At(0, 1)) / s,
			Imag: (m.At(0, 2) + m.At(2, 0)) / s,
			Jmag: (m.At(1, 2) + m.At(2, 1)) / s,
			Kmag: s / 4,
		}
	}
	return QuatNormalize(q)
}

// QuatToEuler converts a rotation unit quaternion to euler angles.
// See the following wikipedia page for the formulas used here:
// https://en.wikipedia.org/wiki/Conversion_between_quaternions_and_Euler_angles#Quaternion_to_Euler_angles_conversion
func QuatToEuler(q quat.Number) EulerAngles {
	q = QuatNormalize(q)
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag

	sinp := 2 * (w*y - x*z)
	// Account for floating point error at the poles
	sinp = math.Max(-1, math.Min(1, sinp))
	return EulerAngles{
		Roll:  math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y)),
		Pitch: math.Asin(sinp),
		Yaw:   math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z)),
	}
}

// EulerToQuat converts euler angles to a canonical unit quaternion.
func EulerToQuat(ea EulerAngles) quat.Number {
	return QuatNormalize(quat.Mul(quat.Mul(QuatRotZ(ea.Yaw), QuatRotY(ea.Pitch)), QuatRotX(ea.Roll)))
}

// Skew returns the cross product matrix of v, such that Skew(v)*u == v x u.
func Skew(v r3.Vector) mgl64.Mat3 {
	return mgl64.Mat3{
		0, v.Z, -v.Y,
		-v.Z, 0, v.X,
		v.Y, -v.X, 0,
	}
}

// MatMulVec multiplies a 3x3 matrix by an r3 vector.
func MatMulVec(m mgl64.Mat3, v r3.Vector) r3.Vector {
	return FromVec3(m.Mul3x1(ToVec3(v)))
}

// ToVec3 converts an r3.Vector to an mgl64.Vec3.
func ToVec3(v r3.Vector) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// FromVec3 converts an mgl64.Vec3 to an r3.Vector.
func FromVec3(v mgl64.Vec3) r3.Vector {
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}

// MatColumn returns column c of m as an r3.Vector.
func MatColumn(m mgl64.Mat3, c int) r3.Vector {
	return FromVec3(m.Col(c))
}
