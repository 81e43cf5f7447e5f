package spatialmath

import (
	"github.com/golang/geo/r3"
)

// MotionVector is a 6d velocity or acceleration: an angular part and a linear part, both expressed in the same
// frame. Which frame that is (space or body-fixed) is tracked by the caller.
type MotionVector struct {
	Angular r3.Vector `json:"angular"`
	Linear  r3.Vector `json:"linear"`
}

// NewMotionVectorFromArray builds a motion vector from [wx wy wz vx vy vz].
func NewMotionVectorFromArray(v [6]float64) MotionVector {
	return MotionVector{
		Angular: r3.Vector{X: v[0], Y: v[1], Z: v[2]},
		Linear:  r3.Vector{X: v[3], Y: v[4], Z: v[5]},
	}
}

// Array returns the motion vector as [wx wy wz vx vy vz].
func (m MotionVector) Array() [6]float64 {
	return [6]float64{m.Angular.X, m.Angular.Y, m.Angular.Z, m.Linear.X, m.Linear.Y, m.Linear.Z}
}

// Add returns m + other.
func (m MotionVector) Add(other MotionVector) MotionVector {
	return MotionVector{Angular: m.Angular.Add(other.Angular), Linear: m.Linear.Add(other.Linear)}
}

// Sub returns m - other.
func (m MotionVector) Sub(other MotionVector) MotionVector {
	return MotionVector{Angular: m.Angular.Sub(other.Angular), Linear: m.Linear.Sub(other.Linear)}
}

// Mul scales both parts by s.
func (m MotionVector) Mul(s float64) MotionVector {
	return MotionVector{Angular: m.Angular.Mul(s), Linear: m.Linear.Mul(s)}
}

// Rotate rotates both parts by the rotation of t. The translation of t is ignored.
func (m MotionVector) Rotate(t Transform) MotionVector {
	return MotionVector{Angular: t.RotateVector(m.Angular), Linear: t.RotateVector(m.Linear)}
}

// Dot is the power pairing of a motion with a force.
func (m MotionVector) Dot(f ForceVector) float64 {
	return m.Angular.Dot(f.Moment) + m.Linear.Dot(f.Force)
}

// AlmostEqual returns whether both parts agree to within tol.
func (m MotionVector) AlmostEqual(other MotionVector, tol float64) bool {
	return R3VectorAlmostEqual(m.Angular, other.Angular, tol) && R3VectorAlmostEqual(m.Linear, other.Linear, tol)
}

// ForceVector is a wrench: a moment and a force, both expressed in the same frame.
type ForceVector struct {
	Moment r3.Vector `json:"moment"`
	Force  r3.Vector `json:"force"`
}

// Add returns f + other.
func (f ForceVector) Add(other ForceVector) ForceVector {
	return ForceVector{Moment: f.Moment.Add(other.Moment), Force: f.Force.Add(other.Force)}
}

// Sub returns f - other.
func (f ForceVector) Sub(other ForceVector) ForceVector {
	return ForceVector{Moment: f.Moment.Sub(other.Moment), Force: f.Force.Sub(other.Force)}
}

// Rotate rotates both parts by the rotation of t.
func (f ForceVector) Rotate(t Transform) ForceVector {
	return ForceVector{Moment: t.RotateVector(f.Moment), Force: t.RotateVector(f.Force)}
}

// Transform re-expresses the wrench in the parent frame of t, moving its reference point to the parent origin.
func (f ForceVector) Transform(t Transform) ForceVector {
	force := t.RotateVector(f.Force)
	return ForceVector{
		Moment: t.RotateVector(f.Moment).Add(t.Translation.Cross(force)),
		Force:  force,
	}
}

// Array returns the wrench as [mx my mz fx fy fz].
func (f ForceVector) Array() [6]float64 {
	return [6]float64{f.Moment.X, f.Moment.Y, f.Moment.Z, f.Force.X, f.Force.Y, f.Force.Z}
}

// CartesianPva is the pose, velocity and acceleration of one body, all in the space frame. Velocity and
// acceleration refer to the body origin.
type CartesianPva struct {
	Pose         Transform
	Velocity     MotionVector
	Acceleration MotionVector
}

// NewCartesianPva returns a body at rest at the origin.
func NewCartesianPva() CartesianPva {
	return CartesianPva{Pose: NewZeroTransform()}
}
