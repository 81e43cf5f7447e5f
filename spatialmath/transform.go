package spatialmath

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Transform is a rigid transformation that maps points expressed in a child frame into its parent frame:
// p_parent = R(Rotation) * p_child + Translation.
type Transform struct {
	Rotation    quat.Number
	Translation r3.Vector
}

// NewZeroTransform returns the identity transform.
func NewZeroTransform() Transform {
	return Transform{Rotation: QuatIdentity()}
}

// NewTransform returns a transform with a canonicalized rotation.
func NewTransform(rotation quat.Number, translation r3.Vector) Transform {
	return Transform{Rotation: QuatNormalize(rotation), Translation: translation}
}

// NewTranslation returns a pure translation.
func NewTranslation(translation r3.Vector) Transform {
	return Transform{Rotation: QuatIdentity(), Translation: translation}
}

// Compose returns a∘b: the transform that first applies b and then a.
func Compose(a, b Transform) Transform {
	return Transform{
		Rotation:    QuatNormalize(quat.Mul(a.Rotation, b.Rotation)),
		Translation: a.Translation.Add(QuatRotate(a.Rotation, b.Translation)),
	}
}

// Inverse returns the transform that undoes t.
func (t Transform) Inverse() Transform {
	conj := QuatNormalize(quat.Conj(t.Rotation))
	return Transform{
		Rotation:    conj,
		Translation: QuatRotate(conj, t.Translation).Mul(-1),
	}
}

// TransformPoint maps a point from the child frame into the parent frame.
func (t Transform) TransformPoint(p r3.Vector) r3.Vector {
	return QuatRotate(t.Rotation, p).Add(t.Translation)
}

// RotateVector rotates a free vector from the child frame into the parent frame.
func (t Transform) RotateVector(v r3.Vector) r3.Vector {
	return QuatRotate(t.Rotation, v)
}

// RotationMatrix returns the rotation of t as a matrix.
func (t Transform) RotationMatrix() mgl64.Mat3 {
	return QuatToRotationMatrix(t.Rotation)
}

// Offset perturbs t by the body-fixed motion mv: the rotation becomes q*exp(mv.Angular) and the translation
// moves by mv.Linear expressed in the frame of t.
func (t Transform) Offset(mv MotionVector) Transform {
	return Transform{
		Rotation:    QuatBoxPlus(t.Rotation, mv.Angular),
		Translation: t.Translation.Add(QuatRotate(t.Rotation, mv.Linear)),
	}
}

// Normalize returns t with a canonical rotation.
func (t Transform) Normalize() Transform {
	t.Rotation = QuatNormalize(t.Rotation)
	return t
}

// AlmostEqual returns whether both transforms agree to within tol. Rotations are compared up to sign.
func (t Transform) AlmostEqual(other Transform, tol float64) bool {
	return QuaternionAlmostEqual(t.Rotation, other.Rotation, tol) &&
		R3VectorAlmostEqual(t.Translation, other.Translation, tol)
}

func (t Transform) String() string {
	q := t.Rotation
	return fmt.Sprintf("{q: [%.6g %.6g %.6g %.6g], t: [%.6g %.6g %.6g]}",
		q.Real, q.Imag, q.Jmag, q.Kmag, t.Translation.X, t.Translation.Y, t.Translation.Z)
}
