package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/bodytree/linalg"
)

// Inertia is a symmetric 3x3 rotational inertia tensor stored as its six independent components.
type Inertia struct {
	XX float64 `json:"xx"`
	YY float64 `json:"yy"`
	ZZ float64 `json:"zz"`
	XY float64 `json:"xy"`
	XZ float64 `json:"xz"`
	YZ float64 `json:"yz"`
}

// NewInertiaFromMatrix reads the upper triangle of m.
func NewInertiaFromMatrix(m mgl64.Mat3) Inertia {
	return Inertia{
		XX: m.At(0, 0), YY: m.At(1, 1), ZZ: m.At(2, 2),
		XY: m.At(0, 1), XZ: m.At(0, 2), YZ: m.At(1, 2),
	}
}

// Matrix returns the full tensor.
func (in Inertia) Matrix() mgl64.Mat3 {
	return mgl64.Mat3{
		in.XX, in.XY, in.XZ,
		in.XY, in.YY, in.YZ,
		in.XZ, in.YZ, in.ZZ,
	}
}

func (in Inertia) rowMajor() []float64 {
	return []float64{
		in.XX, in.XY, in.XZ,
		in.XY, in.YY, in.YZ,
		in.XZ, in.YZ, in.ZZ,
	}
}

// MulVec returns I*v.
func (in Inertia) MulVec(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: in.XX*v.X + in.XY*v.Y + in.XZ*v.Z,
		Y: in.XY*v.X + in.YY*v.Y + in.YZ*v.Z,
		Z: in.XZ*v.X + in.YZ*v.Y + in.ZZ*v.Z,
	}
}

// Add returns the component-wise sum.
func (in Inertia) Add(other Inertia) Inertia {
	return Inertia{
		XX: in.XX + other.XX, YY: in.YY + other.YY, ZZ: in.ZZ + other.ZZ,
		XY: in.XY + other.XY, XZ: in.XZ + other.XZ, YZ: in.YZ + other.YZ,
	}
}

// IsZero returns whether every component is below tol in magnitude.
func (in Inertia) IsZero(tol float64) bool {
	return math.Abs(in.XX) < tol && math.Abs(in.YY) < tol && math.Abs(in.ZZ) < tol &&
		math.Abs(in.XY) < tol && math.Abs(in.XZ) < tol && math.Abs(in.YZ) < tol
}

// CheckPositiveDefinite returns linalg.ErrNotPositiveDefinite if the tensor is not positive definite.
func (in Inertia) CheckPositiveDefinite() error {
	return linalg.CheckPositiveDefinite(3, in.rowMajor())
}

// pointMassInertia is the inertia about the origin of a point mass m located at c.
func pointMassInertia(m float64, c r3.Vector) Inertia {
	return Inertia{
		XX: m * (c.Y*c.Y + c.Z*c.Z),
		YY: m * (c.X*c.X + c.Z*c.Z),
		ZZ: m * (c.X*c.X + c.Y*c.Y),
		XY: -m * c.X * c.Y,
		XZ: -m * c.X * c.Z,
		YZ: -m * c.Y * c.Z,
	}
}

// MassProps holds the mass of a body, its center of mass and its inertia about the body origin, all in
// the body frame.
type MassProps struct {
	Mass         float64   `json:"mass"`
	CenterOfMass r3.Vector `json:"com"`
	Inertia      Inertia   `json:"inertia"`
}

// NewMassProps builds mass properties from an inertia tensor taken about the body origin.
func NewMassProps(mass float64, com r3.Vector, inertiaAtOrigin Inertia) MassProps {
	return MassProps{Mass: mass, CenterOfMass: com, Inertia: inertiaAtOrigin}
}

// NewMassPropsAtCom builds mass properties from an inertia tensor taken about the center of mass, moving it
// to the body origin with the parallel axis theorem.
func NewMassPropsAtCom(mass float64, com r3.Vector, inertiaAtCom Inertia) MassProps {
	return MassProps{Mass: mass, CenterOfMass: com, Inertia: inertiaAtCom.Add(pointMassInertia(mass, com))}
}

// InertiaAtCom returns the inertia about the center of mass.
func (mp MassProps) InertiaAtCom() Inertia {
	p := pointMassInertia(mp.Mass, mp.CenterOfMass)
	return Inertia{
		XX: mp.Inertia.XX - p.XX, YY: mp.Inertia.YY - p.YY, ZZ: mp.Inertia.ZZ - p.ZZ,
		XY: mp.Inertia.XY - p.XY, XZ: mp.Inertia.XZ - p.XZ, YZ: mp.Inertia.YZ - p.YZ,
	}
}

// PrincipalInertia is the diagonalized form of an inertia tensor: Rotation maps the principal axes into the
// body frame and Moments holds the principal moments in ascending order.
type PrincipalInertia struct {
	Rotation quat.Number
	Moments  r3.Vector
}

// NewPrincipalInertia diagonalizes in. The eigenvector basis is made right handed so it is a proper rotation.
func NewPrincipalInertia(in Inertia) (PrincipalInertia, error) {
	values := make([]float64, 3)
	vectors := make([]float64, 9)
	if err := linalg.SymmetricEigen(3, in.rowMajor(), values, vectors); err != nil {
		return PrincipalInertia{Rotation: QuatIdentity()}, errors.Wrap(err, "principal inertia")
	}
	// eigenvectors are the columns; mgl64 storage is column-major
	var cols mgl64.Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			cols[c*3+r] = vectors[r*3+c]
		}
	}
	if cols.Det() < 0 {
		for r := 0; r < 3; r++ {
			cols[2*3+r] = -cols[2*3+r]
		}
	}
	return PrincipalInertia{
		Rotation: RotationMatrixToQuat(cols),
		Moments:  r3.Vector{X: values[0], Y: values[1], Z: values[2]},
	}, nil
}
