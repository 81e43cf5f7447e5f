package bodytree

import (
	"go.viam.com/bodytree/spatialmath"
)

// Body is one rigid body of the tree.
type Body struct {
	// OriginOffset is a body-fixed perturbation of the nominal parent joint transform, used to model
	// manufacturing and calibration offsets.
	OriginOffset     spatialmath.MotionVector
	MassProps        spatialmath.MassProps
	PrincipalInertia spatialmath.PrincipalInertia
	// ParentJointIndex is -1 for the base.
	ParentJointIndex int
	IsLeaf           bool
}

// NewBody returns a body with the given mass properties and no origin offset.
func NewBody(mp spatialmath.MassProps) Body {
	return Body{MassProps: mp}
}

// NewBodyWithOffset returns a body with the given mass properties and origin offset.
func NewBodyWithOffset(mp spatialmath.MassProps, offset spatialmath.MotionVector) Body {
	return Body{MassProps: mp, OriginOffset: offset}
}

func baseBody() Body {
	return Body{
		PrincipalInertia: spatialmath.PrincipalInertia{Rotation: spatialmath.QuatIdentity()},
		ParentJointIndex: -1,
		IsLeaf:           true,
	}
}

// validateMass checks the mass rules for a body attached through a joint of type jt.
func validateMass(jt JointType, mp spatialmath.MassProps) (spatialmath.PrincipalInertia, error) {
	zeroInertia := mp.Inertia.IsZero(Tol)
	if jt == Fixed {
		switch {
		case mp.Mass < -Tol:
			return spatialmath.PrincipalInertia{}, ErrMassZero
		case mp.Mass < Tol && !zeroInertia:
			return spatialmath.PrincipalInertia{}, ErrMassZeroWithInertia
		case zeroInertia:
			// massless frame or point mass
			return spatialmath.PrincipalInertia{Rotation: spatialmath.QuatIdentity()}, nil
		}
		if err := mp.Inertia.CheckPositiveDefinite(); err != nil {
			return spatialmath.PrincipalInertia{}, ErrInertiaNotPosDef
		}
		return principalInertia(mp.Inertia)
	}

	if mp.Mass < Tol {
		return spatialmath.PrincipalInertia{}, ErrMassZero
	}
	if zeroInertia {
		return spatialmath.PrincipalInertia{}, ErrInertiaZero
	}
	if err := mp.Inertia.CheckPositiveDefinite(); err != nil {
		return spatialmath.PrincipalInertia{}, ErrInertiaNotPosDef
	}
	pi, err := principalInertia(mp.Inertia)
	if err != nil {
		return pi, err
	}
	if pi.Moments.X <= Tol || pi.Moments.Y <= Tol || pi.Moments.Z <= Tol {
		return spatialmath.PrincipalInertia{}, ErrInertiaZero
	}
	return pi, nil
}

func principalInertia(in spatialmath.Inertia) (spatialmath.PrincipalInertia, error) {
	pi, err := spatialmath.NewPrincipalInertia(in)
	if err != nil {
		return pi, ErrInertiaNotPosDef
	}
	return pi, nil
}
