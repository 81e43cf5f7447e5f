package kinematics

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"go.viam.com/bodytree/bodytree"
	"go.viam.com/bodytree/linalg"
)

// JacobianPinv is the pseudoinverse of a Jacobian: one row of six elements per dof.
type JacobianPinv [bodytree.MaxDofs][6]float64

// JacobianPseudoinverse returns the Moore-Penrose pseudoinverse of the first n columns of jac.
func JacobianPseudoinverse(jac *Jacobian, n int) (JacobianPinv, error) {
	var out JacobianPinv
	if n <= 0 || n > bodytree.MaxDofs {
		return out, errors.Wrapf(linalg.ErrInput, "dof count %d", n)
	}
	pinv := make([]float64, n*6)
	if err := linalg.PseudoInverse(6, n, jac.RowMajor(n), pinv); err != nil {
		return out, errors.Wrap(err, "jacobian pseudoinverse")
	}
	for r := 0; r < n; r++ {
		copy(out[r][:], pinv[r*6:(r+1)*6])
	}
	return out, nil
}

// ComputeNullspaceMotion projects qd onto the nullspace of the first n columns of jac: it returns
// qd - J+ J qd, which leaves the Jacobian's body at rest. J+ J qd is found as the least squares solution of
// J x = J qd, without forming the pseudoinverse.
func ComputeNullspaceMotion(jac *Jacobian, n int, qd bodytree.JointSpace) (bodytree.JointSpace, error) {
	if n <= 0 || n > bodytree.MaxDofs {
		return qd, errors.Wrapf(linalg.ErrInput, "dof count %d", n)
	}
	task := JacobianMultiply(jac, qd).Array()
	x := make([]float64, n)
	if err := linalg.LeastSquares(6, n, jac.RowMajor(n), task[:], x); err != nil {
		return qd, errors.Wrap(err, "nullspace motion")
	}
	out := qd
	floats.Sub(out[:n], x)
	return out, nil
}

// ComputeNullspaceMotionWithPseudoinverse is ComputeNullspaceMotion with a precomputed pseudoinverse of the same
// Jacobian, for callers that project several motions.
func ComputeNullspaceMotionWithPseudoinverse(
	jac *Jacobian,
	pinv *JacobianPinv,
	n int,
	qd bodytree.JointSpace,
) bodytree.JointSpace {
	task := JacobianMultiply(jac, qd).Array()
	out := qd
	for r := 0; r < n && r < bodytree.MaxDofs; r++ {
		out[r] -= floats.Dot(pinv[r][:], task[:])
	}
	return out
}
