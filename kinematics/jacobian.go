package kinematics

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/bodytree/bodytree"
	"go.viam.com/bodytree/spatialmath"
)

// ErrBodyNotInTree is returned when a Jacobian is requested for a body the tree does not hold.
var ErrBodyNotInTree = errors.New("body not in tree")

// Jacobian maps a joint velocity to the space frame velocity of one body. It is stored column-major, one column
// of six rows per dof: rows 0-2 are angular velocity and rows 3-5 the linear velocity of the body origin.
type Jacobian [6 * bodytree.MaxDofs]float64

// JointMatrix is a square matrix over joint space, indexed [row][col].
type JointMatrix [bodytree.MaxDofs][bodytree.MaxDofs]float64

// Hessian holds the derivative of a Jacobian with respect to each dof, one page per dof.
type Hessian [bodytree.MaxDofs]Jacobian

// At returns the element at row r and column c.
func (j *Jacobian) At(r, c int) float64 {
	return j[6*c+r]
}

// Set sets the element at row r and column c.
func (j *Jacobian) Set(r, c int, v float64) {
	j[6*c+r] = v
}

// Column returns column c as a motion vector.
func (j *Jacobian) Column(c int) spatialmath.MotionVector {
	return spatialmath.MotionVector{
		Angular: r3.Vector{X: j[6*c], Y: j[6*c+1], Z: j[6*c+2]},
		Linear:  r3.Vector{X: j[6*c+3], Y: j[6*c+4], Z: j[6*c+5]},
	}
}

// SetColumn writes mv into column c.
func (j *Jacobian) SetColumn(c int, mv spatialmath.MotionVector) {
	j[6*c], j[6*c+1], j[6*c+2] = mv.Angular.X, mv.Angular.Y, mv.Angular.Z
	j[6*c+3], j[6*c+4], j[6*c+5] = mv.Linear.X, mv.Linear.Y, mv.Linear.Z
}

// RowMajor copies the first n columns into a row-major 6 by n slice.
func (j *Jacobian) RowMajor(n int) []float64 {
	out := make([]float64, 6*n)
	for r := 0; r < 6; r++ {
		for c := 0; c < n; c++ {
			out[r*n+c] = j.At(r, c)
		}
	}
	return out
}

// rotationColumn returns a column for a rotation about axis through the child origin, seen from target.
func rotationColumn(axis, arm r3.Vector) spatialmath.MotionVector {
	return spatialmath.MotionVector{Angular: axis, Linear: axis.Cross(arm)}
}

// CalculateJacobian builds the Jacobian of bodyIndex from the poses in body, which must come from forward
// kinematics of the same tree. Only the joints on the path from the body to the base contribute; every other
// column is zero.
func CalculateJacobian(bodyIndex int, tree *bodytree.BodyTree, body *BodyCartesianPva) (Jacobian, error) {
	var jac Jacobian
	if bodyIndex < 0 || bodyIndex >= tree.NumBodies() {
		return jac, errors.Wrapf(ErrBodyNotInTree, "body %d", bodyIndex)
	}
	bodies := tree.Bodies()
	joints := tree.Joints()
	target := body[bodyIndex].Pose.Translation

	for b := bodyIndex; b != 0; {
		j := joints[bodies[b].ParentJointIndex]
		childPose := body[b].Pose
		// orientation of the joint frame in space
		jointRot := spatialmath.Compose(body[j.ParentBodyIndex].Pose, j.ParentJointTransform)
		arm := target.Sub(childPose.Translation)
		d := j.DofIndex

		switch j.Type {
		case bodytree.RevoluteX, bodytree.RevoluteY, bodytree.RevoluteZ:
			axis, _ := j.Type.Axis()
			jac.SetColumn(d, rotationColumn(jointRot.RotateVector(axis.Unit()), arm))
		case bodytree.PrismaticX, bodytree.PrismaticY, bodytree.PrismaticZ:
			axis, _ := j.Type.Axis()
			jac.SetColumn(d, spatialmath.MotionVector{Linear: jointRot.RotateVector(axis.Unit())})
		case bodytree.Spherical:
			for k := 0; k < 3; k++ {
				jac.SetColumn(d+k, rotationColumn(childPose.RotateVector(spatialmath.Axis(k).Unit()), arm))
			}
		case bodytree.Cartesian:
			for k := 0; k < 3; k++ {
				jac.SetColumn(d+k, rotationColumn(childPose.RotateVector(spatialmath.Axis(k).Unit()), arm))
				jac.SetColumn(d+3+k, spatialmath.MotionVector{Linear: jointRot.RotateVector(spatialmath.Axis(k).Unit())})
			}
		case bodytree.Planar:
			jac.SetColumn(d, spatialmath.MotionVector{Linear: jointRot.RotateVector(spatialmath.AxisX.Unit())})
			jac.SetColumn(d+1, spatialmath.MotionVector{Linear: jointRot.RotateVector(spatialmath.AxisY.Unit())})
			jac.SetColumn(d+2, rotationColumn(jointRot.RotateVector(spatialmath.AxisZ.Unit()), arm))
		case bodytree.Fixed:
		}
		b = j.ParentBodyIndex
	}
	return jac, nil
}

// JacobianMultiply returns J*qd, the space frame velocity of the Jacobian's body.
func JacobianMultiply(jac *Jacobian, qd bodytree.JointSpace) spatialmath.MotionVector {
	var out [6]float64
	for c := 0; c < bodytree.MaxDofs; c++ {
		if qd[c] == 0 {
			continue
		}
		for r := 0; r < 6; r++ {
			out[r] += jac[6*c+r] * qd[c]
		}
	}
	return spatialmath.NewMotionVectorFromArray(out)
}

// JacobianTransposeMultiply returns J^T*v. With v a wrench it gives the joint forces that balance it.
func JacobianTransposeMultiply(jac *Jacobian, v [6]float64) bodytree.JointSpace {
	var out bodytree.JointSpace
	for c := 0; c < bodytree.MaxDofs; c++ {
		sum := 0.
		for r := 0; r < 6; r++ {
			sum += jac[6*c+r] * v[r]
		}
		out[c] = sum
	}
	return out
}

// JacobianTransposeMultiplyJacobian returns J^T*diag(w)*J.
func JacobianTransposeMultiplyJacobian(jac *Jacobian, w [6]float64) JointMatrix {
	var out JointMatrix
	for a := 0; a < bodytree.MaxDofs; a++ {
		for b := a; b < bodytree.MaxDofs; b++ {
			sum := 0.
			for r := 0; r < 6; r++ {
				sum += jac[6*a+r] * w[r] * jac[6*b+r]
			}
			out[a][b] = sum
			out[b][a] = sum
		}
	}
	return out
}

// JacobianDerivative contracts a Hessian with a joint velocity, giving the time derivative of the Jacobian.
func JacobianDerivative(hessian *Hessian, qd bodytree.JointSpace) Jacobian {
	var out Jacobian
	for k := 0; k < bodytree.MaxDofs; k++ {
		if qd[k] == 0 {
			continue
		}
		for i := range out {
			out[i] += hessian[k][i] * qd[k]
		}
	}
	return out
}

// SpatialJacobianBodyToSpace re-expresses a Jacobian whose columns are given in the frame of a body at pose in the
// space frame. Both the angular and the linear block are rotated by the pose rotation; the linear block keeps
// describing the velocity of the body origin.
func SpatialJacobianBodyToSpace(jac *Jacobian, pose spatialmath.Transform) Jacobian {
	var out Jacobian
	for c := 0; c < bodytree.MaxDofs; c++ {
		col := jac.Column(c)
		out.SetColumn(c, spatialmath.MotionVector{
			Angular: pose.RotateVector(col.Angular),
			Linear:  pose.RotateVector(col.Linear),
		})
	}
	return out
}

// SpatialJacobianSpaceToBody is the inverse of SpatialJacobianBodyToSpace. Applied to the output of
// CalculateJacobian it gives the body origin velocity in the body frame.
func SpatialJacobianSpaceToBody(jac *Jacobian, pose spatialmath.Transform) Jacobian {
	inv := pose.Inverse()
	var out Jacobian
	for c := 0; c < bodytree.MaxDofs; c++ {
		col := jac.Column(c)
		out.SetColumn(c, spatialmath.MotionVector{
			Angular: inv.RotateVector(col.Angular),
			Linear:  inv.RotateVector(col.Linear),
		})
	}
	return out
}

// hessianStep is the central difference step used by CalculateHessian.
const hessianStep = 1e-6

// CalculateHessian differentiates the Jacobian of bodyIndex at position with respect to each dof, by central
// differences along JointAddOffset. The base is held at the identity.
func CalculateHessian(tree *bodytree.BodyTree, bodyIndex int, position bodytree.JointSpacePosition) (Hessian, error) {
	var hessian Hessian
	if bodyIndex < 0 || bodyIndex >= tree.NumBodies() {
		return hessian, errors.Wrapf(ErrBodyNotInTree, "body %d", bodyIndex)
	}
	base := spatialmath.NewZeroTransform()
	for k := 0; k < tree.NumDofs(); k++ {
		var delta bodytree.JointSpace
		delta[k] = hessianStep
		plus := ForwardPose(tree, JointAddOffset(tree, position, delta), base)
		delta[k] = -hessianStep
		minus := ForwardPose(tree, JointAddOffset(tree, position, delta), base)

		jPlus, err := CalculateJacobian(bodyIndex, tree, &plus)
		if err != nil {
			return hessian, err
		}
		jMinus, err := CalculateJacobian(bodyIndex, tree, &minus)
		if err != nil {
			return hessian, err
		}
		for i := range hessian[k] {
			hessian[k][i] = (jPlus[i] - jMinus[i]) / (2 * hessianStep)
		}
	}
	return hessian, nil
}
