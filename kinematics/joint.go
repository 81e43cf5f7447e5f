package kinematics

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/bodytree/bodytree"
	"go.viam.com/bodytree/spatialmath"
)

// quatAt reads a [w x y z] quaternion from the first four elements of q.
func quatAt(q []float64) quat.Number {
	return quat.Number{Real: q[0], Imag: q[1], Jmag: q[2], Kmag: q[3]}
}

func vecAt(v []float64) r3.Vector {
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}

// JointTransform returns the pose of the child body frame in the parent body frame. q holds the joint's own
// coordinates, starting at the joint's coordinate index.
func JointTransform(joint bodytree.Joint, q []float64) spatialmath.Transform {
	nominal := joint.ParentJointTransform
	var local spatialmath.Transform
	switch joint.Type {
	case bodytree.RevoluteX, bodytree.RevoluteY, bodytree.RevoluteZ:
		axis, _ := joint.Type.Axis()
		local = spatialmath.Transform{Rotation: axis.Rotation(q[0])}
	case bodytree.PrismaticX, bodytree.PrismaticY, bodytree.PrismaticZ:
		axis, _ := joint.Type.Axis()
		local = spatialmath.NewTranslation(axis.Unit().Mul(q[0]))
	case bodytree.Spherical:
		local = spatialmath.Transform{Rotation: spatialmath.QuatNormalize(quatAt(q))}
	case bodytree.Cartesian:
		local = spatialmath.NewTransform(quatAt(q), vecAt(q[4:]))
	case bodytree.Planar:
		local = spatialmath.Transform{
			Rotation:    spatialmath.QuatRotZ(q[2]),
			Translation: r3.Vector{X: q[0], Y: q[1]},
		}
	case bodytree.Fixed:
		return nominal
	default:
		return nominal
	}
	return spatialmath.Compose(nominal, local)
}

// JointMotion returns the motion of the child origin relative to the parent body, expressed in the parent frame,
// caused by the joint rate qd. q and qd hold the joint's own coordinates and dofs. The same function maps a joint
// acceleration to the relative acceleration, since every joint rate is measured in a frame that moves with the
// coordinate it drives.
func JointMotion(joint bodytree.Joint, q, qd []float64) spatialmath.MotionVector {
	nominal := joint.ParentJointTransform
	var rel spatialmath.MotionVector
	switch joint.Type {
	case bodytree.RevoluteX, bodytree.RevoluteY, bodytree.RevoluteZ:
		axis, _ := joint.Type.Axis()
		rel.Angular = axis.Unit().Mul(qd[0])
	case bodytree.PrismaticX, bodytree.PrismaticY, bodytree.PrismaticZ:
		axis, _ := joint.Type.Axis()
		rel.Linear = axis.Unit().Mul(qd[0])
	case bodytree.Spherical:
		// body-fixed rate of the child frame, rotated by the same unit quaternion JointTransform uses
		rel.Angular = spatialmath.QuatRotate(spatialmath.QuatNormalize(quatAt(q)), vecAt(qd))
	case bodytree.Cartesian:
		rel.Angular = spatialmath.QuatRotate(spatialmath.QuatNormalize(quatAt(q)), vecAt(qd))
		rel.Linear = vecAt(qd[3:])
	case bodytree.Planar:
		rel.Angular = r3.Vector{Z: qd[2]}
		rel.Linear = r3.Vector{X: qd[0], Y: qd[1]}
	case bodytree.Fixed:
		return rel
	default:
		return rel
	}
	return rel.Rotate(nominal)
}

// JointVelocity returns the velocity of the child relative to the parent, in the parent frame.
func JointVelocity(joint bodytree.Joint, q, qd []float64) spatialmath.MotionVector {
	return JointMotion(joint, q, qd)
}

// JointAcceleration returns the acceleration of the child relative to the parent, in the parent frame, excluding
// the velocity product terms which are added when transporting through the tree.
func JointAcceleration(joint bodytree.Joint, q, qdd []float64) spatialmath.MotionVector {
	return JointMotion(joint, q, qdd)
}

// JointAddOffset advances a joint position by the joint space increment delta, respecting each joint's manifold:
// quaternion coordinates are updated with a body-fixed box-plus and every other coordinate is added.
func JointAddOffset(tree *bodytree.BodyTree, q bodytree.JointSpacePosition, delta bodytree.JointSpace) bodytree.JointSpacePosition {
	out := q
	for _, joint := range tree.Joints() {
		c, d := joint.CoordIndex, joint.DofIndex
		switch joint.Type {
		case bodytree.Spherical:
			writeQuat(out[c:], spatialmath.QuatBoxPlus(quatAt(q[c:]), vecAt(delta[d:])))
		case bodytree.Cartesian:
			writeQuat(out[c:], spatialmath.QuatBoxPlus(quatAt(q[c:]), vecAt(delta[d:])))
			for k := 0; k < 3; k++ {
				out[c+4+k] = q[c+4+k] + delta[d+3+k]
			}
		case bodytree.Fixed:
		case bodytree.RevoluteX, bodytree.RevoluteY, bodytree.RevoluteZ,
			bodytree.PrismaticX, bodytree.PrismaticY, bodytree.PrismaticZ, bodytree.Planar:
			for k := 0; k < joint.Type.NumDofs(); k++ {
				out[c+k] = q[c+k] + delta[d+k]
			}
		}
	}
	return out
}

// JointDifference returns q1 - q2: the increment delta such that JointAddOffset(tree, q2, delta) == q1.
func JointDifference(tree *bodytree.BodyTree, q1, q2 bodytree.JointSpacePosition) bodytree.JointSpace {
	var delta bodytree.JointSpace
	for _, joint := range tree.Joints() {
		c, d := joint.CoordIndex, joint.DofIndex
		switch joint.Type {
		case bodytree.Spherical:
			writeVec(delta[d:], spatialmath.QuatBoxMinus(quatAt(q2[c:]), quatAt(q1[c:])))
		case bodytree.Cartesian:
			writeVec(delta[d:], spatialmath.QuatBoxMinus(quatAt(q2[c:]), quatAt(q1[c:])))
			for k := 0; k < 3; k++ {
				delta[d+3+k] = q1[c+4+k] - q2[c+4+k]
			}
		case bodytree.Fixed:
		case bodytree.RevoluteX, bodytree.RevoluteY, bodytree.RevoluteZ,
			bodytree.PrismaticX, bodytree.PrismaticY, bodytree.PrismaticZ, bodytree.Planar:
			for k := 0; k < joint.Type.NumDofs(); k++ {
				delta[d+k] = q1[c+k] - q2[c+k]
			}
		}
	}
	return delta
}

func writeQuat(dst []float64, q quat.Number) {
	dst[0], dst[1], dst[2], dst[3] = q.Real, q.Imag, q.Jmag, q.Kmag
}

func writeVec(dst []float64, v r3.Vector) {
	dst[0], dst[1], dst[2] = v.X, v.Y, v.Z
}
