// Package dynamics implements recursive Newton-Euler inverse dynamics over a bodytree.BodyTree.
package dynamics

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/bodytree/bodytree"
	"go.viam.com/bodytree/kinematics"
	"go.viam.com/bodytree/spatialmath"
)

// BodyForces holds one wrench per body, indexed by body index.
type BodyForces [bodytree.MaxBodies]spatialmath.ForceVector

// InverseDynamics returns the joint forces that produce the body motion in motion, which must come from forward
// kinematics of tree, while the external wrenches in external act on the bodies. Each external wrench is expressed
// in the space frame and applied at the body origin. Gravity is taken from the tree.
//
// The second return value holds, for every body, the wrench transmitted by its parent joint: expressed in the body
// frame, about the body origin. The entry of the base is the total reaction on the base.
func InverseDynamics(
	tree *bodytree.BodyTree,
	motion *kinematics.BodyCartesianPva,
	external *BodyForces,
) (bodytree.JointSpace, BodyForces) {
	var tau bodytree.JointSpace
	var forces BodyForces
	g := tree.Gravity()
	bodies := tree.Bodies()
	joints := tree.Joints()

	for i := 1; i < len(bodies); i++ {
		forces[i] = bodyWrench(bodies[i].MassProps, motion[i], g, external[i])
	}

	// children before parents
	for i := len(bodies) - 1; i >= 1; i-- {
		j := joints[bodies[i].ParentJointIndex]
		local := spatialmath.Compose(motion[j.ParentBodyIndex].Pose.Inverse(), motion[i].Pose)
		project(j, local, forces[i], tau[j.DofIndex:])
		forces[j.ParentBodyIndex] = forces[j.ParentBodyIndex].Add(forces[i].Transform(local))
	}
	return tau, forces
}

// bodyWrench returns the net wrench a body needs, in its own frame about its origin, to follow pva under gravity g
// while ext acts on it.
func bodyWrench(mp spatialmath.MassProps, pva spatialmath.CartesianPva, g r3.Vector, ext spatialmath.ForceVector) spatialmath.ForceVector {
	toBody := pva.Pose.Inverse()
	w := toBody.RotateVector(pva.Velocity.Angular)
	alpha := toBody.RotateVector(pva.Acceleration.Angular)
	// gravity acts as an upward acceleration of the whole tree
	a := toBody.RotateVector(pva.Acceleration.Linear.Sub(g))
	c := mp.CenterOfMass
	m := mp.Mass

	force := a.Add(alpha.Cross(c)).Add(w.Cross(w.Cross(c))).Mul(m)
	moment := mp.Inertia.MulVec(alpha).
		Add(w.Cross(mp.Inertia.MulVec(w))).
		Add(c.Cross(a).Mul(m))

	return spatialmath.ForceVector{
		Moment: moment.Sub(toBody.RotateVector(ext.Moment)),
		Force:  force.Sub(toBody.RotateVector(ext.Force)),
	}
}

// project writes the generalized force of joint j, given the wrench f carried by its child in the child frame and
// the child pose local in the parent frame.
func project(j bodytree.Joint, local spatialmath.Transform, f spatialmath.ForceVector, tau []float64) {
	switch j.Type {
	case bodytree.RevoluteX, bodytree.RevoluteY, bodytree.RevoluteZ:
		axis, _ := j.Type.Axis()
		tau[0] = axis.Unit().Dot(f.Moment)
	case bodytree.PrismaticX, bodytree.PrismaticY, bodytree.PrismaticZ:
		axis, _ := j.Type.Axis()
		tau[0] = axis.Unit().Dot(f.Force)
	case bodytree.Spherical:
		tau[0], tau[1], tau[2] = f.Moment.X, f.Moment.Y, f.Moment.Z
	case bodytree.Cartesian:
		tau[0], tau[1], tau[2] = f.Moment.X, f.Moment.Y, f.Moment.Z
		// translational rates are measured in the joint frame
		tr := spatialmath.QuatRotate(jointRotation(j, local), f.Force)
		tau[3], tau[4], tau[5] = tr.X, tr.Y, tr.Z
	case bodytree.Planar:
		tr := spatialmath.QuatRotate(jointRotation(j, local), f.Force)
		tau[0], tau[1], tau[2] = tr.X, tr.Y, f.Moment.Z
	case bodytree.Fixed:
	}
}

// jointRotation returns the rotation of the child frame in the joint frame.
func jointRotation(j bodytree.Joint, local spatialmath.Transform) quat.Number {
	return spatialmath.QuatNormalize(quat.Mul(quat.Conj(j.ParentJointTransform.Rotation), local.Rotation))
}

// JointTorques runs forward kinematics of tree for pva with the base described by base, then inverse dynamics
// with the external wrenches in external.
func JointTorques(
	tree *bodytree.BodyTree,
	pva kinematics.JointPva,
	base spatialmath.CartesianPva,
	external *BodyForces,
) (bodytree.JointSpace, BodyForces) {
	motion := kinematics.ForwardKinematics(tree, pva, base, kinematics.PoseVelocityAcceleration)
	return InverseDynamics(tree, &motion, external)
}

// GravityTorques returns the joint forces that hold tree at rest at position against gravity.
func GravityTorques(tree *bodytree.BodyTree, position bodytree.JointSpacePosition) bodytree.JointSpace {
	var none BodyForces
	tau, _ := JointTorques(tree, kinematics.JointPva{Position: position}, spatialmath.NewCartesianPva(), &none)
	return tau
}
