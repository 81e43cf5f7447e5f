// Package kinematics implements forward kinematics, Jacobians and kinematic redundancy resolution over a
// bodytree.BodyTree.
package kinematics

import (
	"go.viam.com/bodytree/bodytree"
	"go.viam.com/bodytree/spatialmath"
)

// Option selects how much of the Cartesian state ForwardKinematics computes.
type Option int

const (
	// PoseOnly computes poses and leaves velocities and accelerations at zero.
	PoseOnly Option = iota
	// PoseVelocity computes poses and velocities.
	PoseVelocity
	// PoseVelocityAcceleration computes poses, velocities and accelerations.
	PoseVelocityAcceleration
)

func (o Option) String() string {
	switch o {
	case PoseOnly:
		return "pose"
	case PoseVelocity:
		return "pose_velocity"
	case PoseVelocityAcceleration:
		return "pose_velocity_acceleration"
	}
	return "unknown"
}

// JointPva is the generalized position, velocity and acceleration of every joint.
type JointPva struct {
	Position     bodytree.JointSpacePosition
	Velocity     bodytree.JointSpace
	Acceleration bodytree.JointSpace
}

// NewJointPva returns a configuration at the neutral position of tree, at rest.
func NewJointPva(tree *bodytree.BodyTree) JointPva {
	return JointPva{Position: tree.NeutralPosition()}
}

// BodyCartesianPva holds the Cartesian state of every body, indexed by body index.
type BodyCartesianPva [bodytree.MaxBodies]spatialmath.CartesianPva

// ForwardKinematics propagates base through the tree and returns the space frame pose, velocity and acceleration
// of every body. Bodies are visited in index order, which visits every parent before its children.
func ForwardKinematics(
	tree *bodytree.BodyTree,
	joint JointPva,
	base spatialmath.CartesianPva,
	option Option,
) BodyCartesianPva {
	var out BodyCartesianPva
	base.Pose = base.Pose.Normalize()
	if option < PoseVelocity {
		base.Velocity = spatialmath.MotionVector{}
	}
	if option < PoseVelocityAcceleration {
		base.Acceleration = spatialmath.MotionVector{}
	}
	out[0] = base

	bodies := tree.Bodies()
	joints := tree.Joints()
	for i := 1; i < len(bodies); i++ {
		j := joints[bodies[i].ParentJointIndex]
		parent := &out[j.ParentBodyIndex]
		q := joint.Position[j.CoordIndex:]

		local := JointTransform(j, q)
		child := &out[i]
		child.Pose = spatialmath.Compose(parent.Pose, local)
		if option == PoseOnly {
			continue
		}

		// moment arm from the parent origin to the child origin, in space frame
		r := child.Pose.Translation.Sub(parent.Pose.Translation)
		w := parent.Velocity.Angular
		relVel := JointVelocity(j, q, joint.Velocity[j.DofIndex:]).Rotate(parent.Pose)

		child.Velocity.Angular = w.Add(relVel.Angular)
		child.Velocity.Linear = parent.Velocity.Linear.Add(w.Cross(r)).Add(relVel.Linear)
		if option == PoseVelocity {
			continue
		}

		alpha := parent.Acceleration.Angular
		relAcc := JointAcceleration(j, q, joint.Acceleration[j.DofIndex:]).Rotate(parent.Pose)
		child.Acceleration.Angular = alpha.Add(w.Cross(relVel.Angular)).Add(relAcc.Angular)
		child.Acceleration.Linear = parent.Acceleration.Linear.
			Add(alpha.Cross(r)).
			Add(w.Cross(w.Cross(r))).
			Add(w.Cross(relVel.Linear).Mul(2)).
			Add(relAcc.Linear)
	}
	return out
}

// ForwardPose is shorthand for the poses of ForwardKinematics with the base at basePose.
func ForwardPose(
	tree *bodytree.BodyTree,
	position bodytree.JointSpacePosition,
	basePose spatialmath.Transform,
) BodyCartesianPva {
	return ForwardKinematics(tree, JointPva{Position: position}, spatialmath.CartesianPva{Pose: basePose}, PoseOnly)
}

// BodyComKinematics returns the pose, velocity and acceleration of each body's center of mass, given the state of
// each body origin. Orientations and angular quantities are shared with the body frame.
func BodyComKinematics(tree *bodytree.BodyTree, body BodyCartesianPva) BodyCartesianPva {
	var out BodyCartesianPva
	for i, b := range tree.Bodies() {
		in := body[i]
		c := in.Pose.RotateVector(b.MassProps.CenterOfMass)
		w := in.Velocity.Angular
		alpha := in.Acceleration.Angular
		out[i] = spatialmath.CartesianPva{
			Pose: spatialmath.Transform{
				Rotation:    in.Pose.Rotation,
				Translation: in.Pose.Translation.Add(c),
			},
			Velocity: spatialmath.MotionVector{
				Angular: w,
				Linear:  in.Velocity.Linear.Add(w.Cross(c)),
			},
			Acceleration: spatialmath.MotionVector{
				Angular: alpha,
				Linear:  in.Acceleration.Linear.Add(alpha.Cross(c)).Add(w.Cross(w.Cross(c))),
			},
		}
	}
	return out
}
