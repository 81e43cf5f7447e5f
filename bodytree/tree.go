// Package bodytree defines the fixed-capacity tree of rigid bodies and joints that the kinematics, dynamics and
// inverse kinematics packages operate on.
//
// Body 0 is always the immovable base. Every other body is appended together with the joint that connects it to
// an existing parent, so a body's parent always has a smaller index than the body itself. Algorithms rely on that
// ordering: walking 1..N visits parents before children and walking N..1 visits children before parents.
package bodytree

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"

	"go.viam.com/bodytree/spatialmath"
)

// Capacities of a BodyTree.
const (
	// MaxBodies includes the base.
	MaxBodies      = 11
	MaxJoints      = MaxBodies - 1
	MaxCoordinates = 15
	MaxDofs        = 12
)

// Tol is the tolerance used when validating masses and inertias.
const Tol = 1e-9

// StandardGravity is the default gravity vector, in the base frame.
var StandardGravity = r3.Vector{Z: -9.80665}

// JointSpacePosition is a generalized position, indexed by Joint.CoordIndex.
type JointSpacePosition [MaxCoordinates]float64

// JointSpace is a generalized velocity, acceleration or force, indexed by Joint.DofIndex.
type JointSpace [MaxDofs]float64

// Limit represents the limits of motion of a single degree of freedom joint.
type Limit struct {
	Min float64
	Max float64
}

// Contains returns whether v lies in [Min, Max].
func (l Limit) Contains(v float64) bool {
	return v >= l.Min && v <= l.Max
}

// BodyTree owns every body and joint of a robot model. A BodyTree is built with AddBody and AddMasslessBody and
// is then read by the algorithms. It is not safe for concurrent mutation.
type BodyTree struct {
	bodies [MaxBodies]Body
	joints [MaxJoints]Joint

	gravity r3.Vector

	positionLimits   [MaxJoints]Limit
	positionLimitSet [MaxJoints]bool
	velocityLimits   [MaxJoints]float64
	velocityLimitSet [MaxJoints]bool

	numBodies      int
	numJoints      int
	numCoordinates int
	numDofs        int
}

// NewBodyTree returns a tree holding only the base, with standard gravity.
func NewBodyTree() *BodyTree {
	tree := &BodyTree{}
	tree.Reset()
	return tree
}

// Reset removes every body but the base and restores standard gravity.
func (tree *BodyTree) Reset() {
	*tree = BodyTree{}
	tree.bodies[0] = baseBody()
	tree.gravity = StandardGravity
	tree.numBodies = 1
}

// AddBody appends body, attached to parentIndex through a joint of type jt whose zero-position pose in the parent
// frame is parentJointTransform. Mass properties are validated for jt. On success the new body index is returned;
// on failure 0 is returned and the tree is unchanged.
func (tree *BodyTree) AddBody(
	parentIndex int,
	jt JointType,
	parentJointTransform spatialmath.Transform,
	body Body,
) (int, error) {
	return tree.addBody(parentIndex, jt, parentJointTransform, body, true)
}

// AddMasslessBody is like AddBody but the body has no mass or inertia and nothing is validated beyond structure.
// It is used for intermediate frames such as the links of a multi-dof joint modelled as a chain.
func (tree *BodyTree) AddMasslessBody(
	parentIndex int,
	jt JointType,
	parentJointTransform spatialmath.Transform,
	originOffset spatialmath.MotionVector,
) (int, error) {
	return tree.addBody(parentIndex, jt, parentJointTransform, Body{OriginOffset: originOffset}, false)
}

func (tree *BodyTree) addBody(
	parentIndex int,
	jt JointType,
	parentJointTransform spatialmath.Transform,
	body Body,
	validate bool,
) (int, error) {
	if parentIndex < 0 || parentIndex >= tree.numBodies {
		return 0, errors.Wrapf(ErrParentNonexistent, "parent %d", parentIndex)
	}
	if !jt.Valid() {
		return 0, errors.Wrapf(ErrUnsupportedJointType, "joint type %d", int(jt))
	}
	if tree.numBodies >= MaxBodies {
		return 0, ErrMaxBodiesReached
	}
	if tree.numJoints >= MaxJoints {
		return 0, ErrMaxJointsReached
	}
	if tree.numCoordinates+jt.NumCoordinates() > MaxCoordinates {
		return 0, ErrMaxCoordinatesReached
	}
	if tree.numDofs+jt.NumDofs() > MaxDofs {
		return 0, ErrMaxDofsReached
	}

	principal := spatialmath.PrincipalInertia{Rotation: spatialmath.QuatIdentity()}
	if validate {
		var err error
		if principal, err = validateMass(jt, body.MassProps); err != nil {
			return 0, errors.Wrapf(err, "body %d", tree.numBodies)
		}
	} else {
		body.MassProps = spatialmath.MassProps{}
	}

	bodyIndex := tree.numBodies
	jointIndex := tree.numJoints
	nominal := parentJointTransform.Normalize()
	tree.joints[jointIndex] = Joint{
		Type:                        jt,
		ParentJointTransform:        nominal.Offset(body.OriginOffset),
		NominalParentJointTransform: nominal,
		ParentBodyIndex:             parentIndex,
		ChildBodyIndex:              bodyIndex,
		CoordIndex:                  tree.numCoordinates,
		DofIndex:                    tree.numDofs,
	}
	body.PrincipalInertia = principal
	body.ParentJointIndex = jointIndex
	body.IsLeaf = true
	tree.bodies[bodyIndex] = body
	tree.bodies[parentIndex].IsLeaf = false

	tree.numBodies++
	tree.numJoints++
	tree.numCoordinates += jt.NumCoordinates()
	tree.numDofs += jt.NumDofs()
	return bodyIndex, nil
}

// NumBodies returns the number of bodies, including the base.
func (tree *BodyTree) NumBodies() int {
	return tree.numBodies
}

// NumJoints returns the number of joints, which is always NumBodies()-1.
func (tree *BodyTree) NumJoints() int {
	return tree.numJoints
}

// NumCoordinates returns the length of the used part of a JointSpacePosition.
func (tree *BodyTree) NumCoordinates() int {
	return tree.numCoordinates
}

// NumDofs returns the length of the used part of a JointSpace.
func (tree *BodyTree) NumDofs() int {
	return tree.numDofs
}

// Gravity returns the gravity vector in the base frame.
func (tree *BodyTree) Gravity() r3.Vector {
	return tree.gravity
}

// SetGravity sets the gravity vector in the base frame.
func (tree *BodyTree) SetGravity(g r3.Vector) {
	tree.gravity = g
}

// Body returns a copy of the body at index.
func (tree *BodyTree) Body(index int) (Body, error) {
	if index < 0 || index >= tree.numBodies {
		return Body{}, errors.Wrapf(ErrBodyIndexOutOfRange, "body %d", index)
	}
	return tree.bodies[index], nil
}

// Joint returns a copy of the joint at index.
func (tree *BodyTree) Joint(index int) (Joint, error) {
	if index < 0 || index >= tree.numJoints {
		return Joint{}, errors.Wrapf(ErrJointIndexOutOfRange, "joint %d", index)
	}
	return tree.joints[index], nil
}

// Bodies returns the used bodies in index order. The slice aliases the tree and must not be modified.
func (tree *BodyTree) Bodies() []Body {
	return tree.bodies[:tree.numBodies]
}

// Joints returns the used joints in index order. The slice aliases the tree and must not be modified.
func (tree *BodyTree) Joints() []Joint {
	return tree.joints[:tree.numJoints]
}

// ParentJoint returns the joint that connects body index to its parent.
func (tree *BodyTree) ParentJoint(bodyIndex int) (Joint, error) {
	if bodyIndex <= 0 || bodyIndex >= tree.numBodies {
		return Joint{}, errors.Wrapf(ErrBodyIndexOutOfRange, "body %d has no parent joint", bodyIndex)
	}
	return tree.joints[tree.bodies[bodyIndex].ParentJointIndex], nil
}

// BodyDofs returns the first dof index and the dof count of the joint that moves bodyIndex. Fixed joints are
// walked through up to the first moving ancestor joint. A body rigidly attached to the base has a count of 0.
func (tree *BodyTree) BodyDofs(bodyIndex int) (int, int, error) {
	if bodyIndex < 0 || bodyIndex >= tree.numBodies {
		return 0, 0, errors.Wrapf(ErrBodyIndexOutOfRange, "body %d", bodyIndex)
	}
	for b := bodyIndex; b != 0; {
		joint := tree.joints[tree.bodies[b].ParentJointIndex]
		if joint.Type != Fixed {
			return joint.DofIndex, joint.Type.NumDofs(), nil
		}
		b = joint.ParentBodyIndex
	}
	return 0, 0, nil
}

// Leaves returns the indices of bodies without children, in increasing order.
func (tree *BodyTree) Leaves() []int {
	var leaves []int
	for i, body := range tree.Bodies() {
		if body.IsLeaf {
			leaves = append(leaves, i)
		}
	}
	return leaves
}

// IsAncestor returns whether ancestor lies on the path from body to the base, body itself included.
func (tree *BodyTree) IsAncestor(ancestor, body int) bool {
	if ancestor < 0 || body < 0 || body >= tree.numBodies {
		return false
	}
	for b := body; ; {
		if b == ancestor {
			return true
		}
		if b == 0 {
			return false
		}
		b = tree.joints[tree.bodies[b].ParentJointIndex].ParentBodyIndex
	}
}

// NeutralPosition returns the zero position of every joint: zero scalars and identity quaternions.
func (tree *BodyTree) NeutralPosition() JointSpacePosition {
	var q JointSpacePosition
	for _, joint := range tree.Joints() {
		if joint.Type == Spherical || joint.Type == Cartesian {
			q[joint.CoordIndex] = 1
		}
	}
	return q
}

// The following mutators patch a built tree in place for calibration. They do not re-validate mass properties and
// do not keep origin offsets and joint transforms consistent with each other; callers are responsible for both.

// SetBodyMassProps replaces the mass properties of a body and recomputes its principal inertia. If the inertia
// cannot be diagonalized the body is left unchanged.
func (tree *BodyTree) SetBodyMassProps(bodyIndex int, mp spatialmath.MassProps) error {
	if bodyIndex < 0 || bodyIndex >= tree.numBodies {
		return errors.Wrapf(ErrBodyIndexOutOfRange, "body %d", bodyIndex)
	}
	pi, err := spatialmath.NewPrincipalInertia(mp.Inertia)
	if err != nil {
		return errors.Wrapf(err, "body %d", bodyIndex)
	}
	body := &tree.bodies[bodyIndex]
	body.MassProps = mp
	body.PrincipalInertia = pi
	return nil
}

// SetBodyOriginOffset replaces the origin offset of a body. The parent joint transform is not updated; see
// ReapplyOriginOffset.
func (tree *BodyTree) SetBodyOriginOffset(bodyIndex int, offset spatialmath.MotionVector) error {
	if bodyIndex < 0 || bodyIndex >= tree.numBodies {
		return errors.Wrapf(ErrBodyIndexOutOfRange, "body %d", bodyIndex)
	}
	tree.bodies[bodyIndex].OriginOffset = offset
	return nil
}

// SetParentJointTransform replaces both the nominal and the actual zero-position transform of a joint.
func (tree *BodyTree) SetParentJointTransform(jointIndex int, t spatialmath.Transform) error {
	if jointIndex < 0 || jointIndex >= tree.numJoints {
		return errors.Wrapf(ErrJointIndexOutOfRange, "joint %d", jointIndex)
	}
	t = t.Normalize()
	tree.joints[jointIndex].NominalParentJointTransform = t
	tree.joints[jointIndex].ParentJointTransform = t
	return nil
}

// ReapplyOriginOffset recomputes the actual parent joint transform of a body from its nominal transform and its
// current origin offset.
func (tree *BodyTree) ReapplyOriginOffset(bodyIndex int) error {
	if bodyIndex <= 0 || bodyIndex >= tree.numBodies {
		return errors.Wrapf(ErrBodyIndexOutOfRange, "body %d", bodyIndex)
	}
	body := tree.bodies[bodyIndex]
	joint := &tree.joints[body.ParentJointIndex]
	joint.ParentJointTransform = joint.NominalParentJointTransform.Offset(body.OriginOffset)
	return nil
}

func (tree *BodyTree) singleDofJoint(jointIndex int) error {
	if jointIndex < 0 || jointIndex >= tree.numJoints {
		return errors.Wrapf(ErrJointIndexOutOfRange, "joint %d", jointIndex)
	}
	if jt := tree.joints[jointIndex].Type; !jt.IsSingleDof() {
		return errors.Wrapf(ErrUnsupportedJointType, "joint %d is %s, limits need a single dof joint", jointIndex, jt)
	}
	return nil
}

// SetJointPositionLimit bounds the position of a single dof joint.
func (tree *BodyTree) SetJointPositionLimit(jointIndex int, limit Limit) error {
	if err := tree.singleDofJoint(jointIndex); err != nil {
		return err
	}
	if math.IsNaN(limit.Min) || math.IsNaN(limit.Max) || limit.Min > limit.Max {
		return errors.Wrapf(ErrInvalidLimit, "min %v is greater than max %v", limit.Min, limit.Max)
	}
	tree.positionLimits[jointIndex] = limit
	tree.positionLimitSet[jointIndex] = true
	return nil
}

// UnsetJointPositionLimit removes the position bound of a single dof joint.
func (tree *BodyTree) UnsetJointPositionLimit(jointIndex int) error {
	if err := tree.singleDofJoint(jointIndex); err != nil {
		return err
	}
	tree.positionLimits[jointIndex] = Limit{}
	tree.positionLimitSet[jointIndex] = false
	return nil
}

// JointPositionLimit returns the position bound of a single dof joint and whether it is set.
func (tree *BodyTree) JointPositionLimit(jointIndex int) (Limit, bool, error) {
	if err := tree.singleDofJoint(jointIndex); err != nil {
		return Limit{}, false, err
	}
	return tree.positionLimits[jointIndex], tree.positionLimitSet[jointIndex], nil
}

// SetJointVelocityLimit bounds the speed of a single dof joint to [-maxVelocity, maxVelocity].
func (tree *BodyTree) SetJointVelocityLimit(jointIndex int, maxVelocity float64) error {
	if err := tree.singleDofJoint(jointIndex); err != nil {
		return err
	}
	if math.IsNaN(maxVelocity) || maxVelocity < 0 {
		return errors.Wrapf(ErrInvalidLimit, "velocity limit %v", maxVelocity)
	}
	tree.velocityLimits[jointIndex] = maxVelocity
	tree.velocityLimitSet[jointIndex] = true
	return nil
}

// JointVelocityLimit returns the speed bound of a single dof joint and whether it is set.
func (tree *BodyTree) JointVelocityLimit(jointIndex int) (float64, bool, error) {
	if err := tree.singleDofJoint(jointIndex); err != nil {
		return 0, false, err
	}
	return tree.velocityLimits[jointIndex], tree.velocityLimitSet[jointIndex], nil
}

// JointLimitsSatisfied reports the first joint whose position lies outside its set position limit. It returns -1
// and true when every limit is respected.
func (tree *BodyTree) JointLimitsSatisfied(q JointSpacePosition) (int, bool) {
	for j, joint := range tree.Joints() {
		if !tree.positionLimitSet[j] {
			continue
		}
		if !tree.positionLimits[j].Contains(q[joint.CoordIndex]) {
			return j, false
		}
	}
	return -1, true
}

// String prints out a table of each body in the tree, with its parent joint and mass.
func (tree *BodyTree) String() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Parent", "Joint", "Coords", "Dofs", "Translation", "Mass", "Leaf"})
	t.AppendRow(table.Row{0, "", "", "", "", "", "", tree.bodies[0].IsLeaf})
	for i := 1; i < tree.numBodies; i++ {
		body := tree.bodies[i]
		joint := tree.joints[body.ParentJointIndex]
		tra := joint.ParentJointTransform.Translation
		t.AppendRow(table.Row{
			i,
			joint.ParentBodyIndex,
			joint.Type.String(),
			IndexRange(joint.CoordIndex, joint.Type.NumCoordinates()),
			IndexRange(joint.DofIndex, joint.Type.NumDofs()),
			fmt.Sprintf("X:%.3f, Y:%.3f, Z:%.3f", tra.X, tra.Y, tra.Z),
			fmt.Sprintf("%.3f", body.MassProps.Mass),
			body.IsLeaf,
		})
	}
	return t.Render()
}

// IndexRange formats the count consecutive indices starting at start as "-", "3" or "3-6".
func IndexRange(start, count int) string {
	switch count {
	case 0:
		return "-"
	case 1:
		return fmt.Sprintf("%d", start)
	default:
		return fmt.Sprintf("%d-%d", start, start+count-1)
	}
}
