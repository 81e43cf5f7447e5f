package kinematics

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/bodytree/bodytree"
	"go.viam.com/bodytree/spatialmath"
	"go.viam.com/bodytree/testutils"
)

func TestJacobianMatchesForwardVelocity(t *testing.T) {
	for _, f := range fixtures {
		t.Run(f.name, func(t *testing.T) {
			tree := f.build(t)
			pva := samplePva(tree)
			out := ForwardKinematics(tree, pva, spatialmath.NewCartesianPva(), PoseVelocity)
			for i := 0; i < tree.NumBodies(); i++ {
				jac, err := CalculateJacobian(i, tree, &out)
				test.That(t, err, test.ShouldBeNil)
				motionClose(t, JacobianMultiply(&jac, pva.Velocity), out[i].Velocity, 1e-12)
			}
		})
	}
}

func TestJacobianColumns(t *testing.T) {
	tree := testutils.MixedTree(t)
	out := ForwardPose(tree, testutils.SamplePosition(tree), spatialmath.NewZeroTransform())

	// body 6 hangs off body 1 through a revolute joint: only dofs 0 and 8 move it
	jac, err := CalculateJacobian(6, tree, &out)
	test.That(t, err, test.ShouldBeNil)
	for c := 0; c < bodytree.MaxDofs; c++ {
		norm := jac.Column(c).Angular.Norm() + jac.Column(c).Linear.Norm()
		if c == 0 || c == 8 {
			test.That(t, norm, test.ShouldBeGreaterThan, 0)
		} else {
			test.That(t, norm, test.ShouldEqual, 0)
		}
	}
	// revolute_z on the base: unit z axis
	motionClose(t, spatialmath.MotionVector{Angular: jac.Column(0).Angular}, spatialmath.MotionVector{
		Angular: r3.Vector{Z: 1},
	}, 1e-12)

	base, err := CalculateJacobian(0, tree, &out)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, base, test.ShouldResemble, Jacobian{})

	_, err = CalculateJacobian(tree.NumBodies(), tree, &out)
	test.That(t, errors.Is(err, ErrBodyNotInTree), test.ShouldBeTrue)
	_, err = CalculateHessian(tree, -1, testutils.SamplePosition(tree))
	test.That(t, errors.Is(err, ErrBodyNotInTree), test.ShouldBeTrue)
}

func TestJacobianAccessors(t *testing.T) {
	var jac Jacobian
	jac.Set(4, 2, 7)
	test.That(t, jac.At(4, 2), test.ShouldEqual, 7.)
	test.That(t, jac[6*2+4], test.ShouldEqual, 7.)
	test.That(t, jac.Column(2).Linear.Y, test.ShouldEqual, 7.)

	jac.SetColumn(0, spatialmath.MotionVector{Angular: r3.Vector{X: 1}, Linear: r3.Vector{Z: 2}})
	rm := jac.RowMajor(3)
	test.That(t, len(rm), test.ShouldEqual, 18)
	test.That(t, rm[0], test.ShouldEqual, 1.)
	test.That(t, rm[5*3], test.ShouldEqual, 2.)
	test.That(t, rm[4*3+2], test.ShouldEqual, 7.)

	wrench := [6]float64{0, 0, 0, 0, 1, 1}
	tau := JacobianTransposeMultiply(&jac, wrench)
	test.That(t, tau[0], test.ShouldEqual, 2.)
	test.That(t, tau[2], test.ShouldEqual, 7.)
	test.That(t, tau[1], test.ShouldEqual, 0.)

	jtj := JacobianTransposeMultiplyJacobian(&jac, [6]float64{1, 1, 1, 1, 1, 1})
	test.That(t, jtj[0][0], test.ShouldEqual, 5.)
	test.That(t, jtj[2][2], test.ShouldEqual, 49.)
	test.That(t, jtj[0][2], test.ShouldEqual, 0.)
	jtj = JacobianTransposeMultiplyJacobian(&jac, [6]float64{0, 0, 0, 0, 2, 0})
	test.That(t, jtj[2][2], test.ShouldEqual, 98.)
	test.That(t, jtj[0][0], test.ShouldEqual, 0.)
}

func TestJacobianTransposeIsPowerDual(t *testing.T) {
	tree := testutils.SixAxisArm(t)
	pva := samplePva(tree)
	out := ForwardKinematics(tree, pva, spatialmath.NewCartesianPva(), PoseVelocity)
	jac, err := CalculateJacobian(6, tree, &out)
	test.That(t, err, test.ShouldBeNil)

	// a wrench about the space origin does the same work through J as through J^T
	wrench := spatialmath.ForceVector{Moment: r3.Vector{X: 0.3, Y: -1, Z: 0.2}, Force: r3.Vector{X: 2, Y: 1, Z: -4}}
	tau := JacobianTransposeMultiply(&jac, wrench.Array())
	power := 0.
	for i := 0; i < tree.NumDofs(); i++ {
		power += tau[i] * pva.Velocity[i]
	}
	test.That(t, power, test.ShouldAlmostEqual, JacobianMultiply(&jac, pva.Velocity).Dot(wrench), 1e-12)
}

func TestHessianMatchesForwardAcceleration(t *testing.T) {
	for _, f := range fixtures {
		t.Run(f.name, func(t *testing.T) {
			tree := f.build(t)
			pva := samplePva(tree)
			out := ForwardKinematics(tree, pva, spatialmath.NewCartesianPva(), PoseVelocityAcceleration)
			for i := 1; i < tree.NumBodies(); i++ {
				jac, err := CalculateJacobian(i, tree, &out)
				test.That(t, err, test.ShouldBeNil)
				hessian, err := CalculateHessian(tree, i, pva.Position)
				test.That(t, err, test.ShouldBeNil)
				jacDot := JacobianDerivative(&hessian, pva.Velocity)
				acc := JacobianMultiply(&jac, pva.Acceleration).Add(JacobianMultiply(&jacDot, pva.Velocity))
				motionClose(t, acc, out[i].Acceleration, 1e-6)
			}
		})
	}
}

func TestSpatialJacobianFrames(t *testing.T) {
	tree := testutils.FloatingTree(t)
	out := ForwardPose(tree, testutils.SamplePosition(tree), spatialmath.NewZeroTransform())
	jac, err := CalculateJacobian(4, tree, &out)
	test.That(t, err, test.ShouldBeNil)

	pose := spatialmath.NewTransform(spatialmath.QuatRotX(0.8), r3.Vector{X: 0.5, Y: -1, Z: 2})
	body := SpatialJacobianSpaceToBody(&jac, pose)
	back := SpatialJacobianBodyToSpace(&body, pose)
	for i := range jac {
		test.That(t, back[i], test.ShouldAlmostEqual, jac[i], 1e-12)
	}

	// at the identity pose both frames agree
	same := SpatialJacobianBodyToSpace(&jac, spatialmath.NewZeroTransform())
	for i := range jac {
		test.That(t, same[i], test.ShouldAlmostEqual, jac[i], 1e-15)
	}

	// a translation alone does not change the columns
	var single Jacobian
	single.SetColumn(0, spatialmath.MotionVector{Angular: r3.Vector{Z: 1}, Linear: r3.Vector{X: 0.5}})
	moved := SpatialJacobianBodyToSpace(&single, spatialmath.NewTranslation(r3.Vector{X: 1}))
	motionClose(t, moved.Column(0), single.Column(0), 1e-15)
}

// The body frame Jacobian must give the forward kinematics velocity of the body origin rotated into its own frame,
// also when the body is far from the space origin.
func TestBodyFrameJacobianMatchesForwardVelocity(t *testing.T) {
	tree := testutils.SixAxisArm(t)
	pva := samplePva(tree)
	base := spatialmath.NewCartesianPva()
	base.Pose = spatialmath.NewTransform(spatialmath.QuatRotZ(0.3), r3.Vector{X: 2, Y: -1, Z: 0.5})
	out := ForwardKinematics(tree, pva, base, PoseVelocity)
	for i := 1; i < tree.NumBodies(); i++ {
		jac, err := CalculateJacobian(i, tree, &out)
		test.That(t, err, test.ShouldBeNil)
		pose := out[i].Pose
		body := SpatialJacobianSpaceToBody(&jac, pose)
		inv := pose.Inverse()
		want := spatialmath.MotionVector{
			Angular: inv.RotateVector(out[i].Velocity.Angular),
			Linear:  inv.RotateVector(out[i].Velocity.Linear),
		}
		motionClose(t, JacobianMultiply(&body, pva.Velocity), want, 1e-12)
	}
}

// A quaternion coordinate that is not unit length describes the same rotation as its normalization, so poses,
// velocities and the Jacobian must not depend on its length.
func TestNonUnitQuaternionCoordinates(t *testing.T) {
	for _, jt := range []bodytree.JointType{bodytree.Spherical, bodytree.Cartesian} {
		t.Run(jt.String(), func(t *testing.T) {
			tree := bodytree.NewBodyTree()
			testutils.MustAddBody(t, tree, 0, jt, spatialmath.NewTranslation(r3.Vector{Z: 0.2}),
				bodytree.NewBody(spatialmath.NewMassPropsAtCom(1, r3.Vector{X: 0.1}, testutils.SmallInertia)))
			testutils.MustAddBody(t, tree, 1, bodytree.RevoluteZ, spatialmath.NewTranslation(r3.Vector{X: 0.5}),
				bodytree.NewBody(spatialmath.NewMassPropsAtCom(1, r3.Vector{X: 0.1}, testutils.SmallInertia)))

			unit := NewJointPva(tree)
			unit.Position[1] = 1 // (w, x, y, z) = (0, 1, 0, 0)
			unit.Position[0] = 0
			for k := 0; k < tree.NumDofs(); k++ {
				unit.Velocity[k] = 0.3 * float64(k+1)
			}
			scaled := unit
			for k := 0; k < 4; k++ {
				scaled.Position[k] *= 2
			}

			want := ForwardKinematics(tree, unit, spatialmath.NewCartesianPva(), PoseVelocity)
			got := ForwardKinematics(tree, scaled, spatialmath.NewCartesianPva(), PoseVelocity)
			for i := 1; i < tree.NumBodies(); i++ {
				test.That(t, got[i].Pose.AlmostEqual(want[i].Pose, 1e-12), test.ShouldBeTrue)
				motionClose(t, got[i].Velocity, want[i].Velocity, 1e-12)
				jac, err := CalculateJacobian(i, tree, &got)
				test.That(t, err, test.ShouldBeNil)
				motionClose(t, JacobianMultiply(&jac, scaled.Velocity), got[i].Velocity, 1e-12)
			}
		})
	}
}
