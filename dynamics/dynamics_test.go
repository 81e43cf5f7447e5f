package dynamics

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/bodytree/bodytree"
	"go.viam.com/bodytree/kinematics"
	"go.viam.com/bodytree/spatialmath"
	"go.viam.com/bodytree/testutils"
)

func TestGravityTorquesRevolutePrismaticRevolute(t *testing.T) {
	tree := testutils.RevolutePrismaticRevolute(t)

	q := tree.NeutralPosition()
	tau := GravityTorques(tree, q)
	test.That(t, tau[0], test.ShouldAlmostEqual, -31.8825, 1e-10)
	test.That(t, tau[1], test.ShouldAlmostEqual, 0, 1e-10)
	test.That(t, tau[2], test.ShouldAlmostEqual, -2.4525, 1e-10)

	q[1] = 0.3
	tau = GravityTorques(tree, q)
	test.That(t, tau[0], test.ShouldAlmostEqual, -36.297, 1e-10)
	test.That(t, tau[1], test.ShouldAlmostEqual, 0, 1e-10)
	test.That(t, tau[2], test.ShouldAlmostEqual, -2.4525, 1e-10)

	t.Run("joint forces", func(t *testing.T) {
		var none BodyForces
		motion := kinematics.ForwardPose(tree, q, spatialmath.NewZeroTransform())
		_, forces := InverseDynamics(tree, &motion, &none)
		// the base carries the weight of the whole chain
		test.That(t, forces[0].Force.Z, test.ShouldAlmostEqual, 3.5*9.81, 1e-10)
		test.That(t, forces[3].Force.Z, test.ShouldAlmostEqual, 0.5*9.81, 1e-10)
		test.That(t, forces[3].Moment.Y, test.ShouldAlmostEqual, -2.4525, 1e-10)
	})

	t.Run("pitched down", func(t *testing.T) {
		q := tree.NeutralPosition()
		q[0] = 0.5
		q[2] = -0.5
		tau := GravityTorques(tree, q)
		// the last link hangs level again and the prismatic joint holds the outer links back along the slope
		test.That(t, tau[2], test.ShouldAlmostEqual, -2.4525, 1e-10)
		test.That(t, tau[1], test.ShouldAlmostEqual, -1.5*9.81*0.479425538604203, 1e-10)
	})
}

func TestSpinningBody(t *testing.T) {
	tree := bodytree.NewBodyTree()
	inertia := spatialmath.Inertia{XX: 0.01, YY: 0.02, ZZ: 0.015}
	testutils.MustAddBody(t, tree, 0, bodytree.RevoluteZ, spatialmath.NewZeroTransform(),
		bodytree.NewBody(spatialmath.NewMassPropsAtCom(1, r3.Vector{X: 1}, inertia)))

	pva := kinematics.NewJointPva(tree)
	pva.Position[0] = 0.7
	pva.Velocity[0] = 3
	pva.Acceleration[0] = 2
	var none BodyForces
	tau, forces := JointTorques(tree, pva, spatialmath.NewCartesianPva(), &none)
	// gravity and the centripetal force both pass through the axis
	test.That(t, tau[0], test.ShouldAlmostEqual, (0.015+1)*2, 1e-12)
	// centripetal force pulls toward the axis, along -x of the body
	test.That(t, forces[1].Force.X, test.ShouldAlmostEqual, -9, 1e-12)
	test.That(t, forces[1].Force.Y, test.ShouldAlmostEqual, 2, 1e-12)
	test.That(t, forces[1].Force.Z, test.ShouldAlmostEqual, 9.80665, 1e-12)
}

func TestExternalForces(t *testing.T) {
	tree := testutils.SixAxisArm(t)
	tree.SetGravity(r3.Vector{})
	q := testutils.SamplePosition(tree)
	motion := kinematics.ForwardPose(tree, q, spatialmath.NewZeroTransform())

	var external BodyForces
	external[6] = spatialmath.ForceVector{Moment: r3.Vector{X: 0.2, Z: -0.5}, Force: r3.Vector{X: 1, Y: -2, Z: 3}}
	tau, _ := InverseDynamics(tree, &motion, &external)

	jac, err := kinematics.CalculateJacobian(6, tree, &motion)
	test.That(t, err, test.ShouldBeNil)
	want := kinematics.JacobianTransposeMultiply(&jac, external[6].Array())
	for i := 0; i < tree.NumDofs(); i++ {
		test.That(t, tau[i], test.ShouldAlmostEqual, -want[i], 1e-12)
	}
}

// The power delivered by the joints equals the rate of change of kinetic energy when nothing else acts.
func TestPowerBalance(t *testing.T) {
	for _, build := range []func(testing.TB) *bodytree.BodyTree{
		testutils.MixedTree,
		testutils.FloatingTree,
		testutils.SixAxisArm,
	} {
		tree := build(t)
		tree.SetGravity(r3.Vector{})
		pva := kinematics.JointPva{
			Position:     testutils.SamplePosition(tree),
			Velocity:     testutils.SampleRates(tree, 1),
			Acceleration: testutils.SampleRates(tree, -0.8),
		}
		motion := kinematics.ForwardKinematics(tree, pva, spatialmath.NewCartesianPva(), kinematics.PoseVelocityAcceleration)
		var none BodyForces
		tau, _ := InverseDynamics(tree, &motion, &none)

		power := 0.
		for i := 0; i < tree.NumDofs(); i++ {
			power += tau[i] * pva.Velocity[i]
		}

		com := kinematics.BodyComKinematics(tree, motion)
		energyRate := 0.
		for i, body := range tree.Bodies() {
			mp := body.MassProps
			toBody := com[i].Pose.Inverse()
			w := toBody.RotateVector(com[i].Velocity.Angular)
			alpha := toBody.RotateVector(com[i].Acceleration.Angular)
			energyRate += mp.Mass*com[i].Velocity.Linear.Dot(com[i].Acceleration.Linear) +
				w.Dot(mp.InertiaAtCom().MulVec(alpha))
		}
		test.That(t, power, test.ShouldAlmostEqual, energyRate, 1e-9)
	}
}
