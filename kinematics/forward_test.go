package kinematics

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/bodytree/bodytree"
	"go.viam.com/bodytree/spatialmath"
	"go.viam.com/bodytree/testutils"
)

type fixture struct {
	name  string
	build func(testing.TB) *bodytree.BodyTree
}

var fixtures = []fixture{
	{"revolute prismatic revolute", testutils.RevolutePrismaticRevolute},
	{"mixed", testutils.MixedTree},
	{"floating", testutils.FloatingTree},
	{"six axis arm", testutils.SixAxisArm},
}

func motionClose(t *testing.T, got, want spatialmath.MotionVector, tol float64) {
	t.Helper()
	test.That(t, got.Angular.X, test.ShouldAlmostEqual, want.Angular.X, tol)
	test.That(t, got.Angular.Y, test.ShouldAlmostEqual, want.Angular.Y, tol)
	test.That(t, got.Angular.Z, test.ShouldAlmostEqual, want.Angular.Z, tol)
	test.That(t, got.Linear.X, test.ShouldAlmostEqual, want.Linear.X, tol)
	test.That(t, got.Linear.Y, test.ShouldAlmostEqual, want.Linear.Y, tol)
	test.That(t, got.Linear.Z, test.ShouldAlmostEqual, want.Linear.Z, tol)
}

func samplePva(tree *bodytree.BodyTree) JointPva {
	return JointPva{
		Position:     testutils.SamplePosition(tree),
		Velocity:     testutils.SampleRates(tree, 1),
		Acceleration: testutils.SampleRates(tree, -0.7),
	}
}

func TestForwardKinematicsFixedChain(t *testing.T) {
	tree := bodytree.NewBodyTree()
	t1 := spatialmath.NewTransform(spatialmath.QuatRotZ(math.Pi/2), r3.Vector{X: 1})
	t2 := spatialmath.NewTranslation(r3.Vector{X: 2})
	testutils.MustAddBody(t, tree, 0, bodytree.Fixed, t1, bodytree.Body{})
	testutils.MustAddBody(t, tree, 1, bodytree.Fixed, t2, bodytree.Body{})

	base := spatialmath.CartesianPva{Pose: spatialmath.NewTranslation(r3.Vector{Z: 1})}
	out := ForwardKinematics(tree, NewJointPva(tree), base, PoseVelocityAcceleration)
	test.That(t, out[0].Pose.AlmostEqual(base.Pose, 1e-12), test.ShouldBeTrue)
	test.That(t, spatialmath.R3VectorAlmostEqual(out[1].Pose.Translation, r3.Vector{X: 1, Z: 1}, 1e-12), test.ShouldBeTrue)
	test.That(t, spatialmath.R3VectorAlmostEqual(out[2].Pose.Translation, r3.Vector{X: 1, Y: 2, Z: 1}, 1e-12), test.ShouldBeTrue)
	test.That(t, spatialmath.QuaternionAlmostEqual(out[2].Pose.Rotation, spatialmath.QuatRotZ(math.Pi/2), 1e-12),
		test.ShouldBeTrue)
	motionClose(t, out[2].Velocity, spatialmath.MotionVector{}, 1e-15)
	motionClose(t, out[2].Acceleration, spatialmath.MotionVector{}, 1e-15)
}

func TestForwardKinematicsRevolute(t *testing.T) {
	tree := bodytree.NewBodyTree()
	b1 := testutils.MustAddBody(t, tree, 0, bodytree.RevoluteZ, spatialmath.NewTranslation(r3.Vector{X: 1}),
		bodytree.NewBody(spatialmath.NewMassPropsAtCom(1, r3.Vector{}, testutils.SmallInertia)))
	testutils.MustAddBody(t, tree, b1, bodytree.Fixed, spatialmath.NewTranslation(r3.Vector{X: 1}), bodytree.Body{})

	pva := NewJointPva(tree)
	pva.Position[0] = math.Pi / 2
	pva.Velocity[0] = 2
	pva.Acceleration[0] = 3
	out := ForwardKinematics(tree, pva, spatialmath.NewCartesianPva(), PoseVelocityAcceleration)

	test.That(t, spatialmath.R3VectorAlmostEqual(out[2].Pose.Translation, r3.Vector{X: 1, Y: 1}, 1e-12), test.ShouldBeTrue)
	// tip moves along -x at radius 1
	motionClose(t, out[2].Velocity, spatialmath.MotionVector{Angular: r3.Vector{Z: 2}, Linear: r3.Vector{X: -2}}, 1e-12)
	// tangential -3 along x, centripetal -4 along y
	motionClose(t, out[2].Acceleration,
		spatialmath.MotionVector{Angular: r3.Vector{Z: 3}, Linear: r3.Vector{X: -3, Y: -4}}, 1e-12)

	t.Run("pose only leaves rates at zero", func(t *testing.T) {
		base := spatialmath.NewCartesianPva()
		base.Velocity.Linear = r3.Vector{X: 1}
		out := ForwardKinematics(tree, pva, base, PoseOnly)
		motionClose(t, out[2].Velocity, spatialmath.MotionVector{}, 1e-15)
		motionClose(t, out[0].Velocity, spatialmath.MotionVector{}, 1e-15)
		test.That(t, spatialmath.R3VectorAlmostEqual(out[2].Pose.Translation, r3.Vector{X: 1, Y: 1}, 1e-12),
			test.ShouldBeTrue)

		out = ForwardKinematics(tree, pva, base, PoseVelocity)
		motionClose(t, out[2].Acceleration, spatialmath.MotionVector{}, 1e-15)
		motionClose(t, out[2].Velocity, spatialmath.MotionVector{Angular: r3.Vector{Z: 2}, Linear: r3.Vector{X: -1}}, 1e-12)
	})
}

func TestForwardKinematicsMovingBase(t *testing.T) {
	tree := testutils.MixedTree(t)
	base := spatialmath.CartesianPva{
		Pose: spatialmath.NewTransform(spatialmath.QuatRotY(0.4), r3.Vector{X: -1, Y: 0.5}),
		Velocity: spatialmath.MotionVector{
			Angular: r3.Vector{X: 0.2, Y: -0.1, Z: 0.5},
			Linear:  r3.Vector{X: 1, Z: -0.3},
		},
	}
	pva := JointPva{Position: testutils.SamplePosition(tree)}
	out := ForwardKinematics(tree, pva, base, PoseVelocity)
	w := base.Velocity.Angular
	for i := 1; i < tree.NumBodies(); i++ {
		r := out[i].Pose.Translation.Sub(out[0].Pose.Translation)
		want := spatialmath.MotionVector{Angular: w, Linear: base.Velocity.Linear.Add(w.Cross(r))}
		motionClose(t, out[i].Velocity, want, 1e-12)
	}
}

// Central differences of poses along q(t) = q + qd*t must reproduce the computed body velocities.
func TestForwardVelocityFiniteDifference(t *testing.T) {
	const h = 1e-5
	for _, f := range fixtures {
		t.Run(f.name, func(t *testing.T) {
			tree := f.build(t)
			pva := samplePva(tree)
			base := spatialmath.NewCartesianPva()
			out := ForwardKinematics(tree, pva, base, PoseVelocity)

			var step bodytree.JointSpace
			for i := range step {
				step[i] = pva.Velocity[i] * h
			}
			plus := ForwardPose(tree, JointAddOffset(tree, pva.Position, step), base.Pose)
			for i := range step {
				step[i] = -step[i]
			}
			minus := ForwardPose(tree, JointAddOffset(tree, pva.Position, step), base.Pose)

			for i := 1; i < tree.NumBodies(); i++ {
				dq := quat.Mul(plus[i].Pose.Rotation, quat.Conj(minus[i].Pose.Rotation))
				want := spatialmath.MotionVector{
					Angular: spatialmath.QuatLog(dq).Mul(1 / (2 * h)),
					Linear:  plus[i].Pose.Translation.Sub(minus[i].Pose.Translation).Mul(1 / (2 * h)),
				}
				motionClose(t, out[i].Velocity, want, 1e-7)
			}
		})
	}
}

func TestBodyComKinematics(t *testing.T) {
	tree := testutils.MixedTree(t)
	out := ForwardKinematics(tree, samplePva(tree), spatialmath.NewCartesianPva(), PoseVelocityAcceleration)
	com := BodyComKinematics(tree, out)
	for i, body := range tree.Bodies() {
		c := body.MassProps.CenterOfMass
		test.That(t, spatialmath.R3VectorAlmostEqual(com[i].Pose.Translation, out[i].Pose.TransformPoint(c), 1e-12),
			test.ShouldBeTrue)
		arm := out[i].Pose.RotateVector(c)
		w := out[i].Velocity.Angular
		motionClose(t, com[i].Velocity,
			spatialmath.MotionVector{Angular: w, Linear: out[i].Velocity.Linear.Add(w.Cross(arm))}, 1e-12)
		test.That(t, com[i].Acceleration.Angular, test.ShouldResemble, out[i].Acceleration.Angular)
		test.That(t, com[i].Pose.Rotation, test.ShouldResemble, out[i].Pose.Rotation)
	}
}

func TestJointAddOffsetDifference(t *testing.T) {
	for _, f := range fixtures {
		t.Run(f.name, func(t *testing.T) {
			tree := f.build(t)
			q := testutils.SamplePosition(tree)
			delta := testutils.SampleRates(tree, 0.4)
			moved := JointAddOffset(tree, q, delta)
			back := JointDifference(tree, moved, q)
			for i := 0; i < tree.NumDofs(); i++ {
				test.That(t, back[i], test.ShouldAlmostEqual, delta[i], 1e-12)
			}
			zero := JointDifference(tree, q, q)
			for i := 0; i < tree.NumDofs(); i++ {
				test.That(t, zero[i], test.ShouldAlmostEqual, 0, 1e-15)
			}
		})
	}
}

func TestOptionString(t *testing.T) {
	test.That(t, PoseOnly.String(), test.ShouldEqual, "pose")
	test.That(t, PoseVelocityAcceleration.String(), test.ShouldEqual, "pose_velocity_acceleration")
	test.That(t, Option(9).String(), test.ShouldEqual, "unknown")
}
