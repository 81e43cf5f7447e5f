package testutils

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/bodytree/bodytree"
	"go.viam.com/bodytree/spatialmath"
)

// SmallInertia is a positive definite inertia about the center of mass, used for most fixture bodies.
var SmallInertia = spatialmath.Inertia{XX: 0.01, YY: 0.02, ZZ: 0.015}

// MustAddBody adds a body and fails the test on error.
func MustAddBody(
	tb testing.TB,
	tree *bodytree.BodyTree,
	parent int,
	jt bodytree.JointType,
	t spatialmath.Transform,
	body bodytree.Body,
) int {
	tb.Helper()
	idx, err := tree.AddBody(parent, jt, t, body)
	test.That(tb, err, test.ShouldBeNil)
	return idx
}

// RevolutePrismaticRevolute returns a planar chain moving in the x-z plane:
//
//	base -revolute_y@(0,0,0)-> 1 -prismatic_x@(1,0,0)-> 2 -revolute_y@(0.5,0,0)-> 3
//
// with masses 2, 1 and 0.5 whose centers of mass lie at x = 0.5, 0.25 and 0.5 in their body frames.
// Gravity is (0, 0, -9.81).
func RevolutePrismaticRevolute(tb testing.TB) *bodytree.BodyTree {
	tb.Helper()
	tree := bodytree.NewBodyTree()
	tree.SetGravity(r3.Vector{Z: -9.81})
	b1 := MustAddBody(tb, tree, 0, bodytree.RevoluteY, spatialmath.NewZeroTransform(),
		bodytree.NewBody(spatialmath.NewMassPropsAtCom(2, r3.Vector{X: 0.5}, SmallInertia)))
	b2 := MustAddBody(tb, tree, b1, bodytree.PrismaticX, spatialmath.NewTranslation(r3.Vector{X: 1}),
		bodytree.NewBody(spatialmath.NewMassPropsAtCom(1, r3.Vector{X: 0.25}, SmallInertia)))
	MustAddBody(tb, tree, b2, bodytree.RevoluteY, spatialmath.NewTranslation(r3.Vector{X: 0.5}),
		bodytree.NewBody(spatialmath.NewMassPropsAtCom(0.5, r3.Vector{X: 0.5}, SmallInertia)))
	return tree
}

// MixedTree returns a branched tree that uses every joint type but cartesian, with rotated joint frames and
// origin offsets:
//
//	base -revolute_z-> 1 -spherical-> 2 -prismatic_y-> 3 -planar-> 4 -fixed-> 5
//	                   1 -revolute_x-> 6
func MixedTree(tb testing.TB) *bodytree.BodyTree {
	tb.Helper()
	tree := bodytree.NewBodyTree()
	body := func(m float64, com r3.Vector) bodytree.Body {
		return bodytree.NewBody(spatialmath.NewMassPropsAtCom(m, com, SmallInertia))
	}
	b1 := MustAddBody(tb, tree, 0, bodytree.RevoluteZ,
		spatialmath.NewTranslation(r3.Vector{Z: 0.1}),
		body(3, r3.Vector{Z: 0.2}))
	b2 := MustAddBody(tb, tree, b1, bodytree.Spherical,
		spatialmath.NewTransform(spatialmath.QuatRotX(0.3), r3.Vector{X: 0.2, Z: 0.3}),
		bodytree.NewBodyWithOffset(
			spatialmath.NewMassPropsAtCom(2, r3.Vector{X: 0.1, Y: 0.05}, SmallInertia),
			spatialmath.MotionVector{Angular: r3.Vector{Y: 0.01}, Linear: r3.Vector{X: 0.002}},
		))
	b3 := MustAddBody(tb, tree, b2, bodytree.PrismaticY,
		spatialmath.NewTransform(spatialmath.QuatRotZ(-0.4), r3.Vector{X: 0.4}),
		body(1.5, r3.Vector{Y: 0.1, Z: -0.05}))
	b4 := MustAddBody(tb, tree, b3, bodytree.Planar,
		spatialmath.NewTransform(spatialmath.QuatRotY(0.7), r3.Vector{Y: 0.25}),
		body(1, r3.Vector{X: 0.05, Z: 0.1}))
	MustAddBody(tb, tree, b4, bodytree.Fixed,
		spatialmath.NewTransform(spatialmath.QuatRotX(math.Pi/2), r3.Vector{Z: 0.15}),
		bodytree.NewBodyWithOffset(
			spatialmath.NewMassPropsAtCom(0.2, r3.Vector{Z: 0.02}, SmallInertia),
			spatialmath.MotionVector{Angular: r3.Vector{X: -0.02}},
		))
	MustAddBody(tb, tree, b1, bodytree.RevoluteX,
		spatialmath.NewTransform(spatialmath.QuatRotY(0.2), r3.Vector{X: -0.3, Z: 0.2}),
		body(0.7, r3.Vector{X: -0.1}))
	return tree
}

// FloatingTree returns a free-floating chain:
//
//	base -cartesian-> 1 -revolute_y-> 2 -spherical-> 3 -fixed-> 4
func FloatingTree(tb testing.TB) *bodytree.BodyTree {
	tb.Helper()
	tree := bodytree.NewBodyTree()
	body := func(m float64, com r3.Vector) bodytree.Body {
		return bodytree.NewBody(spatialmath.NewMassPropsAtCom(m, com, SmallInertia))
	}
	b1 := MustAddBody(tb, tree, 0, bodytree.Cartesian,
		spatialmath.NewTransform(spatialmath.QuatRotZ(0.5), r3.Vector{X: 0.1, Y: -0.2, Z: 0.3}),
		body(10, r3.Vector{Z: 0.05}))
	b2 := MustAddBody(tb, tree, b1, bodytree.RevoluteY,
		spatialmath.NewTransform(spatialmath.QuatRotX(-0.25), r3.Vector{X: 0.3}),
		body(2, r3.Vector{X: 0.2}))
	b3 := MustAddBody(tb, tree, b2, bodytree.Spherical,
		spatialmath.NewTranslation(r3.Vector{X: 0.4, Z: 0.1}),
		body(1, r3.Vector{X: 0.1, Z: 0.02}))
	MustAddBody(tb, tree, b3, bodytree.Fixed,
		spatialmath.NewTranslation(r3.Vector{X: 0.12}),
		bodytree.NewBody(spatialmath.NewMassProps(0, r3.Vector{}, spatialmath.Inertia{})))
	return tree
}

// SixAxisArm returns a six revolute joint arm with the usual shoulder-elbow-wrist layout. Body 6 is the flange.
func SixAxisArm(tb testing.TB) *bodytree.BodyTree {
	tb.Helper()
	tree := bodytree.NewBodyTree()
	links := []struct {
		jt bodytree.JointType
		t  r3.Vector
	}{
		{bodytree.RevoluteZ, r3.Vector{Z: 0.1}},
		{bodytree.RevoluteY, r3.Vector{Z: 0.2}},
		{bodytree.RevoluteY, r3.Vector{X: 0.05, Z: 0.4}},
		{bodytree.RevoluteX, r3.Vector{X: 0.3}},
		{bodytree.RevoluteY, r3.Vector{X: 0.1}},
		{bodytree.RevoluteX, r3.Vector{X: 0.08}},
	}
	parent := 0
	for i, l := range links {
		mass := 3.0 - 0.4*float64(i)
		parent = MustAddBody(tb, tree, parent, l.jt, spatialmath.NewTranslation(l.t),
			bodytree.NewBody(spatialmath.NewMassPropsAtCom(mass, l.t.Mul(0.5), SmallInertia)))
	}
	return tree
}

// SamplePosition returns a deterministic, non-trivial joint position for tree.
func SamplePosition(tree *bodytree.BodyTree) bodytree.JointSpacePosition {
	q := tree.NeutralPosition()
	for i, joint := range tree.Joints() {
		c := joint.CoordIndex
		s := 0.1 * float64(i+1)
		switch joint.Type {
		case bodytree.Spherical, bodytree.Cartesian:
			rot := spatialmath.QuatExp(r3.Vector{X: 0.3 * s, Y: -0.5 * s, Z: 0.2})
			q[c], q[c+1], q[c+2], q[c+3] = rot.Real, rot.Imag, rot.Jmag, rot.Kmag
			if joint.Type == bodytree.Cartesian {
				q[c+4], q[c+5], q[c+6] = 0.2, -0.1*s, 0.3
			}
		case bodytree.Fixed:
		default:
			for k := 0; k < joint.Type.NumCoordinates(); k++ {
				q[c+k] = s + 0.15*float64(k)
			}
		}
	}
	return q
}

// SampleRates returns a deterministic joint velocity or acceleration for tree, scaled by scale.
func SampleRates(tree *bodytree.BodyTree, scale float64) bodytree.JointSpace {
	var qd bodytree.JointSpace
	for i := 0; i < tree.NumDofs(); i++ {
		qd[i] = scale * (0.3 - 0.17*float64(i%5) + 0.05*float64(i))
	}
	return qd
}
