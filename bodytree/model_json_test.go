package bodytree_test

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/test"

	"go.viam.com/bodytree/bodytree"
	"go.viam.com/bodytree/logging"
	"go.viam.com/bodytree/spatialmath"
	"go.viam.com/bodytree/testutils"
)

// sameStructure checks that got starts with the bodies and joints of want.
func sameStructure(t *testing.T, got, want *bodytree.BodyTree) {
	t.Helper()
	test.That(t, got.Gravity(), test.ShouldResemble, want.Gravity())
	for i, wj := range want.Joints() {
		gj, err := got.Joint(i)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, gj.Type, test.ShouldEqual, wj.Type)
		test.That(t, gj.ParentBodyIndex, test.ShouldEqual, wj.ParentBodyIndex)
		test.That(t, gj.CoordIndex, test.ShouldEqual, wj.CoordIndex)
		test.That(t, gj.ParentJointTransform.AlmostEqual(wj.ParentJointTransform, 1e-12), test.ShouldBeTrue)
	}
	for i, wb := range want.Bodies() {
		gb, err := got.Body(i)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, gb.MassProps.Mass, test.ShouldAlmostEqual, wb.MassProps.Mass, 1e-12)
		test.That(t, spatialmath.R3VectorAlmostEqual(gb.MassProps.CenterOfMass, wb.MassProps.CenterOfMass, 1e-12),
			test.ShouldBeTrue)
		test.That(t, gb.MassProps.Inertia.XX, test.ShouldAlmostEqual, wb.MassProps.Inertia.XX, 1e-12)
		test.That(t, gb.MassProps.Inertia.ZZ, test.ShouldAlmostEqual, wb.MassProps.Inertia.ZZ, 1e-12)
	}
}

func TestParseModelJSONFile(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	model, err := bodytree.ParseModelJSONFile(
		testutils.ResolveFile("bodytree/testfiles/revolute_prismatic_revolute.json"), "", logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, model.Name, test.ShouldEqual, "rpr")
	// forearm is declared first but waits for its parent
	test.That(t, model.BodyNames(), test.ShouldResemble, []string{"base", "shoulder", "slider", "forearm"})
	sameStructure(t, model.Tree, testutils.RevolutePrismaticRevolute(t))
	test.That(t, model.Tree.NumBodies(), test.ShouldEqual, 4)
	test.That(t, logs.FilterMessage("added body").Len(), test.ShouldEqual, 3)

	idx, err := model.BodyIndex("slider")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, idx, test.ShouldEqual, 2)
	test.That(t, model.BodyName(3), test.ShouldEqual, "forearm")
	test.That(t, model.BodyName(4), test.ShouldEqual, "")
	test.That(t, model.BodyName(-1), test.ShouldEqual, "")
	_, err = model.BodyIndex("gripper")
	test.That(t, err, test.ShouldNotBeNil)

	limit, ok, err := model.Tree.JointPositionLimit(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, limit, test.ShouldResemble, bodytree.Limit{Min: -3, Max: 3})
	vmax, ok, err := model.Tree.JointVelocityLimit(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, vmax, test.ShouldEqual, 2.)
	limit, ok, err = model.Tree.JointPositionLimit(1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, limit, test.ShouldResemble, bodytree.Limit{Min: 0, Max: 0.4})
	_, ok, err = model.Tree.JointPositionLimit(2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeFalse)

	t.Run("name override", func(t *testing.T) {
		model, err := bodytree.ParseModelJSONFile(
			testutils.ResolveFile("bodytree/testfiles/revolute_prismatic_revolute.json"), "renamed", nil)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, model.Name, test.ShouldEqual, "renamed")
	})
}

func TestSixAxisArmJSON(t *testing.T) {
	model, err := bodytree.ParseModelJSONFile(testutils.ResolveFile("bodytree/testfiles/six_axis_arm.json"), "", nil)
	test.That(t, err, test.ShouldBeNil)
	sameStructure(t, model.Tree, testutils.SixAxisArm(t))
	test.That(t, model.Tree.NumBodies(), test.ShouldEqual, 8)
	test.That(t, model.Tree.NumDofs(), test.ShouldEqual, 6)
	test.That(t, model.Tree.Gravity(), test.ShouldResemble, bodytree.StandardGravity)

	tool, err := model.BodyIndex("tool")
	test.That(t, err, test.ShouldBeNil)
	joint, err := model.Tree.ParentJoint(tool)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, joint.Type, test.ShouldEqual, bodytree.Fixed)
	test.That(t, spatialmath.QuaternionAlmostEqual(joint.ParentJointTransform.Rotation,
		spatialmath.QuatRotY(math.Pi/2), 1e-12), test.ShouldBeTrue)
	test.That(t, spatialmath.R3VectorAlmostEqual(joint.ParentJointTransform.Translation, r3.Vector{X: 0.05}, 1e-15),
		test.ShouldBeTrue)
	body, err := model.Tree.Body(tool)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, body.MassProps.Mass, test.ShouldEqual, 0.)
}

func TestUnmarshalModelJSONErrors(t *testing.T) {
	_, err := bodytree.UnmarshalModelJSON(nil, "", nil)
	test.That(t, err, test.ShouldBeError, bodytree.ErrNoModelInformation)

	_, err = bodytree.UnmarshalModelJSON([]byte(`{"bodies": [`), "", nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "failed to unmarshal json file")

	_, err = bodytree.ParseModelJSONFile("does/not/exist.json", "", nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "failed to read json file")

	const inertia = `"mass": 1, "inertia": {"xx": 0.1, "yy": 0.1, "zz": 0.1}`
	for _, tc := range []struct {
		name   string
		bodies string
		is     error
		count  int
		substr string
	}{
		{
			name:   "reserved name",
			bodies: `{"name": "base", "parent": "base", "joint": {"type": "fixed"}}`,
			count:  1,
			substr: "reserved word",
		},
		{
			name: "duplicate and unknown parent",
			bodies: `{"name": "a", "parent": "base", "joint": {"type": "fixed"}},
				{"name": "a", "parent": "base", "joint": {"type": "fixed"}},
				{"name": "b", "parent": "nowhere", "joint": {"type": "fixed"}}`,
			count:  2,
			substr: "duplicate body name",
		},
		{
			name: "cycle",
			bodies: `{"name": "a", "parent": "b", "joint": {"type": "fixed"}},
				{"name": "b", "parent": "a", "joint": {"type": "fixed"}}`,
			is:    bodytree.ErrCircularReference,
			count: 1,
		},
		{
			name:   "unknown joint type",
			bodies: `{"name": "a", "parent": "base", "joint": {"type": "helical"}, ` + inertia + `}`,
			is:     bodytree.ErrUnsupportedJointType,
			count:  1,
		},
		{
			name:   "massless moving body",
			bodies: `{"name": "a", "parent": "base", "joint": {"type": "revolute_z"}}`,
			is:     bodytree.ErrMassZero,
			count:  1,
		},
		{
			name:   "half a limit",
			bodies: `{"name": "a", "parent": "base", "joint": {"type": "revolute_z", "min": -1}, ` + inertia + `}`,
			is:     bodytree.ErrInvalidLimit,
			count:  1,
		},
		{
			name: "limit on a multi dof joint",
			bodies: `{"name": "a", "parent": "base", "joint": {"type": "spherical", "min": -1, "max": 1}, ` +
				inertia + `}`,
			is:    bodytree.ErrUnsupportedJointType,
			count: 1,
		},
		{
			name: "zero quaternion",
			bodies: `{"name": "a", "parent": "base", "joint": {"type": "fixed", ` +
				`"orientation": {"quaternion": {"w": 0, "x": 0, "y": 0, "z": 0}}}}`,
			count:  1,
			substr: "zero orientation quaternion",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := bodytree.UnmarshalModelJSON([]byte(`{"name": "bad", "bodies": [`+tc.bodies+`]}`), "", nil)
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, len(multierr.Errors(err)), test.ShouldEqual, tc.count)
			if tc.is != nil {
				test.That(t, errors.Is(err, tc.is), test.ShouldBeTrue)
			}
			if tc.substr != "" {
				test.That(t, err.Error(), test.ShouldContainSubstring, tc.substr)
			}
		})
	}
}

func TestOrientationConfig(t *testing.T) {
	jc := bodytree.JointConfig{
		Type:        "revolute_x",
		Translation: r3.Vector{Y: 1},
		Orientation: &bodytree.OrientationConfig{
			Quaternion: &bodytree.QuaternionConfig{W: 2, Z: 2},
			RPYDegrees: &spatialmath.EulerAngles{Roll: 45},
		},
	}
	jt, pose, err := jc.ParseConfig()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, jt, test.ShouldEqual, bodytree.RevoluteX)
	// the quaternion wins and is normalized
	test.That(t, spatialmath.QuaternionAlmostEqual(pose.Rotation, spatialmath.QuatRotZ(math.Pi/2), 1e-12),
		test.ShouldBeTrue)
	test.That(t, pose.Translation, test.ShouldResemble, r3.Vector{Y: 1})

	jc.Orientation.Quaternion = nil
	_, pose, err = jc.ParseConfig()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.QuaternionAlmostEqual(pose.Rotation, spatialmath.QuatRotX(math.Pi/4), 1e-12),
		test.ShouldBeTrue)
}
