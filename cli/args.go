package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"go.viam.com/bodytree/bodytree"
	"go.viam.com/bodytree/spatialmath"
	"go.viam.com/bodytree/utils"
)

// parsePosition reads the position flag, or returns the neutral position of tree when it is not set.
func parsePosition(c *cli.Context, tree *bodytree.BodyTree) (bodytree.JointSpacePosition, error) {
	q := tree.NeutralPosition()
	if !c.IsSet(flagPosition) {
		return q, nil
	}
	values, err := utils.ParseFloats(c.String(flagPosition))
	if err != nil {
		return q, errors.Wrapf(err, "cannot parse --%s", flagPosition)
	}
	if len(values) != tree.NumCoordinates() {
		return q, errors.Wrapf(utils.NewLengthMismatchError("joint position", tree.NumCoordinates(), len(values)),
			"--%s", flagPosition)
	}
	copy(q[:], values)
	return q, nil
}

// parseRates reads a velocity or acceleration flag. It reports whether the flag was set.
func parseRates(c *cli.Context, flag string, tree *bodytree.BodyTree) (bodytree.JointSpace, bool, error) {
	var qd bodytree.JointSpace
	if !c.IsSet(flag) {
		return qd, false, nil
	}
	values, err := utils.ParseFloats(c.String(flag))
	if err != nil {
		return qd, false, errors.Wrapf(err, "cannot parse --%s", flag)
	}
	if len(values) != tree.NumDofs() {
		return qd, false, errors.Wrapf(utils.NewLengthMismatchError("joint "+flag, tree.NumDofs(), len(values)),
			"--%s", flag)
	}
	copy(qd[:], values)
	return qd, true, nil
}

// parseTarget reads x,y,z or x,y,z,roll,pitch,yaw with the angles in degrees.
func parseTarget(s string) (spatialmath.Transform, error) {
	values, err := utils.ParseFloats(s)
	if err != nil {
		return spatialmath.Transform{}, errors.Wrapf(err, "cannot parse --%s", flagTarget)
	}
	rotation := spatialmath.QuatIdentity()
	switch len(values) {
	case 3:
	case 6:
		rotation = spatialmath.EulerToQuat(spatialmath.EulerAngles{
			Roll:  utils.DegToRad(values[3]),
			Pitch: utils.DegToRad(values[4]),
			Yaw:   utils.DegToRad(values[5]),
		})
	default:
		return spatialmath.Transform{}, errors.Errorf("--%s needs 3 or 6 values, got %d", flagTarget, len(values))
	}
	return spatialmath.NewTransform(rotation, r3.Vector{X: values[0], Y: values[1], Z: values[2]}), nil
}

// resolveBody accepts a body name or index.
func resolveBody(model *bodytree.Model, s string) (int, error) {
	if index, err := model.BodyIndex(s); err == nil {
		return index, nil
	}
	index, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Errorf("model %q has no body %q", model.Name, s)
	}
	if index < 0 || index >= model.Tree.NumBodies() {
		return 0, utils.NewIndexOutOfRangeError("body", index, model.Tree.NumBodies())
	}
	return index, nil
}

func fmtVec(v r3.Vector) string {
	return fmt.Sprintf("X:%.4f, Y:%.4f, Z:%.4f", clean(v.X), clean(v.Y), clean(v.Z))
}

// clean drops rounding noise so that a zero never prints as -0.0000.
func clean(x float64) float64 {
	if math.Abs(x) < 1e-12 {
		return 0
	}
	return x
}

func fmtOrientation(t spatialmath.Transform) string {
	ea := spatialmath.QuatToEuler(t.Rotation)
	return fmt.Sprintf("Roll:%.2f, Pitch:%.2f, Yaw:%.2f",
		utils.RadToDeg(ea.Roll), utils.RadToDeg(ea.Pitch), utils.RadToDeg(ea.Yaw))
}

// fmtFloats formats values so that utils.ParseFloats reads them back.
func fmtFloats(values []float64) string {
	return strings.Join(lo.Map(values, func(v float64, _ int) string {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}), ",")
}
