package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/bodytree/kinematics"
	"go.viam.com/bodytree/spatialmath"
)

func (r *runner) forwardKinematicsAction(c *cli.Context) error {
	model, err := r.loadModel(c)
	if err != nil {
		return err
	}
	tree := model.Tree
	pva := kinematics.JointPva{}
	if pva.Position, err = parsePosition(c, tree); err != nil {
		return err
	}
	option := kinematics.PoseOnly
	var set bool
	if pva.Velocity, set, err = parseRates(c, flagVelocity, tree); err != nil {
		return err
	} else if set {
		option = kinematics.PoseVelocity
	}
	if pva.Acceleration, set, err = parseRates(c, flagAcceleration, tree); err != nil {
		return err
	} else if set {
		option = kinematics.PoseVelocityAcceleration
	}

	motion := kinematics.ForwardKinematics(tree, pva, spatialmath.NewCartesianPva(), option)
	if c.Bool(flagCom) {
		motion = kinematics.BodyComKinematics(tree, motion)
	}
	r.logger.Debugw("forward kinematics", "option", option.String(), "com", c.Bool(flagCom))

	t := table.NewWriter()
	header := table.Row{"#", "Name", "Translation", "Orientation"}
	if option >= kinematics.PoseVelocity {
		header = append(header, "Angular Velocity", "Linear Velocity")
	}
	if option >= kinematics.PoseVelocityAcceleration {
		header = append(header, "Angular Acceleration", "Linear Acceleration")
	}
	t.AppendHeader(header)
	for i := 0; i < tree.NumBodies(); i++ {
		m := motion[i]
		row := table.Row{i, model.BodyName(i), fmtVec(m.Pose.Translation), fmtOrientation(m.Pose)}
		if option >= kinematics.PoseVelocity {
			row = append(row, fmtVec(m.Velocity.Angular), fmtVec(m.Velocity.Linear))
		}
		if option >= kinematics.PoseVelocityAcceleration {
			row = append(row, fmtVec(m.Acceleration.Angular), fmtVec(m.Acceleration.Linear))
		}
		t.AppendRow(row)
	}
	printf(c.App.Writer, "%s", t.Render())
	if index, ok := tree.JointLimitsSatisfied(pva.Position); !ok {
		warningf(c.App.Writer, "joint %d is outside its position limit", index)
	}
	return nil
}

func (r *runner) jacobianAction(c *cli.Context) error {
	model, err := r.loadModel(c)
	if err != nil {
		return err
	}
	tree := model.Tree
	q, err := parsePosition(c, tree)
	if err != nil {
		return err
	}
	bodyIndex, err := resolveBody(model, c.String(flagBody))
	if err != nil {
		return err
	}

	poses := kinematics.ForwardPose(tree, q, spatialmath.NewZeroTransform())
	jac, err := kinematics.CalculateJacobian(bodyIndex, tree, &poses)
	if err != nil {
		return err
	}
	switch frame := c.String(flagFrame); frame {
	case frameSpace:
	case frameBody:
		jac = kinematics.SpatialJacobianSpaceToBody(&jac, poses[bodyIndex].Pose)
	default:
		return errors.Errorf("unknown frame %q, expected %q or %q", frame, frameSpace, frameBody)
	}

	labels := dofLabels(model)
	t := table.NewWriter()
	header := table.Row{""}
	for _, label := range labels {
		header = append(header, label)
	}
	t.AppendHeader(header)
	for i, name := range []string{"wx", "wy", "wz", "vx", "vy", "vz"} {
		row := table.Row{name}
		for col := range labels {
			row = append(row, fmt.Sprintf("%.4f", jac.At(i, col)))
		}
		t.AppendRow(row)
	}
	printf(c.App.Writer, "Jacobian of %q in the %s frame", model.BodyName(bodyIndex), c.String(flagFrame))
	printf(c.App.Writer, "%s", t.Render())
	return nil
}
