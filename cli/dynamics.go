package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"go.viam.com/bodytree/dynamics"
	"go.viam.com/bodytree/kinematics"
	"go.viam.com/bodytree/spatialmath"
)

func (r *runner) inverseDynamicsAction(c *cli.Context) error {
	model, err := r.loadModel(c)
	if err != nil {
		return err
	}
	tree := model.Tree
	pva := kinematics.JointPva{}
	if pva.Position, err = parsePosition(c, tree); err != nil {
		return err
	}
	if pva.Velocity, _, err = parseRates(c, flagVelocity, tree); err != nil {
		return err
	}
	if pva.Acceleration, _, err = parseRates(c, flagAcceleration, tree); err != nil {
		return err
	}

	var none dynamics.BodyForces
	tau, forces := dynamics.JointTorques(tree, pva, spatialmath.NewCartesianPva(), &none)
	gravity := dynamics.GravityTorques(tree, pva.Position)

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Dof", "Joint", "Force", "Gravity Share"})
	for i, label := range dofLabels(model) {
		t.AppendRow(table.Row{i, label, fmt.Sprintf("%.6f", tau[i]), fmt.Sprintf("%.6f", gravity[i])})
	}
	printf(c.App.Writer, "%s", t.Render())
	printf(c.App.Writer, "Base reaction: force %s, moment %s", fmtVec(forces[0].Force), fmtVec(forces[0].Moment))
	return nil
}
