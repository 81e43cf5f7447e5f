package cli

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"go.viam.com/bodytree/bodytree"
)

func (r *runner) describeAction(c *cli.Context) error {
	model, err := r.loadModel(c)
	if err != nil {
		return err
	}
	tree := model.Tree

	printf(c.App.Writer, "Model %q: %d bodies, %d joint coordinates, %d degrees of freedom, gravity %s",
		model.Name, tree.NumBodies(), tree.NumCoordinates(), tree.NumDofs(), fmtVec(tree.Gravity()))
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Name", "Parent", "Joint", "Coords", "Dofs", "Limit", "Max Velocity", "Mass"})
	t.AppendRow(table.Row{0, model.BodyName(0), "", "", "", "", "", "", ""})
	for i, joint := range tree.Joints() {
		body, err := tree.Body(joint.ChildBodyIndex)
		if err != nil {
			return err
		}
		limit, vmax := "", ""
		if joint.Type.IsSingleDof() {
			if l, ok, err := tree.JointPositionLimit(i); err == nil && ok {
				limit = fmt.Sprintf("[%g, %g]", l.Min, l.Max)
			}
			if v, ok, err := tree.JointVelocityLimit(i); err == nil && ok {
				vmax = fmt.Sprintf("%g", v)
			}
		}
		t.AppendRow(table.Row{
			joint.ChildBodyIndex,
			model.BodyName(joint.ChildBodyIndex),
			model.BodyName(joint.ParentBodyIndex),
			joint.Type.String(),
			bodytree.IndexRange(joint.CoordIndex, joint.Type.NumCoordinates()),
			bodytree.IndexRange(joint.DofIndex, joint.Type.NumDofs()),
			limit,
			vmax,
			fmt.Sprintf("%.3f", body.MassProps.Mass),
		})
	}
	printf(c.App.Writer, "%s", t.Render())

	leaves := lo.Map(tree.Leaves(), func(i, _ int) string { return model.BodyName(i) })
	printf(c.App.Writer, "Leaves: %s", strings.Join(leaves, ", "))
	return nil
}

// dofLabels names every degree of freedom after the body its joint moves.
func dofLabels(model *bodytree.Model) []string {
	labels := make([]string, model.Tree.NumDofs())
	for _, joint := range model.Tree.Joints() {
		for k := 0; k < joint.Type.NumDofs(); k++ {
			labels[joint.DofIndex+k] = fmt.Sprintf("%s[%d]", model.BodyName(joint.ChildBodyIndex), k)
		}
	}
	return labels
}
