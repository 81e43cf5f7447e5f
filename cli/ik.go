package cli

import (
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"go.viam.com/bodytree/ik"
	"go.viam.com/bodytree/spatialmath"
)

func (r *runner) inverseKinematicsAction(c *cli.Context) error {
	model, err := r.loadModel(c)
	if err != nil {
		return err
	}
	tree := model.Tree
	initial, err := parsePosition(c, tree)
	if err != nil {
		return err
	}
	bodyIndex, err := resolveBody(model, c.String(flagBody))
	if err != nil {
		return err
	}
	target, err := parseTarget(c.String(flagTarget))
	if err != nil {
		return err
	}

	params := ik.DefaultParams()
	if c.IsSet(flagMaxIterations) {
		params.MaxIterations = c.Int(flagMaxIterations)
	}
	if c.IsSet(flagTolerance) {
		params.ObjectiveTol = c.Float64(flagTolerance)
	}
	if err := params.Validate(); err != nil {
		return err
	}

	solver := ik.NewSolver(r.logger.Sublogger("ik"), params)
	var history []ik.Iteration
	solver.SetIterationHook(func(it ik.Iteration) { history = append(history, it) })
	res, err := solver.Solve(c.Context, tree, initial, bodyIndex, target, spatialmath.NewZeroTransform())
	if err != nil {
		return err
	}

	w := c.App.Writer
	if res.Info == ik.Success {
		successf(w, "Reached %q in %d iterations", model.BodyName(bodyIndex), res.Iterations)
	} else {
		warningf(w, "stopped after %d iterations without reaching %q: %s",
			res.Iterations, model.BodyName(bodyIndex), res.Info)
	}
	printf(w, "Position: %s", fmtFloats(res.JointPosition[:tree.NumCoordinates()]))
	printf(w, "Pose: %s, %s", fmtVec(res.ComputedPose.Translation), fmtOrientation(res.ComputedPose))
	printf(w, "Error: %.3g (%.3g position, %.3g degrees)", res.Error,
		ik.PositionDist(res.ComputedPose, res.TargetPose), ik.OrientDist(res.ComputedPose, res.TargetPose))
	if index, ok := tree.JointLimitsSatisfied(res.JointPosition); !ok {
		warningf(w, "joint %d is outside its position limit", index)
	}

	if path := c.String(flagPlot); path != "" {
		if len(history) == 0 {
			warningf(w, "no iterations ran, not writing %s", path)
			return nil
		}
		if err := saveConvergencePlot(path, model.BodyName(bodyIndex), history); err != nil {
			return err
		}
		printf(w, "Wrote %s", path)
	}
	return nil
}

// saveConvergencePlot draws the weighted pose error of each iteration. The file format follows the extension.
func saveConvergencePlot(path, body string, history []ik.Iteration) error {
	p := plot.New()
	p.Title.Text = "Inverse kinematics of " + body
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "weighted pose error"

	pts := make(plotter.XYs, len(history))
	for i, it := range history {
		pts[i].X = float64(it.Iteration)
		pts[i].Y = it.Error
	}
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return errors.Wrap(err, "cannot plot convergence")
	}
	line.LineStyle.Width = vg.Points(1.5)
	points.GlyphStyle.Radius = vg.Points(2)
	p.Add(line, points, plotter.NewGrid())

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "cannot save plot to %s", path)
	}
	return nil
}
