package ik

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"

	"go.viam.com/bodytree/bodytree"
	"go.viam.com/bodytree/kinematics"
	"go.viam.com/bodytree/linalg"
	"go.viam.com/bodytree/logging"
	"go.viam.com/bodytree/spatialmath"
)

// Result holds the final state of a solve, whatever its outcome, so that a failed solve can be diagnosed without
// recomputing anything.
type Result struct {
	Info          Info
	JointPosition bodytree.JointSpacePosition
	BodyCartesian kinematics.BodyCartesianPva
	Jacobian      kinematics.Jacobian
	ComputedPose  spatialmath.Transform
	TargetPose    spatialmath.Transform
	PoseError     [6]float64
	// Error is the weighted squared norm of PoseError.
	Error      float64
	Iterations int
}

// Iteration describes one completed solver step.
type Iteration struct {
	Iteration int
	Error     float64
	Damping   float64
	StepNorm  float64
}

// Solver runs damped least squares iterations. A Solver holds no state between solves and may be reused.
type Solver struct {
	params      Params
	logger      logging.Logger
	onIteration func(Iteration)
}

// NewSolver returns a solver that logs each iteration at debug level through logger.
func NewSolver(logger logging.Logger, params Params) *Solver {
	return &Solver{params: params, logger: logger}
}

// SetIterationHook registers fn to be called after every iteration. It is used to record convergence.
func (s *Solver) SetIterationHook(fn func(Iteration)) {
	s.onIteration = fn
}

// ComputeInverseKinematics searches, starting at initial, for a joint position that brings bodyIndex to target
// while the base stays at basePose. It does not log.
func ComputeInverseKinematics(
	tree *bodytree.BodyTree,
	params Params,
	initial bodytree.JointSpacePosition,
	bodyIndex int,
	target spatialmath.Transform,
	basePose spatialmath.Transform,
) Result {
	res, _ := NewSolver(logging.NewBlankLogger("ik"), params).Solve(
		context.Background(), tree, initial, bodyIndex, target, basePose)
	return res
}

// Solve searches, starting at initial, for a joint position that brings bodyIndex to target while the base stays
// at basePose. The outcome is reported in Result.Info. The error is non-nil only when ctx ends the solve early, in
// which case the result holds the last state reached and Info is MaximumEvaluationsReached.
func (s *Solver) Solve(
	ctx context.Context,
	tree *bodytree.BodyTree,
	initial bodytree.JointSpacePosition,
	bodyIndex int,
	target spatialmath.Transform,
	basePose spatialmath.Transform,
) (Result, error) {
	res := Result{
		Info:          InvalidInput,
		JointPosition: initial,
		TargetPose:    target.Normalize(),
	}
	if err := s.params.Validate(); err != nil {
		s.logger.Warnw("cannot solve", "error", err)
		return res, nil
	}
	if !finite(target) || !finite(basePose) {
		s.logger.Warnw("cannot solve for a non-finite pose", "target", target.String(), "base", basePose.String())
		return res, nil
	}
	if floats.HasNaN(initial[:tree.NumCoordinates()]) || hasInf(initial[:tree.NumCoordinates()]) {
		s.logger.Warnw("cannot solve from a non-finite joint position", "position", initial[:tree.NumCoordinates()])
		return res, nil
	}
	_, count, err := tree.BodyDofs(bodyIndex)
	if err != nil || count == 0 {
		s.logger.Warnw("cannot solve for a body without dofs", "body", bodyIndex, "error", err)
		return res, nil
	}

	n := tree.NumDofs()
	w := s.params.ObjectiveWeights
	if err := s.evaluate(tree, bodyIndex, basePose, &res); err != nil {
		return res, nil
	}

	a := make([]float64, n*n)
	b := make([]float64, n)
	delta := make([]float64, n)
	info := MaximumEvaluationsReached
	for res.Error > s.params.ObjectiveTol && res.Iterations < s.params.MaxIterations {
		if err := ctx.Err(); err != nil {
			res.Info = MaximumEvaluationsReached
			return res, err
		}

		// (J^T W J + (E + lambda) I) delta = J^T W e
		damping := res.Error + s.params.DampingFactor
		jtj := kinematics.JacobianTransposeMultiplyJacobian(&res.Jacobian, w)
		var we [6]float64
		for i := range we {
			we[i] = w[i] * res.PoseError[i]
		}
		grad := kinematics.JacobianTransposeMultiply(&res.Jacobian, we)
		for r := 0; r < n; r++ {
			copy(a[r*n:(r+1)*n], jtj[r][:n])
			a[r*n+r] += damping
		}
		copy(b, grad[:n])
		if err := linalg.Solve(n, a, b, delta); err != nil {
			s.logger.Debugw("update matrix is singular", "iteration", res.Iterations, "error", err)
			info = SingularUpdateMatrix
			break
		}

		var step bodytree.JointSpace
		copy(step[:], delta)
		previous := res.Error
		res.JointPosition = kinematics.JointAddOffset(tree, res.JointPosition, step)
		res.Iterations++
		if err := s.evaluate(tree, bodyIndex, basePose, &res); err != nil {
			break
		}

		it := Iteration{Iteration: res.Iterations, Error: res.Error, Damping: damping, StepNorm: floats.Norm(delta, 2)}
		s.logger.Debugw("iteration", "iteration", it.Iteration, "error", it.Error, "damping", it.Damping, "step", it.StepNorm)
		if s.onIteration != nil {
			s.onIteration(it)
		}
		if res.Error <= s.params.ObjectiveTol {
			break
		}
		if stalled := s.stalled(previous, res.Error, it.StepNorm); stalled != MaximumEvaluationsReached {
			info = stalled
			break
		}
	}
	if res.Error <= s.params.ObjectiveTol {
		info = Success
	}
	res.Info = info
	s.logger.Infow("inverse kinematics finished",
		"info", res.Info.String(),
		"iterations", res.Iterations,
		"error", res.Error,
		"position_dist", PositionDist(res.ComputedPose, res.TargetPose),
		"orient_dist_deg", OrientDist(res.ComputedPose, res.TargetPose),
	)
	return res, nil
}

// evaluate recomputes poses, the Jacobian and the error of res at res.JointPosition.
func (s *Solver) evaluate(tree *bodytree.BodyTree, bodyIndex int, basePose spatialmath.Transform, res *Result) error {
	res.BodyCartesian = kinematics.ForwardPose(tree, res.JointPosition, basePose)
	jac, err := kinematics.CalculateJacobian(bodyIndex, tree, &res.BodyCartesian)
	if err != nil {
		return err
	}
	res.Jacobian = jac
	res.ComputedPose = res.BodyCartesian[bodyIndex].Pose
	res.PoseError = PoseError(res.ComputedPose, res.TargetPose)
	res.Error = WeightedError(res.PoseError, s.params.ObjectiveWeights)
	return nil
}

// stalled reports the relative convergence checks that are enabled, or MaximumEvaluationsReached if none fired.
func (s *Solver) stalled(previous, current, stepNorm float64) Info {
	ftol := false
	if s.params.FunctionTol > 0 && previous > 0 {
		ftol = math.Abs(previous-current) <= s.params.FunctionTol*previous
	}
	xtol := s.params.StepTol > 0 && stepNorm <= s.params.StepTol
	switch {
	case ftol && xtol:
		return WithinFtolXtol
	case ftol:
		return WithinFtol
	case xtol:
		return WithinXtol
	}
	return MaximumEvaluationsReached
}

func hasInf(s []float64) bool {
	for _, v := range s {
		if math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

func finite(t spatialmath.Transform) bool {
	for _, v := range []float64{
		t.Rotation.Real, t.Rotation.Imag, t.Rotation.Jmag, t.Rotation.Kmag,
		t.Translation.X, t.Translation.Y, t.Translation.Z,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
