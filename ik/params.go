// Package ik solves inverse kinematics over a bodytree.BodyTree with a damped least squares
// (Levenberg-Marquardt) iteration.
package ik

import (
	"math"

	"github.com/pkg/errors"
)

// Info is the outcome of an inverse kinematics solve. Every value but Success tells the caller that the returned
// configuration may not reach the target.
type Info int

// The possible outcomes of a solve.
const (
	// Success means the weighted pose error dropped below Params.ObjectiveTol.
	Success Info = iota
	// WithinFtol means the weighted error stopped decreasing by more than Params.FunctionTol.
	WithinFtol
	// WithinXtol means the joint increment became shorter than Params.StepTol.
	WithinXtol
	// WithinFtolXtol means both WithinFtol and WithinXtol held on the same iteration.
	WithinFtolXtol
	// MaximumEvaluationsReached means Params.MaxIterations iterations ran without converging.
	MaximumEvaluationsReached
	// SingularUpdateMatrix means the damped normal equations could not be solved.
	SingularUpdateMatrix
	// InvalidInput means the body, the tree or the parameters cannot be solved for.
	InvalidInput
)

func (i Info) String() string {
	switch i {
	case Success:
		return "success"
	case WithinFtol:
		return "within_ftol"
	case WithinXtol:
		return "within_xtol"
	case WithinFtolXtol:
		return "within_ftol_xtol"
	case MaximumEvaluationsReached:
		return "maximum_evaluations_reached"
	case SingularUpdateMatrix:
		return "singular_update_matrix"
	case InvalidInput:
		return "invalid_input"
	}
	return "unknown"
}

// Params tunes the solver.
type Params struct {
	MaxIterations int
	// ObjectiveTol is the weighted squared pose error at which the solve succeeds.
	ObjectiveTol float64
	// DampingFactor is added, together with the current error, to the diagonal of the normal equations.
	DampingFactor float64
	// ObjectiveWeights weigh the pose error rows: three rotation rows then three translation rows.
	ObjectiveWeights [6]float64
	// FunctionTol stops the solve when the relative decrease of the error in one iteration is at most this.
	// Zero disables the check.
	FunctionTol float64
	// StepTol stops the solve when the norm of the joint increment is at most this. Zero disables the check.
	StepTol float64
}

// Default solver settings.
const (
	defaultMaxIterations = 100
	defaultObjectiveTol  = 1e-10
	defaultDampingFactor = 1e-3
)

// DefaultParams returns the parameters used by ComputeInverseKinematics callers that have no better choice.
func DefaultParams() Params {
	return Params{
		MaxIterations:    defaultMaxIterations,
		ObjectiveTol:     defaultObjectiveTol,
		DampingFactor:    defaultDampingFactor,
		ObjectiveWeights: [6]float64{1, 1, 1, 1, 1, 1},
	}
}

var errInvalidParams = errors.New("invalid inverse kinematics parameters")

// Validate returns an error describing the first unusable parameter.
func (p Params) Validate() error {
	bad := func(v float64) bool { return v < 0 || math.IsNaN(v) || math.IsInf(v, 0) }
	switch {
	case p.MaxIterations < 0:
		return errors.Wrapf(errInvalidParams, "max iterations %d", p.MaxIterations)
	case bad(p.ObjectiveTol):
		return errors.Wrapf(errInvalidParams, "objective tolerance %v", p.ObjectiveTol)
	case bad(p.DampingFactor):
		return errors.Wrapf(errInvalidParams, "damping factor %v", p.DampingFactor)
	case bad(p.FunctionTol):
		return errors.Wrapf(errInvalidParams, "function tolerance %v", p.FunctionTol)
	case bad(p.StepTol):
		return errors.Wrapf(errInvalidParams, "step tolerance %v", p.StepTol)
	}
	for i, w := range p.ObjectiveWeights {
		if bad(w) {
			return errors.Wrapf(errInvalidParams, "objective weight %d is %v", i, w)
		}
	}
	return nil
}
