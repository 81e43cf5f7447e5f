package ik

import (
	"go.viam.com/bodytree/spatialmath"
	"go.viam.com/bodytree/utils"
)

// PoseError returns the six row error that takes computed to target, in the space frame. Rows 0-2 are the rotation
// vector from computed to target and rows 3-5 the translation difference, matching the rows of a Jacobian.
func PoseError(computed, target spatialmath.Transform) [6]float64 {
	rot := computed.RotateVector(spatialmath.QuatBoxMinus(computed.Rotation, target.Rotation))
	tr := target.Translation.Sub(computed.Translation)
	return [6]float64{rot.X, rot.Y, rot.Z, tr.X, tr.Y, tr.Z}
}

// WeightedError is the objective minimized by the solver: the weighted sum of squares of a pose error.
func WeightedError(poseError, weights [6]float64) float64 {
	return utils.WeightedSquaredNorm(poseError[:], weights[:])
}

// OrientDist returns the angle between two orientations in degrees.
func OrientDist(computed, target spatialmath.Transform) float64 {
	return utils.RadToDeg(spatialmath.QuatBoxMinus(computed.Rotation, target.Rotation).Norm())
}

// PositionDist returns the distance between the origins of two poses.
func PositionDist(computed, target spatialmath.Transform) float64 {
	return target.Translation.Sub(computed.Translation).Norm()
}
