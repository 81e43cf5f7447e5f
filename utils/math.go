// Package utils contains small numeric helpers shared across packages.
package utils

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// Float64AlmostEqual compares two float64s and returns if the difference between them is less than epsilon.
func Float64AlmostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

// WeightedSquaredNorm returns the sum of w[i]*v[i]^2 over the shorter of the two slices.
func WeightedSquaredNorm(v, w []float64) float64 {
	n := min(len(v), len(w))
	sq := make([]float64, n)
	floats.MulTo(sq, v[:n], v[:n])
	return floats.Dot(sq, w[:n])
}

// ParseFloats parses a comma separated list of numbers such as "0.1, 2,-3".
// An empty string yields an empty list.
func ParseFloats(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	fields := strings.Split(s, ",")
	out := make([]float64, 0, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}
		out = append(out, v)
	}
	return out, nil
}
