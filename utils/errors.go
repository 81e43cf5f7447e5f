package utils

import (
	"github.com/pkg/errors"
)

// NewIndexOutOfRangeError is used when an index falls outside [0, size).
func NewIndexOutOfRangeError(what string, index, size int) error {
	return errors.Errorf("%s index %d out of range [0, %d)", what, index, size)
}

// NewLengthMismatchError is used when a list does not have the number of elements required.
func NewLengthMismatchError(what string, expected, actual int) error {
	return errors.Errorf("%s needs %d values but got %d", what, expected, actual)
}
