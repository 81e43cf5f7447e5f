package bodytree

import "github.com/pkg/errors"

// Structural errors.
var (
	ErrBodyIndexOutOfRange   = errors.New("body index out of range")
	ErrJointIndexOutOfRange  = errors.New("joint index out of range")
	ErrParentNonexistent     = errors.New("parent body does not exist")
	ErrMaxBodiesReached      = errors.New("maximum number of bodies reached")
	ErrMaxJointsReached      = errors.New("maximum number of joints reached")
	ErrMaxCoordinatesReached = errors.New("maximum number of joint coordinates reached")
	ErrMaxDofsReached        = errors.New("maximum number of degrees of freedom reached")
	ErrUnsupportedJointType  = errors.New("unsupported joint type")
	ErrInvalidLimit          = errors.New("invalid joint limit")
)

// Physical validity errors.
var (
	ErrMassZero            = errors.New("mass must be positive for a moving body")
	ErrInertiaZero         = errors.New("inertia must be positive for a moving body")
	ErrInertiaNotPosDef    = errors.New("inertia is not positive definite")
	ErrMassZeroWithInertia = errors.New("zero mass with nonzero inertia")
)

// Model loading errors.
var (
	ErrNoModelInformation = errors.New("no model information")
	ErrCircularReference  = errors.New("circular parent reference")
)

// NewReservedWordError is used when a body is given a name that is reserved.
func NewReservedWordError(configType, reservedWord string) error {
	return errors.Errorf("reserved word: cannot name a %s '%s'", configType, reservedWord)
}

// NewDuplicateNameError is used when two bodies share a name.
func NewDuplicateNameError(name string) error {
	return errors.Errorf("duplicate body name %q", name)
}

// NewParentNotFoundError is used when a body names a parent that is not declared.
func NewParentNotFoundError(name, parent string) error {
	return errors.Errorf("body %q has unknown parent %q", name, parent)
}
