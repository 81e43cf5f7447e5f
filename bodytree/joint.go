package bodytree

import (
	"strings"

	"github.com/pkg/errors"

	"go.viam.com/bodytree/spatialmath"
)

// JointType is the closed set of joints that can connect a body to its parent.
type JointType int

// The supported joint types.
const (
	Fixed JointType = iota
	RevoluteX
	RevoluteY
	RevoluteZ
	PrismaticX
	PrismaticY
	PrismaticZ
	Spherical
	Cartesian
	Planar
	numJointTypes
)

type jointTypeInfo struct {
	name   string
	coords int
	dofs   int
}

var jointTypeTable = [numJointTypes]jointTypeInfo{
	Fixed:      {"fixed", 0, 0},
	RevoluteX:  {"revolute_x", 1, 1},
	RevoluteY:  {"revolute_y", 1, 1},
	RevoluteZ:  {"revolute_z", 1, 1},
	PrismaticX: {"prismatic_x", 1, 1},
	PrismaticY: {"prismatic_y", 1, 1},
	PrismaticZ: {"prismatic_z", 1, 1},
	Spherical:  {"spherical", 4, 3},
	Cartesian:  {"cartesian", 7, 6},
	Planar:     {"planar", 3, 3},
}

// Valid returns whether jt is one of the known joint types.
func (jt JointType) Valid() bool {
	return jt >= Fixed && jt < numJointTypes
}

// NumCoordinates is the number of position coordinates the joint contributes.
func (jt JointType) NumCoordinates() int {
	if !jt.Valid() {
		return 0
	}
	return jointTypeTable[jt].coords
}

// NumDofs is the number of velocity degrees of freedom the joint contributes.
func (jt JointType) NumDofs() int {
	if !jt.Valid() {
		return 0
	}
	return jointTypeTable[jt].dofs
}

// IsRevolute returns whether jt rotates about a single axis.
func (jt JointType) IsRevolute() bool {
	return jt == RevoluteX || jt == RevoluteY || jt == RevoluteZ
}

// IsPrismatic returns whether jt translates along a single axis.
func (jt JointType) IsPrismatic() bool {
	return jt == PrismaticX || jt == PrismaticY || jt == PrismaticZ
}

// IsSingleDof returns whether jt is driven by a single scalar.
func (jt JointType) IsSingleDof() bool {
	return jt.IsRevolute() || jt.IsPrismatic()
}

// Axis returns the unit axis of a single degree of freedom joint, expressed in the joint frame, and false for
// every other joint type.
func (jt JointType) Axis() (spatialmath.Axis, bool) {
	switch jt {
	case RevoluteX, PrismaticX:
		return spatialmath.AxisX, true
	case RevoluteY, PrismaticY:
		return spatialmath.AxisY, true
	case RevoluteZ, PrismaticZ:
		return spatialmath.AxisZ, true
	case Fixed, Spherical, Cartesian, Planar, numJointTypes:
	}
	return 0, false
}

func (jt JointType) String() string {
	if !jt.Valid() {
		return "unknown"
	}
	return jointTypeTable[jt].name
}

// ParseJointType parses a joint type name such as "revolute_z". The match is case-insensitive.
func ParseJointType(name string) (JointType, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for jt := Fixed; jt < numJointTypes; jt++ {
		if jointTypeTable[jt].name == lower {
			return jt, nil
		}
	}
	return Fixed, errors.Wrapf(ErrUnsupportedJointType, "%q", name)
}

// Joint connects a child body to its parent body.
type Joint struct {
	Type JointType
	// ParentJointTransform is the pose of the joint frame in the parent body frame when the joint variable is
	// zero, with the child's origin offset applied.
	ParentJointTransform spatialmath.Transform
	// NominalParentJointTransform is ParentJointTransform before the origin offset was applied.
	NominalParentJointTransform spatialmath.Transform
	ParentBodyIndex             int
	ChildBodyIndex              int
	// CoordIndex is the first index of this joint in a JointSpacePosition.
	CoordIndex int
	// DofIndex is the first index of this joint in a JointSpace.
	DofIndex int
}
