package bodytree

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/bodytree/logging"
	"go.viam.com/bodytree/spatialmath"
	"go.viam.com/bodytree/utils"
)

// BaseName is the name under which the base body can be referenced as a parent. No body may use it.
const BaseName = "base"

// ModelConfig represents all supported fields in a body tree JSON file.
type ModelConfig struct {
	Name    string       `json:"name"`
	Gravity *r3.Vector   `json:"gravity,omitempty"`
	Bodies  []BodyConfig `json:"bodies"`
}

// BodyConfig describes one body and the joint attaching it to its parent.
type BodyConfig struct {
	Name   string      `json:"name"`
	Parent string      `json:"parent"`
	Joint  JointConfig `json:"joint"`
	// Massless bodies are intermediate frames; their mass fields are ignored.
	Massless bool                `json:"massless,omitempty"`
	Mass     float64             `json:"mass,omitempty"`
	Com      r3.Vector           `json:"com"`
	Inertia  spatialmath.Inertia `json:"inertia"`
	// InertiaAtCom says Inertia is taken about the center of mass rather than the body origin.
	InertiaAtCom bool                      `json:"inertia_at_com,omitempty"`
	OriginOffset *spatialmath.MotionVector `json:"origin_offset,omitempty"`
}

// JointConfig describes the zero-position pose of a joint in its parent body, and its limits.
type JointConfig struct {
	Type        string             `json:"type"`
	Translation r3.Vector          `json:"translation"`
	Orientation *OrientationConfig `json:"orientation,omitempty"`
	Min         *float64           `json:"min,omitempty"`
	Max         *float64           `json:"max,omitempty"`
	MaxVelocity *float64           `json:"max_velocity,omitempty"`
}

// OrientationConfig is either a quaternion or roll, pitch and yaw angles in degrees. When both are given the
// quaternion is used.
type OrientationConfig struct {
	Quaternion *QuaternionConfig        `json:"quaternion,omitempty"`
	RPYDegrees *spatialmath.EulerAngles `json:"rpy_degrees,omitempty"`
}

// QuaternionConfig is a quaternion w + xi + yj + zk. It need not be normalized.
type QuaternionConfig struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Model is a BodyTree together with the names of its bodies.
type Model struct {
	Name string
	Tree *BodyTree
	// names[i] is the name of body i; names[0] is BaseName.
	names   []string
	indices map[string]int
}

// BodyIndex returns the index of the named body.
func (m *Model) BodyIndex(name string) (int, error) {
	i, ok := m.indices[name]
	if !ok {
		return 0, errors.Errorf("model %q has no body named %q", m.Name, name)
	}
	return i, nil
}

// BodyName returns the name of body i, or the empty string if there is no such body.
func (m *Model) BodyName(i int) string {
	if i < 0 || i >= len(m.names) {
		return ""
	}
	return m.names[i]
}

// BodyNames returns the body names in index order, starting with the base.
func (m *Model) BodyNames() []string {
	return append([]string(nil), m.names...)
}

// UnmarshalModelJSON will parse the given JSON data into a model. modelName sets the name of the model, the name
// from the JSON is used if it is empty. A nil logger discards the build log.
func UnmarshalModelJSON(jsonData []byte, modelName string, logger logging.Logger) (*Model, error) {
	// empty data probably means that the caller has no model information
	if len(jsonData) == 0 {
		return nil, ErrNoModelInformation
	}
	cfg := &ModelConfig{}
	if err := json.Unmarshal(jsonData, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal json file")
	}
	return cfg.ParseConfig(modelName, logger)
}

// ParseModelJSONFile will read a given file and then parse the contained JSON data.
func ParseModelJSONFile(filename, modelName string, logger logging.Logger) (*Model, error) {
	//nolint:gosec
	jsonData, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read json file")
	}
	return UnmarshalModelJSON(jsonData, modelName, logger)
}

// ParseConfig converts the config into a Model named modelName. Bodies may be listed before their parents.
func (cfg *ModelConfig) ParseConfig(modelName string, logger logging.Logger) (*Model, error) {
	if modelName == "" {
		modelName = cfg.Name
	}
	if logger == nil {
		logger = logging.NewBlankLogger("bodytree")
	}
	if err := cfg.validateNames(); err != nil {
		return nil, err
	}
	order, err := cfg.sortBodies()
	if err != nil {
		return nil, err
	}

	model := &Model{
		Name:    modelName,
		Tree:    NewBodyTree(),
		names:   []string{BaseName},
		indices: map[string]int{BaseName: 0},
	}
	if cfg.Gravity != nil {
		model.Tree.SetGravity(*cfg.Gravity)
	}
	for _, bc := range order {
		index, err := bc.addTo(model.Tree, model.indices[bc.Parent])
		if err != nil {
			return nil, errors.Wrapf(err, "body %q", bc.Name)
		}
		model.names = append(model.names, bc.Name)
		model.indices[bc.Name] = index
		logger.Debugw("added body", "model", modelName, "body", bc.Name, "index", index,
			"parent", bc.Parent, "joint", bc.Joint.Type)
	}
	return model, nil
}

// validateNames reports every reserved, duplicate, or dangling name at once.
func (cfg *ModelConfig) validateNames() error {
	names := lo.Map(cfg.Bodies, func(bc BodyConfig, _ int) string { return bc.Name })
	var err error
	if lo.Contains(names, BaseName) {
		err = multierr.Append(err, NewReservedWordError("body", BaseName))
	}
	if lo.Contains(names, "") {
		err = multierr.Append(err, errors.New("a body has no name"))
	}
	for _, dup := range lo.FindDuplicates(names) {
		err = multierr.Append(err, NewDuplicateNameError(dup))
	}
	known := lo.SliceToMap(names, func(name string) (string, bool) { return name, true })
	known[BaseName] = true
	for _, bc := range cfg.Bodies {
		if !known[bc.Parent] {
			err = multierr.Append(err, NewParentNotFoundError(bc.Name, bc.Parent))
		}
	}
	return err
}

// sortBodies orders the bodies so that every parent precedes its children. A model listed parents first keeps its
// declaration order.
func (cfg *ModelConfig) sortBodies() ([]BodyConfig, error) {
	placed := map[string]bool{BaseName: true}
	remaining := cfg.Bodies
	order := make([]BodyConfig, 0, len(cfg.Bodies))
	for len(remaining) > 0 {
		var waiting []BodyConfig
		for _, bc := range remaining {
			if !placed[bc.Parent] {
				waiting = append(waiting, bc)
				continue
			}
			placed[bc.Name] = true
			order = append(order, bc)
		}
		if len(waiting) == len(remaining) {
			stuck := lo.Map(waiting, func(bc BodyConfig, _ int) string { return bc.Name })
			sort.Strings(stuck)
			return nil, errors.Wrapf(ErrCircularReference, "bodies %v", stuck)
		}
		remaining = waiting
	}
	return order, nil
}

// ParseConfig returns the parent joint transform of the joint.
func (jc JointConfig) ParseConfig() (JointType, spatialmath.Transform, error) {
	jt, err := ParseJointType(jc.Type)
	if err != nil {
		return Fixed, spatialmath.Transform{}, err
	}
	rotation := spatialmath.QuatIdentity()
	if o := jc.Orientation; o != nil {
		switch {
		case o.Quaternion != nil:
			q := quat.Number{Real: o.Quaternion.W, Imag: o.Quaternion.X, Jmag: o.Quaternion.Y, Kmag: o.Quaternion.Z}
			if quat.Abs(q) == 0 {
				return jt, spatialmath.Transform{}, errors.New("zero orientation quaternion")
			}
			rotation = spatialmath.QuatNormalize(q)
		case o.RPYDegrees != nil:
			rotation = spatialmath.EulerToQuat(spatialmath.EulerAngles{
				Roll:  utils.DegToRad(o.RPYDegrees.Roll),
				Pitch: utils.DegToRad(o.RPYDegrees.Pitch),
				Yaw:   utils.DegToRad(o.RPYDegrees.Yaw),
			})
		}
	}
	return jt, spatialmath.NewTransform(rotation, jc.Translation), nil
}

func (bc BodyConfig) addTo(tree *BodyTree, parent int) (int, error) {
	jt, pose, err := bc.Joint.ParseConfig()
	if err != nil {
		return 0, err
	}
	var offset spatialmath.MotionVector
	if bc.OriginOffset != nil {
		offset = *bc.OriginOffset
	}

	var index int
	if bc.Massless {
		index, err = tree.AddMasslessBody(parent, jt, pose, offset)
	} else {
		mp := spatialmath.NewMassProps(bc.Mass, bc.Com, bc.Inertia)
		if bc.InertiaAtCom {
			mp = spatialmath.NewMassPropsAtCom(bc.Mass, bc.Com, bc.Inertia)
		}
		index, err = tree.AddBody(parent, jt, pose, NewBodyWithOffset(mp, offset))
	}
	if err != nil {
		return 0, err
	}
	// the model is discarded on error, so a body without its limits is never seen
	if err := bc.Joint.applyLimits(tree, tree.bodies[index].ParentJointIndex); err != nil {
		return 0, err
	}
	return index, nil
}

func (jc JointConfig) applyLimits(tree *BodyTree, jointIndex int) error {
	if jc.Min != nil || jc.Max != nil {
		if jc.Min == nil || jc.Max == nil {
			return errors.Wrap(ErrInvalidLimit, "min and max must be given together")
		}
		if err := tree.SetJointPositionLimit(jointIndex, Limit{Min: *jc.Min, Max: *jc.Max}); err != nil {
			return err
		}
	}
	if jc.MaxVelocity != nil {
		return tree.SetJointVelocityLimit(jointIndex, *jc.MaxVelocity)
	}
	return nil
}
