// Package joint models the rotational constraints stored in skeleton files:
// their classification by degrees of freedom, their binary encoding, and the
// reconstruction of editor constraints and bone roll from them.
package joint

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/overgrowth_browser/rig"
	"github.com/mogaika/overgrowth_browser/rig/xform"
)

type Type int32

const (
	Hinge  Type = 0
	Amotor Type = 1
	Fixed  Type = 2
)

func (t Type) String() string {
	switch t {
	case Hinge:
		return "hinge"
	case Amotor:
		return "amotor"
	case Fixed:
		return "fixed"
	default:
		return fmt.Sprintf("joint_type_%d", int32(t))
	}
}

func (t Type) Valid() bool {
	return t == Hinge || t == Amotor || t == Fixed
}

// StopAngleCount is the number of stop angle floats stored for the type.
func (t Type) StopAngleCount() int {
	switch t {
	case Hinge:
		return 2
	case Amotor:
		return 6
	default:
		return 0
	}
}

// Amotor stop angle layout, legacy data depends on the Y,X,Z order
const (
	AmotorYMin = iota
	AmotorYMax
	AmotorXMin
	AmotorXMax
	AmotorZMin
	AmotorZMax
)

type Joint struct {
	Type       Type       `json:"type" yaml:"type"`
	StopAngles []float32  `json:"stop_angles" yaml:"stop_angles,flow"`
	BoneIDs    [2]int32   `json:"bone_ids" yaml:"bone_ids,flow"`
	Axis       [3]float32 `json:"axis" yaml:"axis,flow"` // hinge only, world space, engine order
}

// Validate checks the type dependent payload and bone references.
// boneCount < 0 skips the bone range check.
func (j *Joint) Validate(boneCount int) error {
	if !j.Type.Valid() {
		return errors.Wrapf(rig.ErrUnsupportedStructure, "unknown joint type %d", int32(j.Type))
	}
	if len(j.StopAngles) != j.Type.StopAngleCount() {
		return errors.Wrapf(rig.ErrUnsupportedStructure, "%v joint with %d stop angles, expected %d",
			j.Type, len(j.StopAngles), j.Type.StopAngleCount())
	}
	if boneCount >= 0 {
		for _, id := range j.BoneIDs {
			if id < 0 || int(id) >= boneCount {
				return errors.Wrapf(rig.ErrInconsistentTopology, "%v joint references bone %d of %d", j.Type, id, boneCount)
			}
		}
	}
	return nil
}

// Limits is a rotation limit in radians per editor axis.
type Limits struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

func (l Limits) DegreesOfFreedom() int {
	dof := 0
	for i := 0; i < 3; i++ {
		if l.Min[i] != l.Max[i] {
			dof++
		}
	}
	return dof
}

// Classify turns a rotation limit on bone into a stored joint.
// other is the second participant, usually the parent bone.
// xAxis is the bone's world X axis at bind pose in editor space; only hinges use it.
func Classify(limits Limits, bone, other int32, xAxis mgl32.Vec3) Joint {
	j := Joint{BoneIDs: [2]int32{bone, other}}

	switch dof := limits.DegreesOfFreedom(); {
	case dof == 0:
		j.Type = Fixed
		j.StopAngles = []float32{}
	case dof == 1:
		j.Type = Hinge
		axis := xform.EditorToEngine(xAxis.Normalize())
		j.Axis = [3]float32(axis)
		j.StopAngles = []float32{limits.Min[0], limits.Max[0]}
	default:
		j.Type = Amotor
		j.StopAngles = make([]float32, 6)
		j.StopAngles[AmotorYMin] = limits.Min[1]
		j.StopAngles[AmotorYMax] = limits.Max[1]
		j.StopAngles[AmotorXMin] = limits.Min[0]
		j.StopAngles[AmotorXMax] = limits.Max[0]
		j.StopAngles[AmotorZMin] = limits.Min[2]
		j.StopAngles[AmotorZMax] = limits.Max[2]
	}
	return j
}
