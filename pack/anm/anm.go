package anm

import (
	"github.com/pkg/errors"

	"github.com/mogaika/overgrowth_browser/pack"
	"github.com/mogaika/overgrowth_browser/rig"
)

const Version = 10

// first version storing each field
const (
	versionStart          = 1
	versionEvents         = 2
	versionIKBones        = 3
	versionWeights        = 4
	versionShapeKeys      = 5
	versionStatusKeys     = 6
	versionWeapons        = 7
	versionWeaponRelative = 8
	versionMobility       = 9
	versionCentered       = 10
)

type Event struct {
	Bone int32  `json:"bone" yaml:"bone"`
	Name string `json:"name" yaml:"name"`
}

type IKBone struct {
	Start [3]float32 `json:"start" yaml:"start,flow"`
	End   [3]float32 `json:"end" yaml:"end,flow"`
	Path  []int32    `json:"path" yaml:"path,flow"`
	Name  string     `json:"name" yaml:"name"`
}

type ShapeKey struct {
	Weight float32 `json:"weight" yaml:"weight"`
	Name   string  `json:"name" yaml:"name"`
}

type StatusKey struct {
	Weight float32 `json:"weight" yaml:"weight"`
	Name   string  `json:"name" yaml:"name"`
}

type WeaponMatrix struct {
	Matrix [16]float32 `json:"matrix" yaml:"matrix,flow"`
	// -1 when the weapon is not attached relative to another one
	RelativeID     int32   `json:"relative_id" yaml:"relative_id"`
	RelativeWeight float32 `json:"relative_weight" yaml:"relative_weight"`
}

type Keyframe struct {
	Time           int32          `json:"time" yaml:"time"`
	Weights        []float32      `json:"weights" yaml:"weights,flow"`
	BoneMatrices   [][16]float32  `json:"bone_matrices" yaml:"bone_matrices"`
	WeaponMatrices []WeaponMatrix `json:"weapon_matrices" yaml:"weapon_matrices"`
	// root motion, nil when absent
	Mobility   *[16]float32 `json:"mobility,omitempty" yaml:"mobility,omitempty,flow"`
	Events     []Event      `json:"events" yaml:"events"`
	IKBones    []IKBone     `json:"ik_bones" yaml:"ik_bones"`
	ShapeKeys  []ShapeKey   `json:"shape_keys" yaml:"shape_keys"`
	StatusKeys []StatusKey  `json:"status_keys" yaml:"status_keys"`
	// stored only by centered clips
	Rotation     float32    `json:"rotation" yaml:"rotation"`
	CenterOffset [3]float32 `json:"center_offset" yaml:"center_offset,flow"`
}

type Animation struct {
	Version   int32      `json:"version" yaml:"version"`
	Centered  bool       `json:"centered" yaml:"centered"`
	Looping   bool       `json:"looping" yaml:"looping"`
	Start     int32      `json:"start" yaml:"start"`
	End       int32      `json:"end" yaml:"end"`
	Keyframes []Keyframe `json:"keyframes" yaml:"keyframes"`
}

// Validate checks that every keyframe carries one matrix per bone and that
// events and ik paths point at existing bones. With boneCount < 0 keyframes
// are only checked against each other.
func (a *Animation) Validate(boneCount int) error {
	for i := range a.Keyframes {
		kf := &a.Keyframes[i]
		if boneCount < 0 {
			boneCount = len(kf.BoneMatrices)
		}
		if len(kf.BoneMatrices) != boneCount {
			return errors.Wrapf(rig.ErrInconsistentTopology, "keyframe %d has %d bone matrices, expected %d",
				i, len(kf.BoneMatrices), boneCount)
		}
		for j, ev := range kf.Events {
			if ev.Bone < -1 || int(ev.Bone) >= boneCount {
				return errors.Wrapf(rig.ErrInconsistentTopology, "keyframe %d event %d %q bone %d of %d",
					i, j, ev.Name, ev.Bone, boneCount)
			}
		}
		for j, ik := range kf.IKBones {
			for _, b := range ik.Path {
				if b < 0 || int(b) >= boneCount {
					return errors.Wrapf(rig.ErrInconsistentTopology, "keyframe %d ik bone %d %q path bone %d of %d",
						i, j, ik.Name, b, boneCount)
				}
			}
		}
	}
	return nil
}

func init() {
	pack.SetHandler(".anm", func(src pack.ResourceSource, data []byte) (interface{}, error) {
		return Read(data)
	})
}
