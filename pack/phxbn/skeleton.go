package phxbn

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/overgrowth_browser/pack"
	"github.com/mogaika/overgrowth_browser/rig"
	"github.com/mogaika/overgrowth_browser/rig/joint"
	"github.com/mogaika/overgrowth_browser/rig/xform"
)

const (
	MinVersion   = 8
	Version      = 11
	RiggingStage = 1

	versionInitialMatrices = 9
	versionIKRoots         = 10
	versionCornerCount     = 11
)

// Point position is stored in engine axis order
type Point struct {
	Pos    [3]float32 `json:"pos" yaml:"pos,flow"`
	Parent int32      `json:"parent" yaml:"parent"`
}

func (p *Point) EditorPos() mgl32.Vec3 {
	return xform.EngineToEditor(p.Pos)
}

type Bone struct {
	Head   int32       `json:"head" yaml:"head"`
	Tail   int32       `json:"tail" yaml:"tail"`
	Parent int32       `json:"parent" yaml:"parent"`
	Mass   float32     `json:"mass" yaml:"mass"`
	COM    [3]float32  `json:"com" yaml:"com,flow"`
	Matrix [16]float32 `json:"matrix" yaml:"matrix,flow"`
	// head and tail were exchanged on read, Write restores the stored order
	Swap bool `json:"swap" yaml:"swap"`
}

type IKRoot struct {
	Name        string `json:"name" yaml:"name"`
	Bone        int32  `json:"bone" yaml:"bone"`
	ChainLength int32  `json:"chain_length" yaml:"chain_length"`
}

type Skeleton struct {
	Version      int32   `json:"version" yaml:"version"`
	RiggingStage int32   `json:"rigging_stage" yaml:"rigging_stage"`
	Points       []Point `json:"points" yaml:"points"`
	Bones        []Bone  `json:"bones" yaml:"bones"`
	// 4 slots per triangle corner
	CornerWeights []float32     `json:"corner_weights" yaml:"corner_weights,flow"`
	CornerBoneIDs []float32     `json:"corner_bone_ids" yaml:"corner_bone_ids,flow"`
	ParentIDs     []int32       `json:"parent_ids" yaml:"parent_ids,flow"`
	Joints        []joint.Joint `json:"joints" yaml:"joints"`
	IKRoots       []IKRoot      `json:"ik_roots" yaml:"ik_roots"`
}

func (s *Skeleton) CornerCount() int {
	return len(s.CornerWeights) / 4
}

func (s *Skeleton) PointParents() []int32 {
	r := make([]int32, len(s.Points))
	for i := range s.Points {
		r[i] = s.Points[i].Parent
	}
	return r
}

func (s *Skeleton) BoneParents() []int32 {
	r := make([]int32, len(s.Bones))
	for i := range s.Bones {
		r[i] = s.Bones[i].Parent
	}
	return r
}

// BoneEnds returns head and tail positions of bone in engine order
func (s *Skeleton) BoneEnds(bone int) (head, tail mgl32.Vec3) {
	b := &s.Bones[bone]
	return mgl32.Vec3(s.Points[b.Head].Pos), mgl32.Vec3(s.Points[b.Tail].Pos)
}

func (s *Skeleton) InitialMatrices() xform.InitialMatrices {
	stored := make([][16]float32, len(s.Bones))
	for i := range s.Bones {
		stored[i] = s.Bones[i].Matrix
	}
	return xform.NewInitialMatrices(stored)
}

// SwapNormalize exchanges head and tail of a bone whose head point is parented
// to its tail and flips the swap flag. A bone already flagged is restored.
func SwapNormalize(b *Bone, pointParents []int32) {
	if b.Swap || (int(b.Head) < len(pointParents) && b.Head >= 0 && pointParents[b.Head] == b.Tail) {
		b.Head, b.Tail = b.Tail, b.Head
		b.Swap = !b.Swap
	}
}

// Validate checks every index stored in the skeleton so transform code can
// index freely afterwards.
func (s *Skeleton) Validate() error {
	if err := xform.ValidateForest("point", s.PointParents()); err != nil {
		return err
	}
	if err := xform.ValidateForest("bone", s.BoneParents()); err != nil {
		return err
	}
	for i, b := range s.Bones {
		if b.Head < 0 || int(b.Head) >= len(s.Points) || b.Tail < 0 || int(b.Tail) >= len(s.Points) {
			return errors.Wrapf(rig.ErrInconsistentTopology, "bone %d points (%d,%d) out of %d", i, b.Head, b.Tail, len(s.Points))
		}
	}
	// Read normalizes bones, so a bone survives Write only if its swap flag
	// agrees with the point parent between its stored head and tail
	pointParents := s.PointParents()
	for i, b := range s.Bones {
		storedHead, storedTail := b.Head, b.Tail
		if b.Swap {
			storedHead, storedTail = b.Tail, b.Head
		}
		if (pointParents[storedHead] == storedTail) != b.Swap {
			return errors.Wrapf(rig.ErrInconsistentTopology, "bone %d points (%d,%d) swap %v disagree with point parents",
				i, b.Head, b.Tail, b.Swap)
		}
	}
	if s.ParentIDs != nil {
		if len(s.ParentIDs) != len(s.Bones) {
			return errors.Wrapf(rig.ErrInconsistentTopology, "%d parent ids for %d bones", len(s.ParentIDs), len(s.Bones))
		}
		if err := xform.ValidateForest("parent id", s.ParentIDs); err != nil {
			return err
		}
	}
	if len(s.CornerWeights) != len(s.CornerBoneIDs) || len(s.CornerWeights)%4 != 0 {
		return errors.Wrapf(rig.ErrInconsistentTopology, "corner weights %d and bone ids %d mismatch",
			len(s.CornerWeights), len(s.CornerBoneIDs))
	}
	for i, id := range s.CornerBoneIDs {
		if id < 0 || int(id) >= len(s.Bones) {
			return errors.Wrapf(rig.ErrInconsistentTopology, "corner %d slot %d references bone %v of %d", i/4, i%4, id, len(s.Bones))
		}
	}
	for i := range s.Joints {
		if err := s.Joints[i].Validate(len(s.Bones)); err != nil {
			return errors.Wrapf(err, "joint %d", i)
		}
	}
	for i, ik := range s.IKRoots {
		if ik.Bone < 0 || int(ik.Bone) >= len(s.Bones) {
			return errors.Wrapf(rig.ErrInconsistentTopology, "ik root %d %q references bone %d of %d", i, ik.Name, ik.Bone, len(s.Bones))
		}
		if ik.ChainLength < 0 {
			return errors.Wrapf(rig.ErrUnsupportedStructure, "ik root %d %q chain length %d", i, ik.Name, ik.ChainLength)
		}
	}
	return nil
}

func init() {
	pack.SetHandler(".phxbn", func(src pack.ResourceSource, data []byte) (interface{}, error) {
		return Read(data)
	})
}
