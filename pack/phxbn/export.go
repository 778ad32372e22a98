package phxbn

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/overgrowth_browser/rig/xform"
)

func BoneName(bone int) string {
	return fmt.Sprintf("Bone_%d", bone)
}

// RestWorld returns bind pose bone matrices in engine order: the stored
// initial orientation placed at the bone head. Bones without a stored
// matrix (version 8 files) get the canonical one.
func (s *Skeleton) RestWorld() ([]mgl32.Mat4, error) {
	world := make([]mgl32.Mat4, len(s.Bones))
	for i := range s.Bones {
		m := s.Bones[i].Matrix
		head, tail := s.BoneEnds(i)
		if m == ([16]float32{}) {
			var err error
			if m, err = xform.InitialBoneMatrix(xform.EngineToEditor(head), xform.EngineToEditor(tail)); err != nil {
				return nil, errors.Wrapf(err, "bone %d", i)
			}
		}
		world[i] = xform.ToMat4(m)
		world[i].SetCol(3, head.Vec4(1))
	}
	return world, nil
}

// RestLocal returns bind pose matrices relative to the parent bone
func (s *Skeleton) RestLocal() ([]mgl32.Mat4, error) {
	world, err := s.RestWorld()
	if err != nil {
		return nil, err
	}
	local := make([]mgl32.Mat4, len(world))
	for i := range s.Bones {
		if p := s.Bones[i].Parent; p == xform.NoParent {
			local[i] = world[i]
		} else {
			local[i] = world[p].Inv().Mul4(world[i])
		}
	}
	return local, nil
}
