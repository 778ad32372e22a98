package scene

import (
	"log"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/overgrowth_browser/pack/phxbn"
	"github.com/mogaika/overgrowth_browser/rig"
	"github.com/mogaika/overgrowth_browser/rig/joint"
	"github.com/mogaika/overgrowth_browser/rig/xform"
)

const DefaultBoneMass = 0.1

// ExportSkeleton builds a skeleton file from an editor armature skinned to
// mesh. Points are shared between a bone's tail and its children's heads;
// root bones share point 0. Positions are moved so the mesh bounding box
// midpoint becomes the origin.
func ExportSkeleton(arm ArmatureSource, mesh MeshSource) (*phxbn.Skeleton, error) {
	if arm == nil {
		return nil, errors.Wrapf(rig.ErrMissingExternalData, "no armature")
	}
	if mesh == nil {
		return nil, errors.Wrapf(rig.ErrMissingExternalData, "no mesh")
	}

	bones := arm.GetBoneHierarchy()
	if len(bones) == 0 {
		return nil, errors.Wrapf(rig.ErrInconsistentTopology, "armature without bones")
	}
	parents := make([]int32, len(bones))
	for i := range bones {
		parents[i] = bones[i].Parent
	}
	if err := xform.ValidateForest("bone", parents); err != nil {
		return nil, err
	}

	s := &phxbn.Skeleton{
		Version:      phxbn.Version,
		RiggingStage: phxbn.RiggingStage,
		Bones:        make([]phxbn.Bone, len(bones)),
		ParentIDs:    parents,
	}
	buildPoints(s, bones)

	for i := range bones {
		b := &s.Bones[i]
		b.Parent = bones[i].Parent
		b.Mass = bones[i].Mass
		if b.Mass == 0 {
			b.Mass = DefaultBoneMass
		}
		b.COM = bones[i].COM
		b.Swap = bones[i].Swap
		if b.Matrix = bones[i].Matrix; b.Matrix == ([16]float32{}) {
			var err error
			if b.Matrix, err = xform.InitialBoneMatrix(bones[i].Head, bones[i].Tail); err != nil {
				return nil, errors.Wrapf(err, "bone %d %q", i, bones[i].Name)
			}
		}
	}

	var err error
	if s.Joints, err = exportJoints(arm, bones); err != nil {
		return nil, err
	}
	s.IKRoots = []phxbn.IKRoot{}
	for i := range bones {
		for _, ik := range arm.GetIKConstraints(i) {
			s.IKRoots = append(s.IKRoots, phxbn.IKRoot{Name: ik.Name, Bone: int32(i), ChainLength: ik.ChainLength})
		}
	}

	vw, err := exportVertexWeights(mesh, len(bones))
	if err != nil {
		return nil, err
	}
	if s.CornerWeights, s.CornerBoneIDs, err = phxbn.CornerWeights(vw, mesh); err != nil {
		return nil, err
	}

	s.Uncenter(midpoint(mesh))
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func buildPoints(s *phxbn.Skeleton, bones []BoneInfo) {
	children := make([][]int, len(bones))
	var queue []int
	for i := range bones {
		if p := bones[i].Parent; p == xform.NoParent {
			queue = append(queue, i)
		} else {
			children[p] = append(children[p], i)
		}
	}

	s.Points = []phxbn.Point{{Pos: xform.EditorToEngine(bones[queue[0]].Head), Parent: xform.NoParent}}
	head := make([]int32, len(bones))
	for len(queue) != 0 {
		i := queue[0]
		queue = queue[1:]

		tail := int32(len(s.Points))
		s.Points = append(s.Points, phxbn.Point{Pos: xform.EditorToEngine(bones[i].Tail), Parent: head[i]})
		s.Bones[i].Head, s.Bones[i].Tail = head[i], tail
		for _, c := range children[i] {
			head[c] = tail
			queue = append(queue, c)
		}
	}
}

func exportJoints(arm ArmatureSource, bones []BoneInfo) ([]joint.Joint, error) {
	byName := make(map[string]int32, len(bones))
	for i := range bones {
		byName[bones[i].Name] = int32(i)
	}

	joints := []joint.Joint{}
	for i := range bones {
		for _, limit := range arm.GetRotationLimitConstraints(i) {
			if !limit.OwnerSpace {
				continue
			}
			other := bones[i].Parent
			if other == xform.NoParent {
				other = 0
			}
			if limit.Other != "" {
				id, ok := byName[limit.Other]
				if !ok {
					return nil, errors.Wrapf(rig.ErrInconsistentTopology, "bone %d %q limit refers to unknown bone %q",
						i, bones[i].Name, limit.Other)
				}
				other = id
			}
			x, _ := BoneAxes(bones[i].Head, bones[i].Tail, bones[i].Roll)
			joints = append(joints, joint.Classify(limit.Limits, int32(i), other, x))
		}
	}
	return joints, nil
}

// exportVertexWeights keeps the four heaviest bones of each vertex and
// normalizes them.
func exportVertexWeights(mesh MeshSource, boneCount int) (*phxbn.VertexWeights, error) {
	vw := phxbn.NewVertexWeights(mesh.VertexCount())
	for v := 0; v < mesh.VertexCount(); v++ {
		var ws []BoneWeight
		for _, w := range mesh.GetVertexBoneWeights(v) {
			if w.Bone < 0 || int(w.Bone) >= boneCount {
				return nil, errors.Wrapf(rig.ErrInconsistentTopology, "vertex %d weighted to bone %d of %d",
					v, w.Bone, boneCount)
			}
			ws = append(ws, w)
		}
		sort.SliceStable(ws, func(i, j int) bool { return ws[i].Weight > ws[j].Weight })
		if len(ws) > 4 {
			ws = ws[:4]
		}

		var total float32
		for _, w := range ws {
			total += w.Weight
		}
		if total == 0 {
			log.Printf("[scene] vertex %d has no weights", v)
			continue
		}
		for slot, w := range ws {
			vw.Weights[v*4+slot] = w.Weight / total
			vw.BoneIDs[v*4+slot] = float32(w.Bone)
		}
	}
	return vw, nil
}

// EditorBoneEnds returns head and tail of every skeleton bone in editor
// space, offset by mid.
func EditorBoneEnds(s *phxbn.Skeleton, mid mgl32.Vec3) [][2]mgl32.Vec3 {
	r := make([][2]mgl32.Vec3, len(s.Bones))
	for i := range s.Bones {
		head, tail := s.BoneEnds(i)
		r[i] = [2]mgl32.Vec3{xform.EngineToEditor(head).Add(mid), xform.EngineToEditor(tail).Add(mid)}
	}
	return r
}
