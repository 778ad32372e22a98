package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/overgrowth_browser/pack/phxbn"
	"github.com/mogaika/overgrowth_browser/rig"
	"github.com/mogaika/overgrowth_browser/rig/joint"
	"github.com/mogaika/overgrowth_browser/rig/xform"
)

type Importer struct {
	// vertices with weights summing below are bound to the closest bone
	FallbackThreshold float32
}

var DefaultImporter = Importer{FallbackThreshold: phxbn.DefaultFallbackThreshold}

func ImportSkeleton(s *phxbn.Skeleton, mesh MeshSource, sink ArmatureSink, wsink WeightSink) error {
	return DefaultImporter.Import(s, mesh, sink, wsink)
}

// Import materializes s as editor bones named Bone_N placed around the mesh
// bounding box midpoint, recreates joint limits with the roll that lines
// each constrained bone up with its joint, and assigns vertex weights.
func (im Importer) Import(s *phxbn.Skeleton, mesh MeshSource, sink ArmatureSink, wsink WeightSink) error {
	switch {
	case s == nil:
		return errors.Wrapf(rig.ErrMissingExternalData, "no skeleton")
	case mesh == nil:
		return errors.Wrapf(rig.ErrMissingExternalData, "no mesh")
	case sink == nil:
		return errors.Wrapf(rig.ErrMissingExternalData, "no armature")
	case wsink == nil:
		return errors.Wrapf(rig.ErrMissingExternalData, "no weight target")
	}

	mid := midpoint(mesh)
	ends := EditorBoneEnds(s, mid)
	rest := make([]joint.BoneRest, len(s.Bones))
	ids := make([]int32, len(s.Bones))
	for i := range s.Bones {
		name := phxbn.BoneName(i)
		ids[i] = sink.CreateBone(name, ends[i][0], ends[i][1])
		b := &s.Bones[i]
		sink.SetBoneData(ids[i], b.Mass, b.COM, b.Matrix, b.Swap)
		x, z := BoneAxes(ends[i][0], ends[i][1], 0)
		rest[i] = joint.BoneRest{
			Name:   name,
			Parent: s.Bones[i].Parent,
			Head:   ends[i][0],
			Tail:   ends[i][1],
			XAxis:  x,
			ZAxis:  z,
		}
	}
	for i := range s.Bones {
		if p := s.Bones[i].Parent; p != xform.NoParent {
			sink.SetBoneParent(ids[i], ids[p])
		}
	}

	rolls := make([]float32, len(s.Bones))
	for i, j := range s.Joints {
		r, err := joint.Reconstruct(j, rest)
		if err != nil {
			return errors.Wrapf(err, "joint %d", i)
		}
		sink.AddRotationLimitConstraint(ids[r.Child], RotationLimit{
			Limits:     r.Limits,
			OwnerSpace: true,
			Other:      r.Name,
		})
		if j.Type != joint.Fixed {
			rolls[r.Child] += r.Roll
			sink.SetBoneRoll(ids[r.Child], rolls[r.Child])
		}
	}

	for _, ik := range s.IKRoots {
		sink.AddIKConstraint(ids[ik.Bone], IKConstraint{Name: ik.Name, ChainLength: ik.ChainLength})
	}

	return im.importWeights(s, mesh, wsink, mid)
}

func (im Importer) importWeights(s *phxbn.Skeleton, mesh MeshSource, wsink WeightSink, mid mgl32.Vec3) error {
	vw, err := phxbn.RedistributeWeights(s.CornerWeights, s.CornerBoneIDs, mesh)
	if err != nil {
		return err
	}
	vertices := make([]mgl32.Vec3, mesh.VertexCount())
	for v := range vertices {
		vertices[v] = xform.EditorToEngine(mesh.GetVertexPosition(v).Sub(mid))
	}
	if _, err := phxbn.ClosestBoneFallback(vw, vertices, s, im.FallbackThreshold); err != nil {
		return err
	}

	for v := range vertices {
		var ws []BoneWeight
		for slot := v * 4; slot < v*4+4; slot++ {
			if vw.Weights[slot] != 0 {
				ws = append(ws, BoneWeight{Bone: int32(vw.BoneIDs[slot]), Weight: vw.Weights[slot]})
			}
		}
		wsink.SetVertexBoneWeights(v, ws)
	}
	return nil
}
