package phxbn

import (
	"github.com/mogaika/overgrowth_browser/rig/xform"
	"github.com/mogaika/overgrowth_browser/utils"
	"github.com/mogaika/overgrowth_browser/utils/fbxbuilder"
)

type FbxExporter struct {
	FbxModelId int64
	BoneModels []int64
}

// ExportFbx adds a null model for the skeleton with one limb node per bone
func (s *Skeleton) ExportFbx(b *fbxbuilder.Builder, name string) (*FbxExporter, error) {
	local, err := s.RestLocal()
	if err != nil {
		return nil, err
	}
	order, err := xform.TopologicalOrder("bone", s.BoneParents())
	if err != nil {
		return nil, err
	}

	fe := &FbxExporter{
		FbxModelId: b.AddNull(name),
		BoneModels: make([]int64, len(s.Bones)),
	}
	for _, i := range order {
		bone := s.Bones[i]
		pos, q, scale := utils.DecomposeMat4(local[i])
		rotation := utils.RadiansToDegreeV3(utils.QuatToEuler(q))

		parent := fe.FbxModelId
		if bone.Parent >= 0 {
			parent = fe.BoneModels[bone.Parent]
		}
		fe.BoneModels[i] = b.AddLimb(BoneName(i), parent, pos, rotation, scale, bone.Mass)
	}
	return fe, nil
}

func (s *Skeleton) ExportFbxDefault(name string) (*fbxbuilder.Builder, error) {
	b := fbxbuilder.New(name)
	fe, err := s.ExportFbx(b, name)
	if err != nil {
		return nil, err
	}
	b.Connect(fe.FbxModelId, 0)
	return b, nil
}
