package phxbn

import (
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/overgrowth_browser/utils/gltfutils"
)

type GLTFSkeletonExported struct {
	BoneNodes []uint32
	LinesNode uint32
}

// ExportGLTF adds a node hierarchy for the bones and a line mesh connecting
// bone ends. Engine order is y-up like glTF, so positions are used as is.
func (s *Skeleton) ExportGLTF(doc *gltf.Document, name string) (*GLTFSkeletonExported, error) {
	local, err := s.RestLocal()
	if err != nil {
		return nil, err
	}

	gse := &GLTFSkeletonExported{BoneNodes: make([]uint32, len(s.Bones))}
	for i := range s.Bones {
		node := &gltf.Node{Name: BoneName(i)}
		gltfutils.SetLocalMatrix(node, local[i])
		gse.BoneNodes[i] = gltfutils.AddNode(doc, node)
	}
	for i, b := range s.Bones {
		if b.Parent >= 0 {
			parent := doc.Nodes[gse.BoneNodes[b.Parent]]
			parent.Children = append(parent.Children, gse.BoneNodes[i])
		}
	}

	positions := make([][3]float32, len(s.Points))
	for i := range s.Points {
		positions[i] = s.Points[i].Pos
	}
	indices := make([]uint32, 0, len(s.Bones)*2)
	for _, b := range s.Bones {
		indices = append(indices, uint32(b.Head), uint32(b.Tail))
	}

	if len(positions) != 0 && len(indices) != 0 {
		indicesAccessor := modeler.WriteIndices(doc, indices)
		mesh := &gltf.Mesh{
			Name: name,
			Primitives: []*gltf.Primitive{
				{
					Mode:       gltf.PrimitiveLines,
					Indices:    &indicesAccessor,
					Attributes: map[string]uint32{"POSITION": modeler.WritePosition(doc, positions)},
				},
			},
		}
		doc.Meshes = append(doc.Meshes, mesh)
		gse.LinesNode = gltfutils.AddNode(doc, &gltf.Node{
			Name: name + "_lines",
			Mesh: gltf.Index(uint32(len(doc.Meshes) - 1)),
		})
	}

	return gse, nil
}

func (s *Skeleton) ExportGLTFDefault(name string) (*gltf.Document, error) {
	doc := gltfutils.NewDocument()
	if _, err := s.ExportGLTF(doc, name); err != nil {
		return nil, err
	}
	return doc, nil
}
