package gltfutils

import (
	"io"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"

	"github.com/mogaika/overgrowth_browser/utils"
)

func NewDocument() *gltf.Document {
	return gltf.NewDocument()
}

func AddNode(doc *gltf.Document, node *gltf.Node) uint32 {
	doc.Nodes = append(doc.Nodes, node)
	return uint32(len(doc.Nodes) - 1)
}

// SetLocalMatrix decomposes m into node translation, rotation and scale
func SetLocalMatrix(node *gltf.Node, m mgl32.Mat4) {
	t, r, s := utils.DecomposeMat4(m)
	node.Translation = t
	node.Rotation = r.V.Vec4(r.W)
	node.Scale = s
}

// RootNodes lists nodes that are nobody's children
func RootNodes(doc *gltf.Document) []uint32 {
	isChild := make(map[uint32]bool)
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			isChild[c] = true
		}
	}
	roots := make([]uint32, 0)
	for i := range doc.Nodes {
		if !isChild[uint32(i)] {
			roots = append(roots, uint32(i))
		}
	}
	return roots
}

func ExportBinary(w io.Writer, doc *gltf.Document) error {
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, RootNodes(doc)...)

	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	return encoder.Encode(doc)
}
