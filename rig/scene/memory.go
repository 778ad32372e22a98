package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Armature is an in-memory editor armature.
type Armature struct {
	Bones  []BoneInfo                `json:"bones" yaml:"bones"`
	Limits map[int32][]RotationLimit `json:"limits,omitempty" yaml:"limits,omitempty"`
	IK     map[int32][]IKConstraint  `json:"ik,omitempty" yaml:"ik,omitempty"`
}

func NewArmature() *Armature {
	return &Armature{
		Limits: make(map[int32][]RotationLimit),
		IK:     make(map[int32][]IKConstraint),
	}
}

func (a *Armature) GetBoneHierarchy() []BoneInfo { return a.Bones }

func (a *Armature) GetRotationLimitConstraints(bone int) []RotationLimit {
	return a.Limits[int32(bone)]
}

func (a *Armature) GetIKConstraints(bone int) []IKConstraint {
	return a.IK[int32(bone)]
}

func (a *Armature) CreateBone(name string, head, tail mgl32.Vec3) int32 {
	a.Bones = append(a.Bones, BoneInfo{Name: name, Head: head, Tail: tail, Parent: -1})
	return int32(len(a.Bones) - 1)
}

func (a *Armature) SetBoneParent(bone, parent int32) { a.Bones[bone].Parent = parent }

func (a *Armature) SetBoneData(bone int32, mass float32, com [3]float32, matrix [16]float32, swap bool) {
	b := &a.Bones[bone]
	b.Mass, b.COM, b.Matrix, b.Swap = mass, com, matrix, swap
}

func (a *Armature) AddRotationLimitConstraint(bone int32, limit RotationLimit) {
	a.Limits[bone] = append(a.Limits[bone], limit)
}

func (a *Armature) SetBoneRoll(bone int32, roll float32) { a.Bones[bone].Roll = roll }

func (a *Armature) AddIKConstraint(bone int32, ik IKConstraint) {
	a.IK[bone] = append(a.IK[bone], ik)
}

// Mesh is an in-memory triangle mesh with per vertex bone weights.
type Mesh struct {
	Vertices  []mgl32.Vec3   `json:"vertices" yaml:"vertices"`
	Triangles [][3]int       `json:"triangles" yaml:"triangles"`
	Weights   [][]BoneWeight `json:"weights" yaml:"weights"`
}

func NewMesh(vertices []mgl32.Vec3, triangles [][3]int) *Mesh {
	return &Mesh{
		Vertices:  vertices,
		Triangles: triangles,
		Weights:   make([][]BoneWeight, len(vertices)),
	}
}

// NewCornerMesh builds a mesh without shared vertices, one vertex at the
// origin per triangle corner. Per corner weight data maps onto it as is.
func NewCornerMesh(corners int) *Mesh {
	triangles := make([][3]int, corners/3)
	for i := range triangles {
		triangles[i] = [3]int{i * 3, i*3 + 1, i*3 + 2}
	}
	return NewMesh(make([]mgl32.Vec3, len(triangles)*3), triangles)
}

func (m *Mesh) TriangleCount() int { return len(m.Triangles) }

func (m *Mesh) VertexCount() int { return len(m.Vertices) }

func (m *Mesh) GetTriangleVertexIndices(triangle int) [3]int { return m.Triangles[triangle] }

func (m *Mesh) GetVertexPosition(vertex int) mgl32.Vec3 { return m.Vertices[vertex] }

func (m *Mesh) GetVertexBoneWeights(vertex int) []BoneWeight { return m.Weights[vertex] }

func (m *Mesh) SetVertexBoneWeights(vertex int, weights []BoneWeight) {
	m.Weights[vertex] = weights
}

func (m *Mesh) Bounds() (min, max mgl32.Vec3) {
	if len(m.Vertices) == 0 {
		return
	}
	min, max = m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		for i := 0; i < 3; i++ {
			if v[i] < min[i] {
				min[i] = v[i]
			}
			if v[i] > max[i] {
				max[i] = v[i]
			}
		}
	}
	return min, max
}
