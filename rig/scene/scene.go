// Package scene connects the skeleton codec to an editor armature. The editor
// is reached only through the interfaces below; Armature and Mesh are
// in-memory implementations.
package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/overgrowth_browser/rig/joint"
)

// BoneInfo describes an editor bone at rest. Positions are editor space.
type BoneInfo struct {
	Name   string     `json:"name" yaml:"name"`
	Head   mgl32.Vec3 `json:"head" yaml:"head,flow"`
	Tail   mgl32.Vec3 `json:"tail" yaml:"tail,flow"`
	Parent int32      `json:"parent" yaml:"parent"`
	Roll   float32    `json:"roll" yaml:"roll"`
	// zero means default mass
	Mass float32    `json:"mass,omitempty" yaml:"mass,omitempty"`
	COM  [3]float32 `json:"com" yaml:"com,flow"`
	// zero means computed from head and tail
	Matrix [16]float32 `json:"matrix" yaml:"matrix,flow"`
	// stored tail to head in the skeleton file
	Swap bool `json:"swap,omitempty" yaml:"swap,omitempty"`
}

// RotationLimit is a rotation limit constraint on a bone. Other names the
// second constrained bone when it is not the owner's parent.
type RotationLimit struct {
	Limits     joint.Limits `json:"limits" yaml:"limits"`
	OwnerSpace bool         `json:"owner_space" yaml:"owner_space"`
	Other      string       `json:"other,omitempty" yaml:"other,omitempty"`
}

type IKConstraint struct {
	Name        string `json:"name" yaml:"name"`
	ChainLength int32  `json:"chain_length" yaml:"chain_length"`
}

type BoneWeight struct {
	Bone   int32   `json:"bone" yaml:"bone"`
	Weight float32 `json:"weight" yaml:"weight"`
}

type ArmatureSource interface {
	GetBoneHierarchy() []BoneInfo
	GetRotationLimitConstraints(bone int) []RotationLimit
	GetIKConstraints(bone int) []IKConstraint
}

type MeshSource interface {
	TriangleCount() int
	VertexCount() int
	GetTriangleVertexIndices(triangle int) [3]int
	GetVertexPosition(vertex int) mgl32.Vec3
	GetVertexBoneWeights(vertex int) []BoneWeight
	Bounds() (min, max mgl32.Vec3)
}

type ArmatureSink interface {
	CreateBone(name string, head, tail mgl32.Vec3) int32
	SetBoneParent(bone, parent int32)
	SetBoneData(bone int32, mass float32, com [3]float32, matrix [16]float32, swap bool)
	AddRotationLimitConstraint(bone int32, limit RotationLimit)
	SetBoneRoll(bone int32, roll float32)
	AddIKConstraint(bone int32, ik IKConstraint)
}

type WeightSink interface {
	SetVertexBoneWeights(vertex int, weights []BoneWeight)
}

// BoneAxes returns the world X and Z axes of a bone pointing from head to
// tail along its Y axis and rotated by roll around it.
func BoneAxes(head, tail mgl32.Vec3, roll float32) (x, z mgl32.Vec3) {
	dir := tail.Sub(head)
	if dir.Len() == 0 {
		dir = mgl32.Vec3{0, 1, 0}
	}
	dir = dir.Normalize()
	q := mgl32.QuatRotate(roll, dir).Mul(mgl32.QuatBetweenVectors(mgl32.Vec3{0, 1, 0}, dir))
	return q.Rotate(mgl32.Vec3{1, 0, 0}), q.Rotate(mgl32.Vec3{0, 0, 1})
}

func midpoint(mesh MeshSource) mgl32.Vec3 {
	min, max := mesh.Bounds()
	return min.Add(max).Mul(0.5)
}
