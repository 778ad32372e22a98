package phxbn

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/overgrowth_browser/rig"
)

// vertices whose weights sum below this are rebound to the closest bone
const DefaultFallbackThreshold = 0.99

// MeshTopology is the part of a triangle mesh weights are laid out over.
type MeshTopology interface {
	TriangleCount() int
	VertexCount() int
	GetTriangleVertexIndices(triangle int) [3]int
}

// VertexWeights holds 4 weight and bone id slots per vertex
type VertexWeights struct {
	Weights []float32 `json:"weights"`
	BoneIDs []float32 `json:"bone_ids"`
}

func NewVertexWeights(vertexCount int) *VertexWeights {
	return &VertexWeights{
		Weights: make([]float32, vertexCount*4),
		BoneIDs: make([]float32, vertexCount*4),
	}
}

func (vw *VertexWeights) VertexCount() int {
	return len(vw.Weights) / 4
}

func (vw *VertexWeights) Sum(vertex int) float32 {
	w := vw.Weights[vertex*4 : vertex*4+4]
	return w[0] + w[1] + w[2] + w[3]
}

func checkCorners(cornerWeights, cornerBoneIDs []float32, mesh MeshTopology) error {
	if mesh == nil {
		return errors.Wrapf(rig.ErrMissingExternalData, "no mesh to lay weights over")
	}
	expected := mesh.TriangleCount() * 12
	if len(cornerWeights) != expected || len(cornerBoneIDs) != expected {
		return errors.Wrapf(rig.ErrInconsistentTopology, "corner data %d/%d floats for %d triangles",
			len(cornerWeights), len(cornerBoneIDs), mesh.TriangleCount())
	}
	return nil
}

func cornerVertex(mesh MeshTopology, triangle int) ([3]int, error) {
	vs := mesh.GetTriangleVertexIndices(triangle)
	for corner, v := range vs {
		if v < 0 || v >= mesh.VertexCount() {
			return vs, errors.Wrapf(rig.ErrInconsistentTopology, "triangle %d corner %d vertex %d of %d",
				triangle, corner, v, mesh.VertexCount())
		}
	}
	return vs, nil
}

// RedistributeWeights spreads per-corner slots onto mesh vertices. A vertex
// shared by several triangles keeps the slots of the last corner written in
// triangle order.
func RedistributeWeights(cornerWeights, cornerBoneIDs []float32, mesh MeshTopology) (*VertexWeights, error) {
	if err := checkCorners(cornerWeights, cornerBoneIDs, mesh); err != nil {
		return nil, err
	}
	vw := NewVertexWeights(mesh.VertexCount())
	for tri := 0; tri < mesh.TriangleCount(); tri++ {
		vs, err := cornerVertex(mesh, tri)
		if err != nil {
			return nil, err
		}
		for corner, v := range vs {
			copy(vw.Weights[v*4:v*4+4], cornerWeights[tri*12+corner*4:])
			copy(vw.BoneIDs[v*4:v*4+4], cornerBoneIDs[tri*12+corner*4:])
		}
	}
	return vw, nil
}

// CornerWeights lays per-vertex slots out per triangle corner, the inverse
// of RedistributeWeights.
func CornerWeights(vw *VertexWeights, mesh MeshTopology) (weights, boneIDs []float32, err error) {
	if mesh == nil {
		return nil, nil, errors.Wrapf(rig.ErrMissingExternalData, "no mesh to lay weights over")
	}
	if vw.VertexCount() != mesh.VertexCount() {
		return nil, nil, errors.Wrapf(rig.ErrInconsistentTopology, "weights for %d vertices, mesh has %d",
			vw.VertexCount(), mesh.VertexCount())
	}
	weights = make([]float32, 0, mesh.TriangleCount()*12)
	boneIDs = make([]float32, 0, mesh.TriangleCount()*12)
	for tri := 0; tri < mesh.TriangleCount(); tri++ {
		vs, err := cornerVertex(mesh, tri)
		if err != nil {
			return nil, nil, err
		}
		for _, v := range vs {
			weights = append(weights, vw.Weights[v*4:v*4+4]...)
			boneIDs = append(boneIDs, vw.BoneIDs[v*4:v*4+4]...)
		}
	}
	return weights, boneIDs, nil
}

type WeightConflict struct {
	Vertex   int `json:"vertex"`
	Triangle int `json:"triangle"`
	Corner   int `json:"corner"`
	// triangle whose corner first wrote the vertex
	FirstTriangle int `json:"first_triangle"`
}

// CheckWeightConflicts lists corners that disagree with an earlier corner of
// the same vertex. RedistributeWeights silently keeps the last of them.
func CheckWeightConflicts(cornerWeights, cornerBoneIDs []float32, mesh MeshTopology) ([]WeightConflict, error) {
	if err := checkCorners(cornerWeights, cornerBoneIDs, mesh); err != nil {
		return nil, err
	}
	first := make(map[int]int)
	var conflicts []WeightConflict
	for tri := 0; tri < mesh.TriangleCount(); tri++ {
		vs, err := cornerVertex(mesh, tri)
		if err != nil {
			return nil, err
		}
		for corner, v := range vs {
			at := tri*12 + corner*4
			prev, seen := first[v]
			if !seen {
				first[v] = at
				continue
			}
			for slot := 0; slot < 4; slot++ {
				if cornerWeights[prev+slot] != cornerWeights[at+slot] || cornerBoneIDs[prev+slot] != cornerBoneIDs[at+slot] {
					conflicts = append(conflicts, WeightConflict{
						Vertex: v, Triangle: tri, Corner: corner, FirstTriangle: prev / 12})
					break
				}
			}
		}
	}
	return conflicts, nil
}

// CapsuleDistance measures from p to the segment a-b. Points projecting
// inside the segment use the distance between a and p moved back along the
// segment direction. A zero length segment measures from a.
func CapsuleDistance(a, b, p mgl32.Vec3) float32 {
	length := b.Sub(a).Len()
	if length == 0 {
		return a.Sub(p).Len()
	}
	dir := b.Sub(a).Mul(1 / length)
	t := p.Sub(a).Dot(dir)
	if t < 0 {
		return a.Sub(p).Len()
	}
	if t > length {
		return b.Sub(p).Len()
	}
	return a.Sub(p.Sub(dir.Mul(t))).Len()
}

// ClosestBone returns the bone with minimal capsule distance to p, -1 for a
// skeleton without bones. p is in engine order.
func (s *Skeleton) ClosestBone(p mgl32.Vec3) int {
	closest := -1
	var closestDist float32
	for i := range s.Bones {
		head, tail := s.BoneEnds(i)
		if dist := CapsuleDistance(head, tail, p); closest == -1 || dist < closestDist {
			closest, closestDist = i, dist
		}
	}
	return closest
}

// ClosestBoneFallback binds every vertex with weights summing below threshold
// fully to its closest bone by writing the first slot. Returns the rebound
// vertices. vertices are in engine order.
func ClosestBoneFallback(vw *VertexWeights, vertices []mgl32.Vec3, s *Skeleton, threshold float32) ([]int, error) {
	if len(vertices) != vw.VertexCount() {
		return nil, errors.Wrapf(rig.ErrInconsistentTopology, "%d vertices for %d weights", len(vertices), vw.VertexCount())
	}
	if len(s.Bones) == 0 {
		return nil, errors.Wrapf(rig.ErrInconsistentTopology, "skeleton without bones")
	}
	var rebound []int
	for i, v := range vertices {
		if vw.Sum(i) < threshold {
			vw.Weights[i*4] = 1
			vw.BoneIDs[i*4] = float32(s.ClosestBone(v))
			rebound = append(rebound, i)
		}
	}
	return rebound, nil
}
