package phxbn

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/overgrowth_browser/rig/xform"
)

const symmetryDistanceSq = 0.0001

func distanceSq(a, b mgl32.Vec3) float32 {
	d := a.Sub(b)
	return d.Dot(d)
}

// FindSymmetry pairs every bone with the bone mirrored across the x=0 plane.
// Bones lying on the plane mirror themselves. symmetry holds -1 for bones
// without a mirror, those are also listed in asymmetric.
func (s *Skeleton) FindSymmetry() (symmetry []int, asymmetric []int) {
	symmetry = make([]int, len(s.Bones))
	for i := range symmetry {
		symmetry[i] = -1
	}
	for i := range s.Bones {
		head, tail := s.BoneEnds(i)
		for j := i; j < len(s.Bones); j++ {
			rhead, rtail := s.BoneEnds(j)
			rhead[0] *= -1
			rtail[0] *= -1
			if distanceSq(head, rhead) < symmetryDistanceSq && distanceSq(tail, rtail) < symmetryDistanceSq {
				symmetry[i] = j
				symmetry[j] = i
			}
		}
		if symmetry[i] == -1 {
			asymmetric = append(asymmetric, i)
		}
	}
	return symmetry, asymmetric
}

// Uncenter moves points by -mid, mid is an editor space position
// (usually the mesh bounding box midpoint).
func (s *Skeleton) Uncenter(mid mgl32.Vec3) {
	s.offsetPoints(xform.EditorToEngine(mid).Mul(-1))
}

// Center is the inverse of Uncenter.
func (s *Skeleton) Center(mid mgl32.Vec3) {
	s.offsetPoints(xform.EditorToEngine(mid))
}

func (s *Skeleton) offsetPoints(d mgl32.Vec3) {
	for i := range s.Points {
		s.Points[i].Pos = mgl32.Vec3(s.Points[i].Pos).Add(d)
	}
}

// EditorPoints returns all point positions in editor axis order
func (s *Skeleton) EditorPoints() []mgl32.Vec3 {
	r := make([]mgl32.Vec3, len(s.Points))
	for i := range s.Points {
		r[i] = s.Points[i].EditorPos()
	}
	return r
}
