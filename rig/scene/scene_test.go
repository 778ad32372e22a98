package scene

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/overgrowth_browser/pack/phxbn"
	"github.com/mogaika/overgrowth_browser/rig"
	"github.com/mogaika/overgrowth_browser/rig/joint"
	"github.com/mogaika/overgrowth_browser/utils"
)

func vecApprox(a, b mgl32.Vec3) bool {
	return a.ApproxEqualThreshold(b, 1e-5)
}

// testRig is a spine of two bones with an arm forking off the root bone
// and a hand at the end of the spine.
func testRig() (*Armature, *Mesh) {
	names := utils.NewRandomNameGenerator(7).RandomNames(4)
	arm := NewArmature()
	arm.Bones = []BoneInfo{
		{Name: names[0], Head: mgl32.Vec3{0, 0, 0}, Tail: mgl32.Vec3{0, 0, 1}, Parent: -1},
		{Name: names[1], Head: mgl32.Vec3{0, 0, 1}, Tail: mgl32.Vec3{0, 0, 2}, Parent: 0, Mass: 0.2, COM: [3]float32{0.1, 0.2, 0.3}},
		{Name: names[2], Head: mgl32.Vec3{0, 0, 2}, Tail: mgl32.Vec3{0, 1, 2}, Parent: 1},
		{Name: names[3], Head: mgl32.Vec3{0, 0, 1}, Tail: mgl32.Vec3{1, 0, 1}, Parent: 0, Swap: true},
	}
	arm.Limits[0] = []RotationLimit{{Limits: joint.Limits{Max: mgl32.Vec3{1, 1, 1}}}}
	arm.Limits[1] = []RotationLimit{{Limits: joint.Limits{Min: mgl32.Vec3{-1, 0, 0}, Max: mgl32.Vec3{1, 0, 0}}, OwnerSpace: true}}
	arm.Limits[2] = []RotationLimit{{OwnerSpace: true}}
	arm.Limits[3] = []RotationLimit{{
		Limits:     joint.Limits{Min: mgl32.Vec3{-0.5, -0.25, 0}, Max: mgl32.Vec3{0.5, 0.25, 0}},
		OwnerSpace: true,
		Other:      names[2],
	}}
	arm.IK[2] = []IKConstraint{{Name: "hand", ChainLength: 2}}

	mesh := NewMesh([]mgl32.Vec3{{-1, 0, 0}, {1, 0, 2}, {1, 0, 0}, {-1, 0, 2}}, [][3]int{{0, 1, 2}, {2, 3, 0}})
	mesh.Weights[0] = []BoneWeight{{Bone: 0, Weight: 2}, {Bone: 1, Weight: 2}}
	mesh.Weights[1] = []BoneWeight{
		{Bone: 0, Weight: 0.1}, {Bone: 1, Weight: 0.4}, {Bone: 2, Weight: 0.3},
		{Bone: 3, Weight: 0.2}, {Bone: 0, Weight: 0.05},
	}
	mesh.Weights[2] = []BoneWeight{{Bone: 2, Weight: 1}}
	return arm, mesh
}

func TestExportSkeleton(t *testing.T) {
	arm, mesh := testRig()
	s, err := ExportSkeleton(arm, mesh)
	if err != nil {
		t.Fatalf("ExportSkeleton() error: %v", err)
	}

	expectedBones := [][2]int32{{0, 1}, {1, 2}, {2, 4}, {1, 3}}
	for i, b := range s.Bones {
		if [2]int32{b.Head, b.Tail} != expectedBones[i] {
			t.Errorf("bone %d points=(%d,%d); expected %v", i, b.Head, b.Tail, expectedBones[i])
		}
	}
	if got, expected := s.PointParents(), []int32{-1, 0, 1, 1, 2}; !equalInt32(got, expected) {
		t.Errorf("PointParents()=%v; expected %v", got, expected)
	}
	if s.Bones[0].Mass != DefaultBoneMass || s.Bones[1].Mass != 0.2 {
		t.Errorf("masses %v %v; expected %v 0.2", s.Bones[0].Mass, s.Bones[1].Mass, DefaultBoneMass)
	}

	mid := mgl32.Vec3{0, 0, 1}
	points := s.EditorPoints()
	for i, expected := range []mgl32.Vec3{{0, 0, 0}, {0, 0, 1}, {0, 0, 2}, {1, 0, 1}, {0, 1, 2}} {
		if !vecApprox(points[i], expected.Sub(mid)) {
			t.Errorf("point %d=%v; expected %v", i, points[i], expected.Sub(mid))
		}
	}

	if len(s.Joints) != 3 {
		t.Fatalf("joints=%+v; expected 3", s.Joints)
	}
	for i, expected := range []struct {
		typ   joint.Type
		bones [2]int32
	}{
		{joint.Hinge, [2]int32{1, 0}},
		{joint.Fixed, [2]int32{2, 1}},
		{joint.Amotor, [2]int32{3, 2}},
	} {
		if j := s.Joints[i]; j.Type != expected.typ || j.BoneIDs != expected.bones {
			t.Errorf("joint %d=%v %v; expected %v %v", i, j.Type, j.BoneIDs, expected.typ, expected.bones)
		}
	}
	if len(s.IKRoots) != 1 || s.IKRoots[0] != (phxbn.IKRoot{Name: "hand", Bone: 2, ChainLength: 2}) {
		t.Errorf("IKRoots=%+v", s.IKRoots)
	}

	// triangle 0 corner 1 is vertex 1
	if got, expected := s.CornerWeights[4:8], []float32{0.4, 0.3, 0.2, 0.1}; !equalFloat(got, expected) {
		t.Errorf("vertex 1 weights=%v; expected %v", got, expected)
	}
	if got, expected := s.CornerBoneIDs[4:8], []float32{1, 2, 3, 0}; !equalFloat(got, expected) {
		t.Errorf("vertex 1 bones=%v; expected %v", got, expected)
	}
	if got, expected := s.CornerWeights[0:4], []float32{0.5, 0.5, 0, 0}; !equalFloat(got, expected) {
		t.Errorf("vertex 0 weights=%v; expected %v", got, expected)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	arm, mesh := testRig()
	s, err := ExportSkeleton(arm, mesh)
	if err != nil {
		t.Fatalf("ExportSkeleton() error: %v", err)
	}
	var buf bytes.Buffer
	if err := s.Write(&buf); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	s, err = phxbn.Read(buf.Bytes())
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}

	imported := NewArmature()
	target := NewMesh(mesh.Vertices, mesh.Triangles)
	if err := ImportSkeleton(s, target, imported, target); err != nil {
		t.Fatalf("ImportSkeleton() error: %v", err)
	}

	if len(imported.Bones) != len(arm.Bones) {
		t.Fatalf("imported %d bones; expected %d", len(imported.Bones), len(arm.Bones))
	}
	for i, b := range imported.Bones {
		src := arm.Bones[i]
		if b.Name != phxbn.BoneName(i) {
			t.Errorf("bone %d name=%q; expected %q", i, b.Name, phxbn.BoneName(i))
		}
		if !vecApprox(b.Head, src.Head) || !vecApprox(b.Tail, src.Tail) {
			t.Errorf("bone %d=%v..%v; expected %v..%v", i, b.Head, b.Tail, src.Head, src.Tail)
		}
		if b.Parent != src.Parent {
			t.Errorf("bone %d parent=%d; expected %d", i, b.Parent, src.Parent)
		}
	}

	// hinge exported with zero roll comes back with zero roll
	if roll := imported.Bones[1].Roll; math.Abs(float64(roll)) > 1e-5 {
		t.Errorf("bone 1 roll=%v; expected 0", roll)
	}
	if l := imported.Limits[1]; len(l) != 1 || l[0].Other != "" || l[0].Limits.DegreesOfFreedom() != 1 {
		t.Errorf("bone 1 limits=%+v", l)
	}
	// the amotor between two siblings lands on the second bone
	if l := imported.Limits[2]; len(l) != 2 || l[1].Other != phxbn.BoneName(3) {
		t.Errorf("bone 2 limits=%+v; expected fixed and amotor named %s", l, phxbn.BoneName(3))
	}
	if ik := imported.IK[2]; len(ik) != 1 || ik[0] != (IKConstraint{Name: "hand", ChainLength: 2}) {
		t.Errorf("bone 2 ik=%+v", ik)
	}

	if w := target.Weights[1]; len(w) != 4 || w[0].Bone != 1 || !equalFloat([]float32{w[0].Weight}, []float32{0.4}) {
		t.Errorf("vertex 1 weights=%+v", w)
	}
	// vertex 3 had no weights and falls back to a single bone
	if w := target.Weights[3]; len(w) != 1 || w[0].Weight != 1 {
		t.Errorf("vertex 3 weights=%+v; expected one full weight", w)
	}

	again, err := ExportSkeleton(imported, target)
	if err != nil {
		t.Fatalf("ExportSkeleton(imported) error: %v", err)
	}
	for i, b := range again.Bones {
		src := s.Bones[i]
		if b.Mass != src.Mass || b.COM != src.COM || b.Matrix != src.Matrix || b.Swap != src.Swap {
			t.Errorf("re-exported bone %d=%+v; expected %+v", i, b, src)
		}
	}
	if again.Bones[1].COM != ([3]float32{0.1, 0.2, 0.3}) || !again.Bones[3].Swap {
		t.Errorf("re-exported bone 1 com=%v bone 3 swap=%v; expected [0.1 0.2 0.3] true",
			again.Bones[1].COM, again.Bones[3].Swap)
	}
	if again.Bones[0].Mass != DefaultBoneMass {
		t.Errorf("re-exported bone 0 mass=%v; expected %v", again.Bones[0].Mass, DefaultBoneMass)
	}
}

func TestMissingCollaborators(t *testing.T) {
	arm, mesh := testRig()
	s, err := ExportSkeleton(arm, mesh)
	if err != nil {
		t.Fatalf("ExportSkeleton() error: %v", err)
	}
	for name, err := range map[string]error{
		"export no armature": func() error { _, err := ExportSkeleton(nil, mesh); return err }(),
		"export no mesh":     func() error { _, err := ExportSkeleton(arm, nil); return err }(),
		"import no skeleton": ImportSkeleton(nil, mesh, NewArmature(), mesh),
		"import no mesh":     ImportSkeleton(s, nil, NewArmature(), mesh),
		"import no armature": ImportSkeleton(s, mesh, nil, mesh),
		"import no weights":  ImportSkeleton(s, mesh, NewArmature(), nil),
	} {
		if !errors.Is(err, rig.ErrMissingExternalData) {
			t.Errorf("%s err=%v; expected %v", name, err, rig.ErrMissingExternalData)
		}
	}
}

func TestExportRejectsBadArmature(t *testing.T) {
	arm, mesh := testRig()
	arm.Limits[3][0].Other = "nobody"
	if _, err := ExportSkeleton(arm, mesh); !errors.Is(err, rig.ErrInconsistentTopology) {
		t.Errorf("ExportSkeleton(unknown limit bone) err=%v; expected %v", err, rig.ErrInconsistentTopology)
	}

	arm, mesh = testRig()
	arm.Bones[0].Parent = 2
	if _, err := ExportSkeleton(arm, mesh); !errors.Is(err, rig.ErrInconsistentTopology) {
		t.Errorf("ExportSkeleton(cycle) err=%v; expected %v", err, rig.ErrInconsistentTopology)
	}

	arm, mesh = testRig()
	mesh.Weights[2] = []BoneWeight{{Bone: 9, Weight: 1}}
	if _, err := ExportSkeleton(arm, mesh); !errors.Is(err, rig.ErrInconsistentTopology) {
		t.Errorf("ExportSkeleton(bad weight bone) err=%v; expected %v", err, rig.ErrInconsistentTopology)
	}
}

func TestBoneAxes(t *testing.T) {
	for _, test := range []struct {
		tail mgl32.Vec3
		roll float32
		x, z mgl32.Vec3
	}{
		{mgl32.Vec3{0, 1, 0}, 0, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
		{mgl32.Vec3{0, 0, 1}, 0, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, -1, 0}},
		{mgl32.Vec3{0, 0, 1}, math.Pi / 2, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}},
	} {
		x, z := BoneAxes(mgl32.Vec3{}, test.tail, test.roll)
		if !vecApprox(x, test.x) || !vecApprox(z, test.z) {
			t.Errorf("BoneAxes(%v, %v)=%v, %v; expected %v, %v", test.tail, test.roll, x, z, test.x, test.z)
		}
	}
}

func TestCornerMesh(t *testing.T) {
	m := NewCornerMesh(6)
	if m.TriangleCount() != 2 || m.VertexCount() != 6 {
		t.Fatalf("NewCornerMesh(6)=%d triangles %d vertices", m.TriangleCount(), m.VertexCount())
	}
	if got := m.GetTriangleVertexIndices(1); got != [3]int{3, 4, 5} {
		t.Errorf("triangle 1=%v; expected [3 4 5]", got)
	}
}

func equalInt32(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalFloat(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > 1e-6 {
			return false
		}
	}
	return true
}
