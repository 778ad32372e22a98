package phxbn

import (
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/overgrowth_browser/rig"
	"github.com/mogaika/overgrowth_browser/rig/joint"
	"github.com/mogaika/overgrowth_browser/rig/xform"
	"github.com/mogaika/overgrowth_browser/utils"
)

type testMesh struct {
	triangles [][3]int
	vertices  int
}

func (m *testMesh) TriangleCount() int { return len(m.triangles) }
func (m *testMesh) VertexCount() int   { return m.vertices }

func (m *testMesh) GetTriangleVertexIndices(triangle int) [3]int {
	return m.triangles[triangle]
}

func chainSkeleton() *Skeleton {
	return &Skeleton{
		Version:      Version,
		RiggingStage: RiggingStage,
		Points: []Point{
			{Pos: [3]float32{0, 0, 0}, Parent: -1},
			{Pos: [3]float32{0, 1, 0}, Parent: 0},
			{Pos: [3]float32{0, 2, 0}, Parent: 1},
			{Pos: [3]float32{0, 3, 0}, Parent: 2},
		},
		Bones: []Bone{
			{Head: 0, Tail: 1, Parent: -1, Mass: 0.1},
			{Head: 1, Tail: 2, Parent: 0, Mass: 0.2},
			{Head: 2, Tail: 3, Parent: 1, Mass: 0.15},
		},
		CornerWeights: []float32{},
		CornerBoneIDs: []float32{},
		ParentIDs:     []int32{-1, 0, 1},
		Joints:        []joint.Joint{},
		IKRoots:       []IKRoot{},
	}
}

// a root with two mirrored children, the second stored swapped
func forkSkeleton() *Skeleton {
	s := &Skeleton{
		Version:      Version,
		RiggingStage: RiggingStage,
		Points: []Point{
			{Pos: [3]float32{0, 0, 0}, Parent: -1},
			{Pos: [3]float32{0, 1, 0}, Parent: 0},
			{Pos: [3]float32{1, 1, 0}, Parent: 1},
			{Pos: [3]float32{-1, 1, 0}, Parent: 1},
		},
		Bones: []Bone{
			{Head: 0, Tail: 1, Parent: -1, Mass: 0.5, COM: [3]float32{0, 0.5, 0}},
			{Head: 1, Tail: 2, Parent: 0, Mass: 0.1, COM: [3]float32{0.5, 1, 0}},
			{Head: 1, Tail: 3, Parent: 0, Mass: 0.1, COM: [3]float32{-0.5, 1, 0}, Swap: true},
		},
		// one triangle
		CornerWeights: []float32{1, 0, 0, 0, 0.5, 0.5, 0, 0, 0.25, 0.25, 0.5, 0},
		CornerBoneIDs: []float32{0, 0, 0, 0, 0, 1, 0, 0, 0, 1, 2, 0},
		ParentIDs:     []int32{-1, 0, 0},
		Joints: []joint.Joint{
			{Type: joint.Hinge, StopAngles: []float32{-1, 1}, BoneIDs: [2]int32{1, 0}, Axis: [3]float32{1, 0, 0}},
			{Type: joint.Amotor, StopAngles: []float32{-1, 1, -0.5, 0.5, -0.2, 0.2}, BoneIDs: [2]int32{2, 0}},
			{Type: joint.Fixed, StopAngles: []float32{}, BoneIDs: [2]int32{0, 0}},
		},
		IKRoots: []IKRoot{
			{Name: "left", Bone: 1, ChainLength: 2},
			{Name: "right", Bone: 2, ChainLength: 2},
		},
	}
	for i := range s.Bones {
		head, tail := s.BoneEnds(i)
		m, err := initialMatrixEngine(head, tail)
		if err != nil {
			panic(err)
		}
		s.Bones[i].Matrix = m
	}
	return s
}

func initialMatrixEngine(head, tail mgl32.Vec3) ([16]float32, error) {
	return xform.InitialBoneMatrix(xform.EngineToEditor(head), xform.EngineToEditor(tail))
}

func TestChainRoundTrip(t *testing.T) {
	s := chainSkeleton()
	data, err := s.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	got, err := Read(data)
	if err != nil {
		t.Fatalf("Read(Marshal()) error: %v", err)
	}
	if !reflect.DeepEqual(got, s) {
		t.Errorf("Read(Marshal())=%+v; expected %+v", got, s)
	}
	if len(got.Joints) != 0 {
		t.Errorf("Read(Marshal()).Joints=%v; expected empty", got.Joints)
	}
}

func TestForkRoundTrip(t *testing.T) {
	s := forkSkeleton()
	var buf bytes.Buffer
	if err := s.Write(&buf); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	got, err := Read(buf.Bytes())
	if err != nil {
		t.Fatalf("Read(Write()) error: %v", err)
	}
	if !reflect.DeepEqual(got, s) {
		t.Errorf("Read(Write())=%+v; expected %+v", got, s)
	}
	for i := range s.Joints {
		if len(got.Joints[i].StopAngles) != got.Joints[i].Type.StopAngleCount() {
			t.Errorf("joint %d payload %d; expected %d", i, len(got.Joints[i].StopAngles), got.Joints[i].Type.StopAngleCount())
		}
	}
}

func TestWriteStoresSwappedOrder(t *testing.T) {
	s := forkSkeleton()
	data, err := s.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	// version, stage, point count, points, point parents, bone count
	off := 12 + 16*len(s.Points) + 4
	off += 8 * 2
	head := int32(binary.LittleEndian.Uint32(data[off:]))
	tail := int32(binary.LittleEndian.Uint32(data[off+4:]))
	if head != 3 || tail != 1 {
		t.Errorf("stored bone 2=(%d,%d); expected (3,1)", head, tail)
	}
}

func TestSwapNormalizeTwice(t *testing.T) {
	pointParents := []int32{-1, 0, 1, 1}
	for _, b := range []Bone{
		{Head: 3, Tail: 1},
		{Head: 1, Tail: 2},
		{Head: 0, Tail: 1},
	} {
		orig := b
		SwapNormalize(&b, pointParents)
		SwapNormalize(&b, pointParents)
		if b != orig {
			t.Errorf("SwapNormalize twice(%+v)=%+v", orig, b)
		}
	}

	b := Bone{Head: 3, Tail: 1}
	SwapNormalize(&b, pointParents)
	if b.Head != 1 || b.Tail != 3 || !b.Swap {
		t.Errorf("SwapNormalize(3,1)=%+v; expected (1,3) swapped", b)
	}
}

func TestSwapFlagMustMatchPointParents(t *testing.T) {
	for _, test := range []struct {
		name string
		bone Bone
		err  error
	}{
		{"stored order", Bone{Head: 0, Tail: 1}, nil},
		{"flagged swap", Bone{Head: 0, Tail: 1, Swap: true}, nil},
		{"reversed without flag", Bone{Head: 1, Tail: 0}, rig.ErrInconsistentTopology},
		{"reversed with flag", Bone{Head: 1, Tail: 0, Swap: true}, rig.ErrInconsistentTopology},
	} {
		s := chainSkeleton()
		test.bone.Parent = -1
		s.Bones[0] = test.bone
		_, err := s.Marshal()
		if !errors.Is(err, test.err) {
			t.Errorf("Marshal(%s)=%v; expected %v", test.name, err, test.err)
		}
		if test.err != nil {
			continue
		}
		data, _ := s.Marshal()
		got, err := Read(data)
		if err != nil {
			t.Errorf("Read(%s) error: %v", test.name, err)
			continue
		}
		if got.Bones[0] != s.Bones[0] {
			t.Errorf("Read(Marshal(%s)) bone=%+v; expected %+v", test.name, got.Bones[0], s.Bones[0])
		}
	}
}

func header(version, stage int32) []byte {
	bw := utils.NewBufWriter()
	bw.WriteLI32(version)
	bw.WriteLI32(stage)
	bw.WriteLI32(0)
	return bw.Bytes()
}

func TestReadRejects(t *testing.T) {
	for _, test := range []struct {
		name string
		data []byte
		err  error
	}{
		{"version 7", header(7, 1), rig.ErrUnsupportedVersion},
		{"stage 2", header(11, 2), rig.ErrInvalidRiggingStage},
		{"empty", []byte{}, rig.ErrTruncatedInput},
		{"no bones", header(11, 1), rig.ErrTruncatedInput},
	} {
		s, err := Read(test.data)
		if !errors.Is(err, test.err) {
			t.Errorf("Read(%s) error=%v; expected %v", test.name, err, test.err)
		}
		if s != nil {
			t.Errorf("Read(%s) returned partial skeleton", test.name)
		}
	}
}

func TestReadHugePointCount(t *testing.T) {
	bw := utils.NewBufWriter()
	bw.WriteLI32(Version)
	bw.WriteLI32(RiggingStage)
	bw.WriteLI32(0x7fffffff)
	if _, err := Read(bw.Bytes()); !errors.Is(err, rig.ErrTruncatedInput) {
		t.Errorf("Read(huge point count) error=%v; expected %v", err, rig.ErrTruncatedInput)
	}
}

func TestReadRejectsCycle(t *testing.T) {
	s := chainSkeleton()
	data, err := s.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	// make the root point a child of the last one
	binary.LittleEndian.PutUint32(data[12+12*len(s.Points):], 3)
	if _, err := Read(data); !errors.Is(err, rig.ErrInconsistentTopology) {
		t.Errorf("Read(point cycle) error=%v; expected %v", err, rig.ErrInconsistentTopology)
	}
}

// downgrade strips the corner count prefix of a version 11 file
func downgrade(data []byte, s *Skeleton, version int32) []byte {
	off := 12 + 16*len(s.Points) + 4 + 92*len(s.Bones)
	r := append([]byte{}, data[:off]...)
	r = append(r, data[off+4:]...)
	binary.LittleEndian.PutUint32(r, uint32(version))
	return r
}

func TestReadVersion10NeedsMesh(t *testing.T) {
	s := forkSkeleton()
	data, err := s.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	old := downgrade(data, s, 10)

	if _, err := Read(old); !errors.Is(err, rig.ErrMissingExternalData) {
		t.Errorf("Read(v10) error=%v; expected %v", err, rig.ErrMissingExternalData)
	}

	mesh := &testMesh{triangles: [][3]int{{0, 1, 2}}, vertices: 3}
	got, err := ReadWithMesh(old, mesh)
	if err != nil {
		t.Fatalf("ReadWithMesh(v10) error: %v", err)
	}
	s.Version = 10
	if !reflect.DeepEqual(got, s) {
		t.Errorf("ReadWithMesh(v10)=%+v; expected %+v", got, s)
	}

	wrong := &testMesh{triangles: [][3]int{{0, 1, 2}, {0, 1, 2}}, vertices: 3}
	if _, err := ReadWithMesh(data, wrong); !errors.Is(err, rig.ErrInconsistentTopology) {
		t.Errorf("ReadWithMesh(v11, 2 triangles) error=%v; expected %v", err, rig.ErrInconsistentTopology)
	}
}

func TestValidate(t *testing.T) {
	for _, test := range []struct {
		name   string
		modify func(s *Skeleton)
		err    error
	}{
		{"valid", func(s *Skeleton) {}, nil},
		{"bone self parent", func(s *Skeleton) { s.Bones[1].Parent = 1 }, rig.ErrInconsistentTopology},
		{"bone point out of range", func(s *Skeleton) { s.Bones[0].Tail = 9 }, rig.ErrInconsistentTopology},
		{"parent ids length", func(s *Skeleton) { s.ParentIDs = s.ParentIDs[:1] }, rig.ErrInconsistentTopology},
		{"corner bone id", func(s *Skeleton) { s.CornerBoneIDs[0] = 7 }, rig.ErrInconsistentTopology},
		{"corner length", func(s *Skeleton) { s.CornerWeights = s.CornerWeights[:4] }, rig.ErrInconsistentTopology},
		{"joint bone", func(s *Skeleton) { s.Joints[0].BoneIDs[1] = 5 }, rig.ErrInconsistentTopology},
		{"joint payload", func(s *Skeleton) { s.Joints[1].StopAngles = s.Joints[1].StopAngles[:2] }, rig.ErrUnsupportedStructure},
		{"ik bone", func(s *Skeleton) { s.IKRoots[0].Bone = -1 }, rig.ErrInconsistentTopology},
	} {
		s := forkSkeleton()
		test.modify(s)
		err := s.Validate()
		if test.err == nil && err != nil {
			t.Errorf("Validate(%s) error: %v", test.name, err)
		} else if !errors.Is(err, test.err) {
			t.Errorf("Validate(%s) error=%v; expected %v", test.name, err, test.err)
		}
	}
}

func TestFindSymmetry(t *testing.T) {
	symmetry, asymmetric := forkSkeleton().FindSymmetry()
	if want := []int{0, 2, 1}; !reflect.DeepEqual(symmetry, want) {
		t.Errorf("FindSymmetry()=%v; expected %v", symmetry, want)
	}
	if len(asymmetric) != 0 {
		t.Errorf("FindSymmetry() asymmetric=%v; expected none", asymmetric)
	}

	s := forkSkeleton()
	s.Points[3].Pos[1] = 1.5
	symmetry, asymmetric = s.FindSymmetry()
	if want := []int{0, -1, -1}; !reflect.DeepEqual(symmetry, want) {
		t.Errorf("FindSymmetry(moved)=%v; expected %v", symmetry, want)
	}
	if want := []int{1, 2}; !reflect.DeepEqual(asymmetric, want) {
		t.Errorf("FindSymmetry(moved) asymmetric=%v; expected %v", asymmetric, want)
	}
}

func TestCenterUncenter(t *testing.T) {
	s := forkSkeleton()
	mid := mgl32.Vec3{1, 2, 3}
	s.Uncenter(mid)
	// editor (1,2,3) is engine (1,3,-2)
	if want := [3]float32{-1, -3, 2}; s.Points[0].Pos != want {
		t.Errorf("Uncenter() point 0=%v; expected %v", s.Points[0].Pos, want)
	}
	s.Center(mid)
	if !reflect.DeepEqual(s.Points, forkSkeleton().Points) {
		t.Errorf("Center(Uncenter())=%v; expected %v", s.Points, forkSkeleton().Points)
	}
}

func TestRestWorld(t *testing.T) {
	s := chainSkeleton()
	world, err := s.RestWorld()
	if err != nil {
		t.Fatalf("RestWorld() error: %v", err)
	}
	for i := range s.Bones {
		head, _ := s.BoneEnds(i)
		if got := world[i].Col(3).Vec3(); got != head {
			t.Errorf("RestWorld()[%d] translation=%v; expected %v", i, got, head)
		}
	}
	local, err := s.RestLocal()
	if err != nil {
		t.Fatalf("RestLocal() error: %v", err)
	}
	// straight chain: children sit one unit along the parent bone
	if got := local[1].Col(3).Vec3().Len(); got < 0.9999 || got > 1.0001 {
		t.Errorf("RestLocal()[1] offset length=%v; expected 1", got)
	}
}
