package phxbn

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mogaika/overgrowth_browser/utils/gltfutils"
)

type testSource struct{ name string }

func (s *testSource) Name() string { return s.name }

func (s *testSource) Size() int64 { return 0 }

func (s *testSource) Save(in *io.SectionReader) error { return nil }

func TestExportGLTF(t *testing.T) {
	s := forkSkeleton()
	doc, err := s.ExportGLTFDefault("fork")
	if err != nil {
		t.Fatalf("ExportGLTFDefault() error: %v", err)
	}
	if len(doc.Nodes) != len(s.Bones)+1 {
		t.Fatalf("ExportGLTFDefault() nodes=%d; expected %d", len(doc.Nodes), len(s.Bones)+1)
	}
	for i := range s.Bones {
		if doc.Nodes[i].Name != BoneName(i) {
			t.Errorf("node %d name=%q; expected %q", i, doc.Nodes[i].Name, BoneName(i))
		}
	}
	if got := doc.Nodes[0].Children; len(got) != 2 {
		t.Errorf("root bone children=%v; expected 2", got)
	}
	if roots := gltfutils.RootNodes(doc); len(roots) != 2 {
		t.Errorf("RootNodes()=%v; expected root bone and line mesh", roots)
	}

	var buf bytes.Buffer
	if err := gltfutils.ExportBinary(&buf, doc); err != nil {
		t.Fatalf("ExportBinary() error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("glTF")) {
		t.Errorf("ExportBinary() missing glb magic")
	}
}

func TestExportFbx(t *testing.T) {
	f, err := forkSkeleton().ExportFbxDefault("fork.phxbn")
	if err != nil {
		t.Fatalf("ExportFbxDefault() error: %v", err)
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if buf.Len() == 0 {
		t.Errorf("Write() produced nothing")
	}
}

func TestRenderPreview(t *testing.T) {
	img := forkSkeleton().RenderPreview(PreviewOptions{Size: 32, Supersample: 2})
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 32 {
		t.Fatalf("RenderPreview() bounds=%v; expected 32x32", b)
	}
	painted := 0
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 {
			painted++
		}
	}
	if painted == 0 {
		t.Errorf("RenderPreview() is fully transparent")
	}

	var buf bytes.Buffer
	if err := forkSkeleton().WritePreview(&buf, PreviewOptions{Size: 32, Supersample: 2}); err != nil {
		t.Fatalf("WritePreview() error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("RIFF")) {
		t.Errorf("WritePreview() missing RIFF header")
	}
}

func TestHttpActions(t *testing.T) {
	s := forkSkeleton()
	src := &testSource{name: "fork.phxbn"}
	for _, test := range []struct {
		action      string
		contentType string
	}{
		{"yaml", "application/octet-stream"},
		{"gltf", "application/octet-stream"},
		{"preview", "image/webp"},
	} {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/action/fork.phxbn/"+test.action+"?size=32", nil)
		if err := s.HttpAction(src, w, r, test.action); err != nil {
			t.Errorf("HttpAction(%s) error: %v", test.action, err)
			continue
		}
		if got := w.Header().Get("Content-Type"); got != test.contentType {
			t.Errorf("HttpAction(%s) content type=%q; expected %q", test.action, got, test.contentType)
		}
		if w.Body.Len() == 0 {
			t.Errorf("HttpAction(%s) empty body", test.action)
		}
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/action/fork.phxbn/symmetry", nil)
	if err := s.HttpAction(src, w, r, "symmetry"); err != nil {
		t.Fatalf("HttpAction(symmetry) error: %v", err)
	}
	var sym struct {
		Symmetry []int `json:"symmetry"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &sym); err != nil || len(sym.Symmetry) != 3 {
		t.Errorf("HttpAction(symmetry)=%s; err %v", w.Body.String(), err)
	}

	if err := s.HttpAction(src, httptest.NewRecorder(), r, "nope"); err == nil {
		t.Errorf("HttpAction(nope) expected error")
	}
	bad := httptest.NewRequest(http.MethodGet, "/action/fork.phxbn/preview?size=big", nil)
	if err := s.HttpAction(src, httptest.NewRecorder(), bad, "preview"); err == nil {
		t.Errorf("HttpAction(preview size=big) expected error")
	}
}
