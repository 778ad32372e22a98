package phxbn

import (
	"log"
	"net/http"
	"strconv"

	"github.com/pkg/errors"

	"github.com/mogaika/overgrowth_browser/pack"
	"github.com/mogaika/overgrowth_browser/utils/gltfutils"
	"github.com/mogaika/overgrowth_browser/webutils"
)

func previewOptionsFromRequest(r *http.Request) (PreviewOptions, error) {
	opt := DefaultPreviewOptions
	if v := r.URL.Query().Get("size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size < 16 || size > 4096 {
			return opt, errors.Errorf("invalid preview size %q", v)
		}
		opt.Size = size
	}
	return opt, nil
}

func (s *Skeleton) HttpAction(src pack.ResourceSource, w http.ResponseWriter, r *http.Request, action string) error {
	name := src.Name()
	switch action {
	case "yaml":
		webutils.WriteYamlFile(w, s, name)
	case "gltf":
		doc, err := s.ExportGLTFDefault(name)
		if err != nil {
			return errors.Wrapf(err, "gltf export")
		}
		webutils.WriteFileHeaders(w, name+".glb")
		if err := gltfutils.ExportBinary(w, doc); err != nil {
			log.Printf("Failed to encode gltf: %v", err)
		}
	case "fbx":
		f, err := s.ExportFbxDefault(name)
		if err != nil {
			return errors.Wrapf(err, "fbx export")
		}
		webutils.WriteFileHeaders(w, name+".fbx")
		if err := f.Write(w); err != nil {
			log.Printf("Error when exporting skeleton as fbx: %v", err)
		}
	case "preview":
		opt, err := previewOptionsFromRequest(r)
		if err != nil {
			return err
		}
		w.Header().Set("Content-Type", "image/webp")
		if err := s.WritePreview(w, opt); err != nil {
			log.Printf("Error when rendering preview: %v", err)
		}
	case "symmetry":
		symmetry, asymmetric := s.FindSymmetry()
		webutils.WriteJson(w, map[string]interface{}{
			"symmetry":   symmetry,
			"asymmetric": asymmetric,
		})
	case "validate":
		type result struct {
			Valid bool   `json:"valid"`
			Error string `json:"error,omitempty"`
		}
		if err := s.Validate(); err != nil {
			webutils.WriteJson(w, result{Error: err.Error()})
		} else {
			webutils.WriteJson(w, result{Valid: true})
		}
	default:
		return errors.Errorf("unknown skeleton action %q", action)
	}
	return nil
}
