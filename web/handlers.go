package web

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mogaika/overgrowth_browser/pack"
	"github.com/mogaika/overgrowth_browser/status"
	"github.com/mogaika/overgrowth_browser/vfs"
	"github.com/mogaika/overgrowth_browser/webutils"
)

func HandlerAjaxPack(w http.ResponseWriter, r *http.Request) {
	files, err := ServerDirectory.List()
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	supported := make([]string, 0, len(files))
	for _, name := range files {
		if pack.HasHandler(name) {
			supported = append(supported, name)
		}
	}
	webutils.WriteJson(w, supported)
}

func HandlerAjaxFormats(w http.ResponseWriter, r *http.Request) {
	webutils.WriteJson(w, pack.Formats())
}

func HandlerAjaxPackFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	data, _, err := ServerCache.GetInstance(ServerDirectory, file)
	if err != nil {
		log.Printf("[web] Error getting file from pack: %v", err)
		webutils.WriteError(w, err)
	} else {
		webutils.WriteJson(w, data)
	}
}

func HandlerDumpPackFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	f, err := vfs.GetFile(ServerDirectory, file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	reader, closer, err := f.Open()
	if err != nil {
		webutils.WriteError(w, fmt.Errorf("Error getting file reader: %v", err))
		return
	}
	defer closer.Close()
	webutils.WriteFile(w, reader, file)
}

func HandlerActionPackFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	action := mux.Vars(r)["action"]
	data, src, err := ServerCache.GetInstance(ServerDirectory, file)
	if err != nil {
		log.Printf("[web] Error getting file from pack: %v", err)
		webutils.WriteError(w, err)
		return
	}
	actioner, ok := data.(pack.HttpActioner)
	if !ok {
		webutils.WriteError(w, fmt.Errorf("File %s has no actions", file))
		return
	}
	if err := actioner.HttpAction(src, w, r, action); err != nil {
		log.Printf("[web] Action %s on %s error: %v", action, file, err)
		webutils.WriteError(w, fmt.Errorf("Action %s on %s: %v", action, file, err))
	}
}

type uploadSource struct {
	name string
	size int64
}

func (s *uploadSource) Name() string { return s.name }
func (s *uploadSource) Size() int64  { return s.size }
func (s *uploadSource) Save(in *io.SectionReader) error {
	return fmt.Errorf("upload %s is not stored yet", s.name)
}

// HandlerUploadPackFile replaces or creates a file. The upload must decode
// with the handler of its extension before anything is written.
func HandlerUploadPackFile(w http.ResponseWriter, r *http.Request) {
	targetFile := mux.Vars(r)["file"]
	data, err := webutils.ReadFormFile(w, r, "data")
	if err != nil {
		webutils.WriteErrorStatus(w, http.StatusBadRequest, err)
		return
	}
	if _, err := pack.CallHandler(&uploadSource{name: targetFile, size: int64(len(data))}, data); err != nil {
		status.Error("Rejected upload %s: %v", targetFile, err)
		webutils.WriteErrorStatus(w, http.StatusBadRequest, fmt.Errorf("Upload %s rejected: %v", targetFile, err))
		return
	}

	created, err := vfs.SaveFile(ServerDirectory, targetFile, bytes.NewReader(data))
	if err != nil {
		webutils.WriteError(w, fmt.Errorf("Error when updating pack file: %v", err))
		return
	}
	if created {
		log.Printf("[web] Created %s", targetFile)
	}
	ServerCache.Invalidate(targetFile)
	status.Info("Uploaded %s (%d bytes)", targetFile, len(data))
	webutils.WriteJson(w, map[string]interface{}{"file": targetFile, "size": len(data)})
}
