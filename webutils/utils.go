package webutils

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// MaxUploadSize bounds form uploads read by ReadFormFile
var MaxUploadSize int64 = 64 << 20

func WriteFileHeaders(w http.ResponseWriter, name string) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+name+"\"")
}

func WriteFile(w http.ResponseWriter, in io.Reader, name string) {
	WriteFileHeaders(w, name)
	if _, err := io.Copy(w, in); err != nil {
		log.Printf("[web] Error sending %s: %v", name, err)
	}
}

func WriteJson(w http.ResponseWriter, data interface{}) {
	res, err := json.Marshal(data)
	if err != nil {
		WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeResult(w, res)
}

// WriteYamlFile sends v as a downloadable name.yaml
func WriteYamlFile(w http.ResponseWriter, v interface{}, name string) {
	data, err := yaml.Marshal(v)
	if err != nil {
		WriteError(w, errors.Wrapf(err, "Failed to marshal"))
		return
	}
	WriteFile(w, bytes.NewReader(data), name+".yaml")
}

// ReadFormFile returns the content of a multipart form file, at most
// MaxUploadSize bytes.
func ReadFormFile(w http.ResponseWriter, r *http.Request, key string) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	f, _, err := r.FormFile(key)
	if err != nil {
		return nil, errors.Wrapf(err, "form file %q", key)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading form file %q", key)
	}
	return data, nil
}

func writeResult(w http.ResponseWriter, data []byte) {
	if _, err := w.Write(data); err != nil {
		log.Printf("[web] Error when writing response: %v", err)
	}
}

// WriteError reports err as {"error": ...} with status 200, the web ui
// checks the field instead of the status
func WriteError(w http.ResponseWriter, err error) {
	WriteErrorStatus(w, http.StatusOK, err)
}

func WriteErrorStatus(w http.ResponseWriter, status int, err error) {
	data, merr := json.Marshal(map[string]string{"error": err.Error()})
	if merr != nil {
		log.Printf("[web] Error marshaling error '%v': %v", err, merr)
		return
	}
	log.Printf("[web] HERR: %s", data)
	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	writeResult(w, data)
}
