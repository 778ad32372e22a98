package pack

import (
	"io"
	"net/http"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/overgrowth_browser/vfs"
)

// ResourceSource is the file an instance was loaded from
type ResourceSource interface {
	Name() string
	Size() int64
	Save(in *io.SectionReader) error
}

type FileLoader func(src ResourceSource, data []byte) (interface{}, error)

// HttpActioner is implemented by instances with export actions
type HttpActioner interface {
	HttpAction(src ResourceSource, w http.ResponseWriter, r *http.Request, action string) error
}

var gHandlers map[string]FileLoader = make(map[string]FileLoader, 0)

func SetHandler(format string, ldr FileLoader) {
	gHandlers[strings.ToUpper(format)] = ldr
}

func HasHandler(name string) bool {
	_, found := gHandlers[strings.ToUpper(filepath.Ext(name))]
	return found
}

// Formats lists registered extensions in lower case
func Formats() []string {
	r := make([]string, 0, len(gHandlers))
	for ext := range gHandlers {
		r = append(r, strings.ToLower(ext))
	}
	sort.Strings(r)
	return r
}

func CallHandler(s ResourceSource, data []byte) (interface{}, error) {
	ext := strings.ToUpper(filepath.Ext(s.Name()))

	if h, found := gHandlers[ext]; found {
		return h(s, data)
	} else {
		return nil, errors.Errorf("no handler for %q extension", ext)
	}
}

// FileSource is a ResourceSource backed by a directory file
type FileSource struct {
	f vfs.File
	d vfs.Directory
}

func NewFileSource(d vfs.Directory, f vfs.File) *FileSource {
	return &FileSource{d: d, f: f}
}

func (s *FileSource) Name() string { return s.f.Name() }
func (s *FileSource) Size() int64  { return s.f.Size() }

func (s *FileSource) Save(in *io.SectionReader) error {
	_, err := vfs.SaveFile(s.d, s.f.Name(), in)
	return err
}

// GetInstanceHandler loads fileName from d with the handler registered for
// its extension.
func GetInstanceHandler(d vfs.Directory, fileName string) (interface{}, ResourceSource, error) {
	f, err := vfs.GetFile(d, fileName)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "[pack] file %q", fileName)
	}

	data, err := vfs.ReadFile(f)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "[pack] instance of %q", fileName)
	}

	src := NewFileSource(d, f)
	inst, err := CallHandler(src, data)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "[pack] %s", fileName)
	}

	return inst, src, nil
}
