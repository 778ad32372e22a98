package vfs

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type DirectoryDriver struct {
	path string
}

func NewDirectoryDriver(path string) *DirectoryDriver {
	return &DirectoryDriver{path: path}
}

func (dd *DirectoryDriver) Name() string      { return filepath.Base(dd.path) }
func (dd *DirectoryDriver) IsDirectory() bool { return true }
func (dd *DirectoryDriver) Path() string      { return dd.path }

// List returns sorted names of the directory entries
func (dd *DirectoryDriver) List() ([]string, error) {
	entries, err := os.ReadDir(dd.path)
	if err != nil {
		return nil, errors.Wrapf(err, "list %q", dd.path)
	}
	result := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), tempPrefix) {
			continue
		}
		result = append(result, e.Name())
	}
	sort.Strings(result)
	return result, nil
}

// element names are single path components, requests can not leave the directory
func checkElementName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\\") {
		return errors.Errorf("invalid element name %q", name)
	}
	return nil
}

func (dd *DirectoryDriver) GetElement(name string) (Element, error) {
	if err := checkElementName(name); err != nil {
		return nil, err
	}
	p := filepath.Join(dd.path, name)
	st, err := os.Stat(p)
	if err != nil {
		return nil, errors.Wrapf(err, "stat %q", name)
	}
	if st.IsDir() {
		return NewDirectoryDriver(p), nil
	}
	return &DirectoryDriverFile{path: p}, nil
}

// Create makes an empty file, or returns the existing one untouched
func (dd *DirectoryDriver) Create(name string) (File, error) {
	if err := checkElementName(name); err != nil {
		return nil, err
	}
	p := filepath.Join(dd.path, name)
	f, err := os.OpenFile(p, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return nil, errors.Wrapf(err, "create %q", name)
	}
	f.Close()
	return &DirectoryDriverFile{path: p}, nil
}

func (dd *DirectoryDriver) Remove(name string) error {
	if err := checkElementName(name); err != nil {
		return err
	}
	return os.Remove(filepath.Join(dd.path, name))
}

const tempPrefix = ".upload-"

type DirectoryDriverFile struct {
	path string
}

func (ddf *DirectoryDriverFile) Name() string      { return filepath.Base(ddf.path) }
func (ddf *DirectoryDriverFile) IsDirectory() bool { return false }

func (ddf *DirectoryDriverFile) Size() int64 {
	if st, err := os.Stat(ddf.path); err == nil {
		return st.Size()
	}
	return 0
}

func (ddf *DirectoryDriverFile) ModTime() time.Time {
	if st, err := os.Stat(ddf.path); err == nil {
		return st.ModTime()
	}
	return time.Time{}
}

func (ddf *DirectoryDriverFile) Open() (*io.SectionReader, io.Closer, error) {
	f, err := os.Open(ddf.path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open %q", ddf.Name())
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, errors.Wrapf(err, "stat %q", ddf.Name())
	}
	return io.NewSectionReader(f, 0, st.Size()), f, nil
}

// Replace writes into a temporary file next to the target and renames it over
func (ddf *DirectoryDriverFile) Replace(src io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(ddf.path), tempPrefix+ddf.Name()+"-*")
	if err != nil {
		return errors.Wrapf(err, "replace %q", ddf.Name())
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "write %q", ddf.Name())
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "write %q", ddf.Name())
	}
	if err := os.Rename(tmp.Name(), ddf.path); err != nil {
		return errors.Wrapf(err, "rename into %q", ddf.Name())
	}
	return nil
}
