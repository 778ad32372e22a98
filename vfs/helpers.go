package vfs

import (
	"io"

	"github.com/pkg/errors"
)

// ReadFile returns the whole content of f
func ReadFile(f File) ([]byte, error) {
	r, c, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer c.Close()

	data := make([]byte, r.Size())
	if _, err := r.ReadAt(data, 0); err != nil && err != io.EOF {
		return nil, errors.Wrapf(err, "read %q", f.Name())
	}
	return data, nil
}

func GetFile(d Directory, name string) (File, error) {
	e, err := d.GetElement(name)
	if err != nil {
		return nil, err
	}
	f, ok := e.(File)
	if !ok || e.IsDirectory() {
		return nil, errors.Errorf("%q is a directory", name)
	}
	return f, nil
}

// SaveFile replaces the content of name in d, creating it when missing.
// created reports whether the file did not exist before.
func SaveFile(d Directory, name string, src io.Reader) (created bool, err error) {
	f, err := GetFile(d, name)
	if err != nil {
		if f, err = d.Create(name); err != nil {
			return false, err
		}
		created = true
	}
	return created, f.Replace(src)
}
