package vfs

import (
	"io"
	"time"
)

// Element holds only metadata until it is read or replaced
type Element interface {
	Name() string
	IsDirectory() bool
}

type File interface {
	Element
	Size() int64
	ModTime() time.Time
	// Open returns a reader over the current content. Close it when done.
	Open() (*io.SectionReader, io.Closer, error)
	// Replace swaps the content at once, readers never see a partial file
	Replace(src io.Reader) error
}

type Directory interface {
	Element
	List() ([]string, error)
	GetElement(name string) (Element, error)
	Create(name string) (File, error)
	Remove(name string) error
}
