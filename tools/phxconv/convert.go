package main

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/mogaika/overgrowth_browser/pack"
	"github.com/mogaika/overgrowth_browser/pack/anm"
	"github.com/mogaika/overgrowth_browser/pack/phxbn"
	"github.com/mogaika/overgrowth_browser/rig/scene"
	"github.com/mogaika/overgrowth_browser/status"
	"github.com/mogaika/overgrowth_browser/utils/gltfutils"
)

type fileSource struct {
	path string
}

func (s *fileSource) Name() string { return filepath.Base(s.path) }

func (s *fileSource) Size() int64 {
	if st, err := os.Stat(s.path); err == nil {
		return st.Size()
	}
	return 0
}

func (s *fileSource) Save(in *io.SectionReader) error {
	f, err := os.Create(s.path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, in)
	return err
}

func load(path string) (interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return pack.CallHandler(&fileSource{path: path}, data)
}

func loadSkeleton(path string, triangles int) (*phxbn.Skeleton, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var mesh phxbn.MeshTopology
	if triangles > 0 {
		mesh = scene.NewCornerMesh(triangles * 3)
	}
	return phxbn.ReadWithMesh(data, mesh)
}

// upgrade re-encodes a file at the current version of its format.
// triangles is the mesh triangle count needed by skeletons before version 11.
func upgrade(in, out string, triangles int) error {
	var data []byte
	switch ext := filepath.Ext(in); ext {
	case ".phxbn":
		s, err := loadSkeleton(in, triangles)
		if err != nil {
			return err
		}
		if data, err = s.Marshal(); err != nil {
			return err
		}
	case ".anm":
		raw, err := os.ReadFile(in)
		if err != nil {
			return err
		}
		a, err := anm.Read(raw)
		if err != nil {
			return err
		}
		if data, err = a.Marshal(); err != nil {
			return err
		}
	default:
		return errors.Errorf("unsupported file %q", in)
	}
	return os.WriteFile(out, data, 0666)
}

type batchResult struct {
	Converted int64
	Failed    int64
}

// batch upgrades every supported file of inDir into outDir using up to jobs
// goroutines. Files that fail to decode are logged and skipped.
func batch(ctx context.Context, inDir, outDir string, jobs int, triangles int) (batchResult, error) {
	var res batchResult
	entries, err := os.ReadDir(inDir)
	if err != nil {
		return res, err
	}
	if err := os.MkdirAll(outDir, 0777); err != nil {
		return res, err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && pack.HasHandler(e.Name()) {
			names = append(names, e.Name())
		}
	}

	var done int64
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, name := range names {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			err := upgrade(filepath.Join(inDir, name), filepath.Join(outDir, name), triangles)
			status.Progress(float32(atomic.AddInt64(&done, 1))/float32(len(names)), "%s", name)
			if err != nil {
				var pathErr *os.PathError
				if errors.As(err, &pathErr) {
					return err
				}
				log.Printf("[phxconv] Skipping %s: %v", name, err)
				atomic.AddInt64(&res.Failed, 1)
				return nil
			}
			atomic.AddInt64(&res.Converted, 1)
			return nil
		})
	}
	err = g.Wait()
	return res, err
}

func exportGLTF(in, out string, triangles int) error {
	s, err := loadSkeleton(in, triangles)
	if err != nil {
		return err
	}
	doc, err := s.ExportGLTFDefault(filepath.Base(in))
	if err != nil {
		return err
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()
	return gltfutils.ExportBinary(f, doc)
}

func exportFbx(in, out string, triangles int) error {
	s, err := loadSkeleton(in, triangles)
	if err != nil {
		return err
	}
	fb, err := s.ExportFbxDefault(filepath.Base(in))
	if err != nil {
		return err
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()
	return fb.Write(f)
}

func writePreview(in, out string, opt phxbn.PreviewOptions, triangles int) error {
	s, err := loadSkeleton(in, triangles)
	if err != nil {
		return err
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.WritePreview(f, opt)
}

// rebuildArmature imports a skeleton into an in-memory armature over a
// mesh made of its own triangle corners.
func rebuildArmature(in string, threshold float32, triangles int) (*scene.Armature, error) {
	s, err := loadSkeleton(in, triangles)
	if err != nil {
		return nil, err
	}
	mesh := scene.NewCornerMesh(s.CornerCount())
	arm := scene.NewArmature()
	im := scene.Importer{FallbackThreshold: threshold}
	if err := im.Import(s, mesh, arm, mesh); err != nil {
		return nil, err
	}
	return arm, nil
}
