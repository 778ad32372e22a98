package pack

import (
	"context"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// Watch drops cached instances of files changed in dir until ctx is
// cancelled. onChange may be nil.
func (c *InstanceCache) Watch(ctx context.Context, dir string, onChange func(fileName string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrapf(err, "watcher")
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return errors.Wrapf(err, "watch %q", dir)
	}
	log.Printf("[pack] Watching %v", dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			name := filepath.Base(ev.Name)
			if c.Invalidate(name) {
				log.Printf("[pack] %s changed (%v), cached instance dropped", name, ev.Op)
			}
			if onChange != nil && HasHandler(name) {
				onChange(name)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("[pack] Watcher error: %v", err)
		}
	}
}
