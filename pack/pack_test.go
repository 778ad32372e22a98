package pack

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mogaika/overgrowth_browser/vfs"
)

var errBadRig = errors.New("bad rig")

type testRig struct {
	name string
	data string
}

func init() {
	SetHandler(".rigtest", func(src ResourceSource, data []byte) (interface{}, error) {
		if len(data) == 0 {
			return nil, errBadRig
		}
		return &testRig{name: src.Name(), data: string(data)}, nil
	})
}

func testDir(t *testing.T, files map[string]string) (string, vfs.Directory) {
	dir := t.TempDir()
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0666); err != nil {
			t.Fatal(err)
		}
	}
	return dir, vfs.NewDirectoryDriver(dir)
}

func TestHandlerRegistry(t *testing.T) {
	for _, test := range []struct {
		name     string
		expected bool
	}{
		{"a.rigtest", true},
		{"A.RIGTEST", true},
		{"a.rigtest.bak", false},
		{"rigtest", false},
	} {
		if got := HasHandler(test.name); got != test.expected {
			t.Errorf("HasHandler(%q)=%v; expected %v", test.name, got, test.expected)
		}
	}
	found := false
	for _, f := range Formats() {
		found = found || f == ".rigtest"
	}
	if !found {
		t.Errorf("Formats()=%v; expected .rigtest", Formats())
	}
}

func TestGetInstanceHandler(t *testing.T) {
	_, d := testDir(t, map[string]string{"ok.rigtest": "bones", "empty.rigtest": "", "x.unknown": "?"})

	inst, src, err := GetInstanceHandler(d, "ok.rigtest")
	if err != nil {
		t.Fatalf("GetInstanceHandler(ok) error: %v", err)
	}
	if r := inst.(*testRig); r.data != "bones" || src.Name() != "ok.rigtest" || src.Size() != 5 {
		t.Errorf("GetInstanceHandler(ok)=%+v from %s (%d bytes)", r, src.Name(), src.Size())
	}

	if _, _, err := GetInstanceHandler(d, "empty.rigtest"); !errors.Is(err, errBadRig) {
		t.Errorf("GetInstanceHandler(empty) err=%v; expected %v", err, errBadRig)
	}
	if _, _, err := GetInstanceHandler(d, "x.unknown"); err == nil {
		t.Errorf("GetInstanceHandler(unknown extension) expected error")
	}
	if _, _, err := GetInstanceHandler(d, "missing.rigtest"); err == nil {
		t.Errorf("GetInstanceHandler(missing) expected error")
	}
}

func TestInstanceCache(t *testing.T) {
	dir, d := testDir(t, map[string]string{"ok.rigtest": "v1"})
	c := NewInstanceCache()

	first, _, err := c.GetInstance(d, "ok.rigtest")
	if err != nil {
		t.Fatalf("GetInstance() error: %v", err)
	}
	os.WriteFile(filepath.Join(dir, "ok.rigtest"), []byte("v2"), 0666)
	if again, _, _ := c.GetInstance(d, "ok.rigtest"); again != first {
		t.Errorf("GetInstance() reloaded a cached instance")
	}
	if c.Len() != 1 {
		t.Errorf("Len()=%d; expected 1", c.Len())
	}

	if !c.Invalidate("ok.rigtest") || c.Invalidate("ok.rigtest") {
		t.Errorf("Invalidate() should report only the first drop")
	}
	if fresh, _, _ := c.GetInstance(d, "ok.rigtest"); fresh.(*testRig).data != "v2" {
		t.Errorf("GetInstance() after Invalidate=%+v; expected v2", fresh)
	}
}

func TestWatchInvalidates(t *testing.T) {
	dir, d := testDir(t, map[string]string{"ok.rigtest": "v1"})
	c := NewInstanceCache()
	if _, _, err := c.GetInstance(d, "ok.rigtest"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	changed := make(chan string, 16)
	done := make(chan error, 1)
	onChange := func(name string) {
		select {
		case changed <- name:
		default:
		}
	}
	go func() { done <- c.Watch(ctx, dir, onChange) }()

	timeout := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
wait:
	for {
		select {
		case name := <-changed:
			if name != "ok.rigtest" {
				t.Errorf("onChange(%q); expected ok.rigtest", name)
			}
			break wait
		case <-tick.C:
			os.WriteFile(filepath.Join(dir, "ok.rigtest"), []byte("v2"), 0666)
		case <-timeout:
			t.Fatalf("no change reported")
		}
	}
	if _, _, ok := c.Get("ok.rigtest"); ok {
		t.Errorf("instance still cached after change")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch() error: %v", err)
	}
}
