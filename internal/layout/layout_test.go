package layout

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestManifestShape(t *testing.T) {
	if got := len(Dirs()); got != 6 {
		t.Errorf("expected 6 skeleton directories, got %d", got)
	}
	if got := len(Files()); got != 5 {
		t.Errorf("expected 5 skeleton files, got %d", got)
	}
	if got := len(Entries()); got != 11 {
		t.Errorf("expected 11 skeleton entries, got %d", got)
	}
}

func TestDirsComeBeforeFiles(t *testing.T) {
	sawFile := false
	for _, e := range Entries() {
		if e.Kind == KindFile {
			sawFile = true
		}
		if sawFile && e.Kind == KindDir {
			t.Fatalf("directory %s listed after a file", e.Path)
		}
	}
}

func TestDirOrder(t *testing.T) {
	want := []string{
		"scraper",
		"dashboard/src/components",
		"dashboard/src/data",
		"dashboard/public",
		".github/workflows",
		"docs",
	}
	got := Dirs()
	for i, w := range want {
		if got[i] != w {
			t.Errorf("dir %d: expected %s, got %s", i, w, got[i])
		}
	}
}

func TestFileOrder(t *testing.T) {
	want := []string{
		"scraper/requirements.txt",
		"dashboard/package.json",
		"README.md",
		".gitignore",
		"docs/SETUP.md",
	}
	got := Files()
	for i, w := range want {
		if got[i] != w {
			t.Errorf("file %d: expected %s, got %s", i, w, got[i])
		}
	}
}

func TestEveryFileParentIsCovered(t *testing.T) {
	// Each file must land either at the workspace root or inside a
	// skeleton directory, so phase ordering guarantees the parent exists.
	dirSet := make(map[string]bool)
	for _, d := range Dirs() {
		dirSet[d] = true
		// MkdirAll creates parents too.
		for p := d; p != "."; p = filepath.ToSlash(filepath.Dir(p)) {
			dirSet[p] = true
		}
	}

	for _, f := range Files() {
		parent := filepath.ToSlash(filepath.Dir(f))
		if parent == "." {
			continue
		}
		if !dirSet[parent] {
			t.Errorf("file %s has no skeleton parent directory (%s)", f, parent)
		}
	}
}

func TestLookup(t *testing.T) {
	e, ok := Lookup("docs/SETUP.md")
	if !ok {
		t.Fatal("expected docs/SETUP.md in skeleton")
	}
	if e.Kind != KindFile {
		t.Errorf("expected file kind, got %s", e.Kind)
	}

	e, ok = Lookup("dashboard/src/data")
	if !ok || e.Kind != KindDir {
		t.Errorf("expected dashboard/src/data dir, got %+v ok=%v", e, ok)
	}

	if _, ok := Lookup("scraper/main.py"); ok {
		t.Error("unexpected skeleton entry for user file")
	}
}

func TestAbs(t *testing.T) {
	got := Abs(filepath.Join("tmp", "ws"), "dashboard/src/data")
	want := filepath.Join("tmp", "ws", "dashboard", "src", "data")
	if got != want {
		t.Errorf("Abs: expected %s, got %s", want, got)
	}
}

func TestWatchDirsCoverEveryFile(t *testing.T) {
	ws := filepath.Join("tmp", "ws")
	watchDirs := WatchDirs(ws)
	watch := make(map[string]bool)
	for _, d := range watchDirs {
		watch[d] = true
	}

	if !watch[filepath.Clean(ws)] {
		t.Error("watch set missing workspace root")
	}
	for _, f := range Files() {
		parent := filepath.Dir(Abs(ws, f))
		if !watch[parent] {
			t.Errorf("watch set missing %s (parent of %s)", parent, f)
		}
	}
	for i := 1; i < len(watchDirs); i++ {
		if strings.Compare(watchDirs[i-1], watchDirs[i]) > 0 {
			t.Error("watch dirs not sorted")
		}
	}
}
