package globexpand

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandNoExpand(t *testing.T) {
	got, err := Expand("/tmp", "**/*.cpp", NoExpand)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != "**/*.cpp" {
		t.Errorf("NoExpand mutated pattern: %+v", got)
	}
}

func TestExpandDirectoriesOnlyLexicalOrder(t *testing.T) {
	root := t.TempDir()
	mustMkdir(t, filepath.Join(root, "A"))
	mustMkdir(t, filepath.Join(root, "B"))
	mustWriteFile(t, filepath.Join(root, "A", "ignored.txt"))

	got, err := Expand(root, "*", DirectoriesOnly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{filepath.Join(root, "A"), filepath.Join(root, "B")}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExpandFilesOnlyExcludesDirectories(t *testing.T) {
	root := t.TempDir()
	mustMkdir(t, filepath.Join(root, "sub"))
	mustWriteFile(t, filepath.Join(root, "a.cpp"))
	mustWriteFile(t, filepath.Join(root, "sub", "b.cpp"))

	got, err := Expand(root, "**/*.cpp", FilesOnly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 files, got %+v", got)
	}
}

func TestExpandAbsolutePatternUsesFilesystemRoot(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "x.cpp"))

	got, err := Expand("/does/not/exist", filepath.Join(root, "*.cpp"), FilesOnly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected absolute pattern to resolve regardless of workspaceRoot, got %+v", got)
	}
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %q: %v", path, err)
	}
}

func mustWriteFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %q: %v", path, err)
	}
}
