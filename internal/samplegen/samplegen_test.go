package samplegen

import (
	"path/filepath"
	"testing"

	"github.com/cppbuild-go/cppbuild/internal/buildconfig"
)

func TestWriteProducesALoadableBuildStepsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "c_cpp_build.json")
	if err := Write(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	g, err := buildconfig.Load(path)
	if err != nil {
		t.Fatalf("sample document failed to load: %v", err)
	}
	if len(g.Configurations) != 1 || g.Configurations[0].Name != "default" {
		t.Fatalf("unexpected configurations: %+v", g.Configurations)
	}
}

func TestWriteRefusesToOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c_cpp_build.json")
	if err := Write(path); err != nil {
		t.Fatalf("unexpected error on first write: %v", err)
	}
	if err := Write(path); err == nil {
		t.Fatal("expected an error when the file already exists")
	}
}
