package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cppbuild-go/cppbuild/internal/logging"
)

const sampleBuildFile = `{
  "version": 1,
  "configurations": [
    {
      "name": "default",
      "buildTypes": [
        { "name": "debug", "params": { "optFlag": "-O0" } }
      ],
      "buildSteps": [
        {
          "name": "touch-object",
          "filePattern": "src/*.cpp",
          "outputFile": "build/${fileName}.o",
          "command": "touch ${outputFile}"
        }
      ]
    }
  ]
}`

func TestRunBuildsNamedConfigurationAndBuildType(t *testing.T) {
	root := t.TempDir()
	mustMkdirAll(t, filepath.Join(root, "src"))
	mustWriteFile(t, filepath.Join(root, "src", "a.cpp"), "")
	mustWriteFile(t, filepath.Join(root, ".vscode", "c_cpp_build.json"), sampleBuildFile)

	opts := Options{
		WorkspaceRoot: root,
		BuildFile:     filepath.Join(root, ".vscode", "c_cpp_build.json"),
		ConfigName:    "default",
		BuildTypeName: "debug",
		MaxTasks:      2,
	}
	if _, err := Run(context.Background(), opts, logging.New(false)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "build", "a.o")); err != nil {
		t.Fatalf("expected output file to be created: %v", err)
	}
}

func TestRunRejectsUnknownConfiguration(t *testing.T) {
	root := t.TempDir()
	mustMkdirAll(t, filepath.Join(root, "src"))
	mustWriteFile(t, filepath.Join(root, ".vscode", "c_cpp_build.json"), sampleBuildFile)

	opts := Options{
		WorkspaceRoot: root,
		BuildFile:     filepath.Join(root, ".vscode", "c_cpp_build.json"),
		ConfigName:    "does-not-exist",
	}
	if _, err := Run(context.Background(), opts, logging.New(false)); err == nil {
		t.Fatal("expected an error for an unknown configuration name")
	}
}

func TestRunStopsAfterFirstFailingStepWithoutContinueOnError(t *testing.T) {
	root := t.TempDir()
	mustMkdirAll(t, filepath.Join(root, "src"))
	mustWriteFile(t, filepath.Join(root, "src", "a.cpp"), "")

	failingBuildFile := `{
  "version": 1,
  "configurations": [
    {
      "name": "default",
      "buildSteps": [
        { "name": "fail", "filePattern": "src/*.cpp", "command": "false" },
        { "name": "should-not-run", "fileList": ["marker"], "command": "touch marker.txt" }
      ]
    }
  ]
}`
	mustWriteFile(t, filepath.Join(root, ".vscode", "c_cpp_build.json"), failingBuildFile)

	opts := Options{
		WorkspaceRoot: root,
		BuildFile:     filepath.Join(root, ".vscode", "c_cpp_build.json"),
		ConfigName:    "default",
	}
	if _, err := Run(context.Background(), opts, logging.New(false)); err == nil {
		t.Fatal("expected the aggregated failure to surface as an error")
	}
	if _, err := os.Stat(filepath.Join(root, "marker.txt")); err == nil {
		t.Fatal("expected the second step not to run after the first step failed")
	}
}

func mustMkdirAll(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
}

func mustWriteFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}
