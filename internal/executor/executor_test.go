package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cppbuild-go/cppbuild/internal/buildconfig"
	"github.com/cppbuild-go/cppbuild/internal/logging"
	"github.com/cppbuild-go/cppbuild/internal/scope"
)

func TestIncrementalSkipWhenOutputNewer(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "a.cpp")
	out := filepath.Join(dir, "a.o")
	writeAt(t, in, time.Now().Add(-time.Hour))
	writeAt(t, out, time.Now())

	skip, err := incrementalSkip(out, in, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !skip {
		t.Fatal("expected skip when output is strictly newer than input")
	}
}

func TestIncrementalSkipRunsWhenInputNewer(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "a.cpp")
	out := filepath.Join(dir, "a.o")
	writeAt(t, out, time.Now().Add(-time.Hour))
	writeAt(t, in, time.Now())

	skip, err := incrementalSkip(out, in, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if skip {
		t.Fatal("expected no skip when input is newer than output")
	}
}

func TestIncrementalSkipDisabledByForceRebuild(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "a.cpp")
	out := filepath.Join(dir, "a.o")
	writeAt(t, in, time.Now().Add(-time.Hour))
	writeAt(t, out, time.Now())

	skip, err := incrementalSkip(out, in, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if skip {
		t.Fatal("expected forceRebuild to disable incremental skip")
	}
}

func TestIncrementalSkipMissingOutputRuns(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "a.cpp")
	writeAt(t, in, time.Now())

	skip, err := incrementalSkip(filepath.Join(dir, "missing.o"), in, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if skip {
		t.Fatal("expected no skip when output does not exist")
	}
}

func TestRunPerFileSkipsOnSecondRunWithoutForceRebuild(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.cpp", "b.cpp"} {
		writeAt(t, filepath.Join(dir, name), time.Now())
	}

	step := buildconfig.BuildStep{
		Name:        "compile",
		Command:     "touch ${outputFile}",
		FilePattern: "*.cpp",
		OutputFile:  "${fileName}.o",
	}

	runner := New(Options{WorkspaceRoot: dir, MaxTasks: 2}, logging.New(false), nil)

	first, err := runner.RunStep(context.Background(), step, scope.Stack{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.FilesProcessed != 2 || first.FilesSkipped != 0 {
		t.Fatalf("expected both files processed on first run, got %+v", first)
	}

	second, err := runner.RunStep(context.Background(), step, scope.Stack{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.FilesSkipped != 2 || second.FilesProcessed != 0 {
		t.Fatalf("expected both files skipped on second run, got %+v", second)
	}
}

// TestCancellationQuiescenceBoundsSpawnedSubprocesses exercises spec.md
// §8's cancellation-quiescence property: once a task fails with
// continueOnError=false, no task beyond those already holding a
// concurrency slot reaches the subprocess-starting poll point. Each
// invocation marks its own spawn by creating a file before always
// failing, so the marker count directly measures how many subprocesses
// actually started.
func TestCancellationQuiescenceBoundsSpawnedSubprocesses(t *testing.T) {
	dir := t.TempDir()
	markers := filepath.Join(dir, "markers")
	if err := os.Mkdir(markers, 0o755); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		writeAt(t, filepath.Join(dir, fmt.Sprintf("f%02d.cpp", i)), time.Now())
	}

	const maxTasks = 3
	step := buildconfig.BuildStep{
		Name:        "compile",
		Command:     fmt.Sprintf("touch %s/${fullFileName}.spawned && false", markers),
		FilePattern: "*.cpp",
	}

	runner := New(Options{WorkspaceRoot: dir, MaxTasks: maxTasks}, logging.New(false), nil)
	result, err := runner.RunStep(context.Background(), step, scope.Stack{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ErrorsEncountered == 0 {
		t.Fatal("expected at least one error")
	}

	entries, err := os.ReadDir(markers)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) > maxTasks {
		t.Fatalf("expected at most %d subprocesses spawned after cancellation, got %d", maxTasks, len(entries))
	}
}

func TestContinueOnErrorRunsEveryFileDespiteFailures(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 5; i++ {
		writeAt(t, filepath.Join(dir, fmt.Sprintf("f%d.cpp", i)), time.Now())
	}

	step := buildconfig.BuildStep{
		Name:        "compile",
		Command:     "false",
		FilePattern: "*.cpp",
	}
	runner := New(Options{WorkspaceRoot: dir, MaxTasks: 2, ContinueOnError: true}, logging.New(false), nil)
	result, err := runner.RunStep(context.Background(), step, scope.Stack{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ErrorsEncountered != 5 {
		t.Fatalf("expected all 5 files to run and fail, got %+v", result)
	}
}

func writeAt(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}
