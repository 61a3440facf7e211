// Package executor implements the build-step executor of spec.md §4.8-4.9
// and §5: per-file tasks run under a bounded concurrency semaphore with
// incremental skipping and cooperative cancellation, directory tasks run
// sequentially, and "once" tasks run a single templated command.
package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cppbuild-go/cppbuild/internal/buildconfig"
	"github.com/cppbuild-go/cppbuild/internal/escape"
	"github.com/cppbuild-go/cppbuild/internal/globexpand"
	"github.com/cppbuild-go/cppbuild/internal/includes"
	"github.com/cppbuild-go/cppbuild/internal/logging"
	"github.com/cppbuild-go/cppbuild/internal/scope"
	"github.com/cppbuild-go/cppbuild/internal/template"
	"github.com/cppbuild-go/cppbuild/internal/value"
)

// DefaultMaxTasks is the concurrency ceiling when -j/--max-tasks is unset.
const DefaultMaxTasks = 4

// DefaultSubprocessTimeout bounds a single command's runtime (spec.md §5:
// "optional timeout (default 10 s in the spawn path)").
const DefaultSubprocessTimeout = 10 * time.Second

// Options configures a Runner for one invocation of the driver.
type Options struct {
	WorkspaceRoot     string
	MaxTasks          int
	ForceRebuild      bool
	ContinueOnError   bool
	TrimIncludePaths  bool
	SubprocessTimeout time.Duration
}

func (o Options) maxTasks() int {
	if o.MaxTasks < 1 {
		return DefaultMaxTasks
	}
	return o.MaxTasks
}

func (o Options) subprocessTimeout() time.Duration {
	if o.SubprocessTimeout <= 0 {
		return DefaultSubprocessTimeout
	}
	return o.SubprocessTimeout
}

// Result is the aggregate counter triple spec.md §4.8 returns after each
// step. RunStep logs it through Logger.StepSummary; the driver sums it
// across steps.
type Result struct {
	FilesProcessed   int
	FilesSkipped     int
	ErrorsEncountered int
}

func (r *Result) add(other Result) {
	r.FilesProcessed += other.FilesProcessed
	r.FilesSkipped += other.FilesSkipped
	r.ErrorsEncountered += other.ErrorsEncountered
}

// Runner executes build steps against a shared analyser and logger.
type Runner struct {
	opts     Options
	logger   *logging.Logger
	analyser *includes.Analyser

	mkdirMu sync.Mutex
}

// New returns a Runner. analyser may be nil; it is only consulted when a
// step (or the global flag) requests include-path trimming.
func New(opts Options, logger *logging.Logger, analyser *includes.Analyser) *Runner {
	return &Runner{opts: opts, logger: logger, analyser: analyser}
}

// RunStep dispatches step per spec.md §4.8, against baseStack (the layered
// scope composed by the driver for everything outer to this step).
func (r *Runner) RunStep(ctx context.Context, step buildconfig.BuildStep, baseStack scope.Stack) (Result, error) {
	r.logger.StepStart(step.Name)

	var result Result
	var err error
	switch step.Dispatch() {
	case buildconfig.DispatchPerFile:
		result, err = r.runPerFile(ctx, step, baseStack)
	case buildconfig.DispatchPerDirectory:
		result, err = r.runPerDirectory(ctx, step, baseStack)
	default:
		result, err = r.runOnce(ctx, step, baseStack)
	}

	r.logger.StepSummary(step.Name, result.FilesProcessed, result.FilesSkipped, result.ErrorsEncountered)
	return result, err
}

// runPerFile implements spec.md §4.8's per-file dispatch: bounded
// concurrency, a private scope per file, incremental skip, and
// cooperative cancellation polled before/after slot acquisition.
func (r *Runner) runPerFile(ctx context.Context, step buildconfig.BuildStep, baseStack scope.Stack) (Result, error) {
	files, err := globexpand.Expand(r.opts.WorkspaceRoot, step.FilePattern, globexpand.FilesOnly)
	if err != nil {
		return Result{}, fmt.Errorf("build step %q: %w", step.Name, err)
	}

	stepCtx, stepCancel := context.WithCancel(ctx)
	defer stepCancel()
	cancel := NewCancellation(stepCancel)
	sem := make(chan struct{}, r.opts.maxTasks())

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		result Result
	)

	for _, f := range files {
		if cancel.Signalled() {
			break
		}
		wg.Add(1)
		go func(filePath string) {
			defer wg.Done()

			if cancel.Signalled() {
				return
			}

			select {
			case sem <- struct{}{}:
			case <-stepCtx.Done():
				return
			}
			defer func() { <-sem }()

			if cancel.Signalled() {
				return
			}

			skipped, taskErr := r.runFileTask(stepCtx, step, baseStack, filePath, cancel)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case taskErr != nil:
				result.ErrorsEncountered++
				r.logger.StepError(step.Name, filePath, taskErr)
				if !r.opts.ContinueOnError {
					cancel.Signal()
				}
			case skipped:
				result.FilesSkipped++
			default:
				result.FilesProcessed++
			}
		}(f)
	}

	wg.Wait()
	return result, nil
}

// runFileTask performs one file's work: build the per-file scope, resolve
// outputFile and check incremental skip, resolve include paths (trimmed
// when requested), expand the command, and run it.
func (r *Runner) runFileTask(ctx context.Context, step buildconfig.BuildStep, baseStack scope.Stack, filePath string, cancel *Cancellation) (skipped bool, err error) {
	rawFilePath := escape.Unescape(filePath)

	fileScope := fileLayerScope(filePath)
	stack := baseStack.Push(fileScope)
	resolver := template.NewResolver(stack, r.opts.WorkspaceRoot)

	if step.OutputFile != "" {
		outVal, err := template.Expand(step.OutputFile, template.TopLevel, resolver)
		if err != nil {
			return false, fmt.Errorf("resolve outputFile: %w", err)
		}
		outPath, ok := outVal.AsScalar()
		if !ok {
			return false, fmt.Errorf("outputFile resolved to a multi-valued expression")
		}
		if !filepath.IsAbs(outPath) {
			outPath = filepath.Join(r.opts.WorkspaceRoot, outPath)
		}
		skip, err := incrementalSkip(outPath, rawFilePath, r.opts.ForceRebuild)
		if err != nil {
			return false, err
		}
		if skip {
			return true, nil
		}
		if err := r.ensureOutputDir(filepath.Dir(outPath)); err != nil {
			return false, err
		}

		outputScope := scope.New()
		outputScope.SetString("outputFile", escape.Escape(outPath))
		stack = stack.Push(outputScope)
		resolver = template.NewResolver(stack, r.opts.WorkspaceRoot)
	}

	stack, resolver, err = r.applyTrimming(stack, resolver, step, rawFilePath)
	if err != nil {
		return false, err
	}

	if cancel.Signalled() {
		return false, nil
	}

	cmdVal, err := template.Expand(step.Command, template.TopLevel, resolver)
	if err != nil {
		return false, fmt.Errorf("resolve command: %w", err)
	}
	cmdLine, ok := cmdVal.AsScalar()
	if !ok {
		return false, fmt.Errorf("command resolved to a multi-valued expression")
	}

	if cancel.Signalled() {
		return false, nil
	}
	if err := r.invoke(ctx, cmdLine); err != nil {
		return false, err
	}
	return false, nil
}

// runPerDirectory implements spec.md §4.8's sequential directory dispatch.
func (r *Runner) runPerDirectory(ctx context.Context, step buildconfig.BuildStep, baseStack scope.Stack) (Result, error) {
	dirs, err := globexpand.Expand(r.opts.WorkspaceRoot, step.DirectoryPattern, globexpand.DirectoriesOnly)
	if err != nil {
		return Result{}, fmt.Errorf("build step %q: %w", step.Name, err)
	}

	var result Result
	for _, d := range dirs {
		dirScope := directoryLayerScope(d)
		stack := baseStack.Push(dirScope)
		resolver := template.NewResolver(stack, r.opts.WorkspaceRoot)

		cmdVal, err := template.Expand(step.Command, template.TopLevel, resolver)
		if err != nil {
			result.ErrorsEncountered++
			r.logger.StepError(step.Name, d, err)
			if !r.opts.ContinueOnError {
				return result, nil
			}
			continue
		}
		cmdLine, ok := cmdVal.AsScalar()
		if !ok {
			result.ErrorsEncountered++
			r.logger.StepError(step.Name, d, fmt.Errorf("command resolved to a multi-valued expression"))
			if !r.opts.ContinueOnError {
				return result, nil
			}
			continue
		}
		if err := r.invoke(ctx, cmdLine); err != nil {
			result.ErrorsEncountered++
			r.logger.StepError(step.Name, d, err)
			if !r.opts.ContinueOnError {
				return result, nil
			}
			continue
		}
		result.FilesProcessed++
	}
	return result, nil
}

// runOnce implements spec.md §4.8's fileList/no-pattern dispatch: a single
// command invocation, with fileList (when present) populating the file
// variables as multi-valued sequences.
func (r *Runner) runOnce(ctx context.Context, step buildconfig.BuildStep, baseStack scope.Stack) (Result, error) {
	stack := baseStack
	if len(step.FileList) > 0 {
		stack = baseStack.Push(fileListLayerScope(step.FileList))
	}
	resolver := template.NewResolver(stack, r.opts.WorkspaceRoot)

	cmdVal, err := template.Expand(step.Command, template.TopLevel, resolver)
	if err != nil {
		r.logger.StepError(step.Name, "", err)
		return Result{ErrorsEncountered: 1}, nil
	}
	cmdLine, ok := cmdVal.AsScalar()
	if !ok {
		r.logger.StepError(step.Name, "", fmt.Errorf("command resolved to a multi-valued expression"))
		return Result{ErrorsEncountered: 1}, nil
	}
	if err := r.invoke(ctx, cmdLine); err != nil {
		r.logger.StepError(step.Name, "", err)
		return Result{ErrorsEncountered: 1}, nil
	}
	return Result{FilesProcessed: 1}, nil
}

func (r *Runner) ensureOutputDir(dir string) error {
	r.mkdirMu.Lock()
	defer r.mkdirMu.Unlock()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory %q: %w", dir, err)
	}
	return nil
}

// fileLayerScope builds the {filePath, fileDirectory, fileName,
// fullFileName, fileExtension} scope of spec.md §4.8 for one file.
func fileLayerScope(filePath string) scope.Scope {
	s := scope.New()
	base := filepath.Base(filePath)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	s.SetString("filePath", filePath)
	s.SetString("fileDirectory", filepath.Dir(filePath))
	s.SetString("fileName", name)
	s.SetString("fullFileName", base)
	s.SetString("fileExtension", strings.TrimPrefix(ext, "."))
	return s
}

func directoryLayerScope(dir string) scope.Scope {
	s := scope.New()
	s.SetString("directoryPath", dir)
	s.SetString("fullDirectoryPath", dir)
	s.SetString("directoryName", filepath.Base(dir))
	return s
}

// fileListLayerScope populates the file variables as multi-valued
// sequences from an explicit fileList, per spec.md §4.8's once dispatch.
// fileList entries are user-authored literal paths, not template text, so
// each is escaped before entering the scope, matching how glob results
// arrive escaped from internal/globexpand.
func fileListLayerScope(files []string) scope.Scope {
	s := scope.New()
	escaped := make([]string, len(files))
	var dirs, names, fulls, exts []string
	for i, f := range files {
		base := filepath.Base(f)
		ext := filepath.Ext(base)
		escaped[i] = escape.Escape(f)
		dirs = append(dirs, escape.Escape(filepath.Dir(f)))
		names = append(names, escape.Escape(strings.TrimSuffix(base, ext)))
		fulls = append(fulls, escape.Escape(base))
		exts = append(exts, strings.TrimPrefix(ext, "."))
	}
	s.Set("filePath", value.OfList(escaped))
	s.Set("fileDirectory", value.OfList(dirs))
	s.Set("fileName", value.OfList(names))
	s.Set("fullFileName", value.OfList(fulls))
	s.Set("fileExtension", value.OfList(exts))
	return s
}

// incrementalSkip implements spec.md §8's incremental-skip property: when
// outputPath exists and is strictly newer than inputPath, the task is
// skipped unless forceRebuild is set.
func incrementalSkip(outputPath, inputPath string, forceRebuild bool) (bool, error) {
	if forceRebuild {
		return false, nil
	}
	outInfo, err := os.Stat(outputPath)
	if err != nil {
		return false, nil
	}
	inInfo, err := os.Stat(inputPath)
	if err != nil {
		return false, fmt.Errorf("stat input %q: %w", inputPath, err)
	}
	return outInfo.ModTime().After(inInfo.ModTime()), nil
}
