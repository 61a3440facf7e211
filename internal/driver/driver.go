// Package driver orchestrates one invocation of the build: it loads the
// build-steps and C/C++ properties files, composes the layered scope of
// spec.md §3, and runs each build step of the chosen configuration/build
// type in declared order via internal/executor.
package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cppbuild-go/cppbuild/internal/buildconfig"
	"github.com/cppbuild-go/cppbuild/internal/escape"
	"github.com/cppbuild-go/cppbuild/internal/executor"
	"github.com/cppbuild-go/cppbuild/internal/includes"
	"github.com/cppbuild-go/cppbuild/internal/logging"
	"github.com/cppbuild-go/cppbuild/internal/scope"
	"github.com/cppbuild-go/cppbuild/internal/value"
)

// Options is the fully-resolved CLI input of spec.md §6.
type Options struct {
	WorkspaceRoot    string
	BuildFile        string
	PropertiesFile   string // empty means disabled; caller resolves the default before calling Run
	ConfigName       string
	BuildTypeName    string
	Variables        map[string]string
	MaxTasks         int
	ForceRebuild     bool
	Debug            bool
	TrimIncludePaths bool
	ContinueOnError  bool
}

// Summary is the outcome of one Run: the aggregated per-step counters and
// the chosen configuration's problemMatchers, passed through unparsed for
// an editor/CI integration to consume.
type Summary struct {
	FilesProcessed   int
	FilesSkipped     int
	ErrorsEncountered int
	ProblemMatchers  []map[string]interface{}
}

// Run loads the configuration, composes the scope stack, and runs every
// build step of the chosen configuration (and, if named, build type) in
// order. It returns a non-nil error both for configuration/internal
// errors (spec.md §7 categories 1 and 5) and whenever any step accumulated
// per-task errors, whether or not ContinueOnError is set; ContinueOnError
// only decides whether later steps still run.
func Run(ctx context.Context, opts Options, logger *logging.Logger) (Summary, error) {
	workspaceRoot, err := filepath.Abs(opts.WorkspaceRoot)
	if err != nil {
		return Summary{}, fmt.Errorf("resolve workspace root: %w", err)
	}

	global, err := buildconfig.Load(opts.BuildFile)
	if err != nil {
		return Summary{}, err
	}

	cfg, ok := global.FindConfiguration(opts.ConfigName)
	if !ok {
		return Summary{}, fmt.Errorf("unknown configuration %q", opts.ConfigName)
	}
	buildType, hasBuildType := cfg.FindBuildType(opts.BuildTypeName)
	if opts.BuildTypeName != "" && !hasBuildType {
		return Summary{}, fmt.Errorf("unknown build type %q in configuration %q", opts.BuildTypeName, opts.ConfigName)
	}

	stack, analyser, err := composeStack(workspaceRoot, opts, global, cfg, buildType)
	if err != nil {
		return Summary{}, err
	}

	runner := executor.New(executor.Options{
		WorkspaceRoot:    workspaceRoot,
		MaxTasks:         opts.MaxTasks,
		ForceRebuild:     opts.ForceRebuild,
		ContinueOnError:  opts.ContinueOnError,
		TrimIncludePaths: opts.TrimIncludePaths,
	}, logger, analyser)

	summary := Summary{ProblemMatchers: cfg.ProblemMatchers}
	for _, step := range cfg.BuildSteps {
		stepStack := stackWithStepParams(stack, step)
		result, err := runner.RunStep(ctx, step, stepStack)
		if err != nil {
			return summary, fmt.Errorf("build step %q: %w", step.Name, err)
		}
		summary.FilesProcessed += result.FilesProcessed
		summary.FilesSkipped += result.FilesSkipped
		summary.ErrorsEncountered += result.ErrorsEncountered
		if result.ErrorsEncountered > 0 && !opts.ContinueOnError {
			break
		}
	}

	if summary.ErrorsEncountered > 0 {
		return summary, fmt.Errorf("build failed with %d error(s)", summary.ErrorsEncountered)
	}
	return summary, nil
}

// composeStack builds the layer order of spec.md §3: global defaults,
// C/C++ properties, file-wide params, configuration params, build-type
// params, step params are layered per-step by the executor itself, and
// here we supply every layer outer to that. CLI variable overrides are
// innermost so they shadow everything else.
func composeStack(workspaceRoot string, opts Options, global buildconfig.GlobalConfiguration, cfg buildconfig.BuildConfiguration, buildType buildconfig.BuildType) (scope.Stack, *includes.Analyser, error) {
	var stack scope.Stack

	defaults := scope.New()
	defaults.SetString("workspaceRoot", escape.Escape(workspaceRoot))
	stack = stack.Push(defaults)

	var analyser *includes.Analyser
	if opts.PropertiesFile != "" {
		props, err := buildconfig.LoadCppProperties(opts.PropertiesFile, opts.ConfigName, workspaceRoot)
		if err != nil {
			return nil, nil, err
		}
		propsScope := scope.New()
		propsScope.Set("includePath", escapedList(props.IncludePath))
		propsScope.Set("forcedInclude", escapedList(props.ForcedInclude))
		propsScope.Set("defines", escapedList(props.Defines))
		stack = stack.Push(propsScope)

		analyser = includes.New(workspaceRoot)
		for _, dir := range props.IncludePath {
			plain := escape.Unescape(dir)
			if !filepath.IsAbs(plain) {
				plain = filepath.Join(workspaceRoot, plain)
			}
			if err := analyser.EnlistIncludePath(plain); err != nil {
				return nil, nil, err
			}
		}
	}

	fileWide := scope.New()
	buildconfig.ParamsToScope(global.Params, fileWide.Set)
	stack = stack.Push(fileWide)

	configParams := scope.New()
	buildconfig.ParamsToScope(cfg.Params, configParams.Set)
	stack = stack.Push(configParams)

	if buildType.Name != "" {
		buildTypeParams := scope.New()
		buildconfig.ParamsToScope(buildType.Params, buildTypeParams.Set)
		stack = stack.Push(buildTypeParams)
	}

	if len(opts.Variables) > 0 {
		cliScope := scope.New()
		for name, v := range opts.Variables {
			cliScope.SetString(name, escape.Escape(v))
		}
		stack = stack.Push(cliScope)
	}

	return stack, analyser, nil
}

func escapedList(items []string) value.Value {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = escape.Escape(it)
	}
	return value.OfList(out)
}

// DefaultBuildFile is the build-steps path used when -b/--build-file is
// not given, per spec.md §6.
func DefaultBuildFile(workspaceRoot string) string {
	return filepath.Join(workspaceRoot, ".vscode", "c_cpp_build.json")
}

// DefaultPropertiesFile is the C/C++ properties path used when
// -p/--properties-file is not given at all and the file exists; -p given
// with no value disables the properties file instead (see
// ResolvePropertiesFile).
func DefaultPropertiesFile(workspaceRoot string) string {
	return filepath.Join(workspaceRoot, ".vscode", "c_cpp_properties.json")
}

// propertiesFileExists reports whether the default properties file is
// present, so a workspace without one does not fail the build merely
// because -p was never mentioned.
func propertiesFileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ResolvePropertiesFile implements the "-p [file]" three-way default of
// spec.md §6: explicit path when given, the workspace default when the
// flag was never mentioned and that default file exists, or disabled
// (empty string) otherwise — including when -p is given with no value.
func ResolvePropertiesFile(workspaceRoot, flagValue string, flagChanged bool) string {
	if flagChanged {
		return flagValue
	}
	def := DefaultPropertiesFile(workspaceRoot)
	if propertiesFileExists(def) {
		return def
	}
	return ""
}

// stackWithStepParams layers step.Params immediately outer to the
// per-file scope that internal/executor composes on top, so every
// dispatch mode of a step shares the same step-level params.
func stackWithStepParams(base scope.Stack, step buildconfig.BuildStep) scope.Stack {
	if len(step.Params) == 0 {
		return base
	}
	s := scope.New()
	buildconfig.ParamsToScope(step.Params, s.Set)
	return base.Push(s)
}
