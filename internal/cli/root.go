// Package cli implements cppbuild's command-line surface of spec.md §6: a
// single command taking a configuration name and optional build-type
// name, with flags controlling workspace root, file locations, variable
// overrides, concurrency, and rebuild/error policy.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cppbuild-go/cppbuild/internal/driver"
	"github.com/cppbuild-go/cppbuild/internal/logging"
	"github.com/cppbuild-go/cppbuild/internal/rc"
	"github.com/cppbuild-go/cppbuild/internal/samplegen"
	"github.com/cppbuild-go/cppbuild/internal/selfcheck"
)

// version is set at build time via -ldflags; it defaults to "dev" for
// local builds.
var version = "dev"

var (
	workspaceRoot    string
	buildFile        string
	propertiesFile   string
	variables        []string
	maxTasks         int
	forceRebuild     bool
	debug            bool
	trimIncludePaths bool
	continueOnError  bool
	initializePath   string
)

var rootCmd = &cobra.Command{
	Use:   "cppbuild <configName> [buildTypeName]",
	Short: "Declarative, incremental driver for C/C++ build steps",
	Long: `cppbuild runs the named configuration (and, optionally, build type) from a
build-steps document: a templated, layered-variable description of
compile, link, and other build commands, dispatched once, per matched
file, or per matched directory, with incremental skip and bounded
concurrency.`,
	Args: cobra.RangeArgs(0, 2),
	RunE: runRoot,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&workspaceRoot, "workspace-root", "w", ".", "Root directory build-file paths and commands are resolved against")
	flags.StringVarP(&buildFile, "build-file", "b", "", "Path to the build-steps document (default: <workspace-root>/.vscode/c_cpp_build.json)")
	flags.StringVarP(&propertiesFile, "properties-file", "p", "", "Path to the C/C++ properties document (default: <workspace-root>/.vscode/c_cpp_properties.json if present)")
	flags.Lookup("properties-file").NoOptDefVal = " "
	flags.StringArrayVarP(&variables, "variable", "v", nil, "Override a scope variable as name=value (repeatable)")
	flags.IntVarP(&maxTasks, "max-tasks", "j", 0, "Maximum number of concurrent per-file tasks (default: 4)")
	flags.BoolVarP(&forceRebuild, "force-rebuild", "f", false, "Run every step even when outputs are newer than inputs")
	flags.BoolVarP(&debug, "debug", "d", false, "Print each resolved command line before running it")
	flags.BoolVarP(&trimIncludePaths, "trim-include-paths", "t", false, "Trim includePath to directories transitively required by each compiled file")
	flags.BoolVarP(&continueOnError, "continue-on-error", "c", false, "Keep running remaining files/steps after a task fails")
	flags.StringVarP(&initializePath, "initialize", "i", "", "Write a sample build-steps document to path and exit")
}

func runRoot(cmd *cobra.Command, args []string) error {
	if initializePath != "" {
		if err := samplegen.Write(initializePath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote sample build-steps document to %s\n", initializePath)
		return nil
	}

	if len(args) < 1 {
		return fmt.Errorf("accepts 1 or 2 positional args (configName [buildTypeName]), received 0")
	}
	configName := args[0]
	var buildTypeName string
	if len(args) == 2 {
		buildTypeName = args[1]
	}

	defaults, err := rc.Load(workspaceRoot)
	if err != nil {
		return fmt.Errorf("load %s: %w", rc.FileName, err)
	}

	resolvedBuildFile := buildFile
	if resolvedBuildFile == "" {
		resolvedBuildFile = defaults.BuildFile
	}
	if resolvedBuildFile == "" {
		resolvedBuildFile = driver.DefaultBuildFile(workspaceRoot)
	}

	propsChanged := cmd.Flags().Changed("properties-file")
	resolvedPropertiesFile := driver.ResolvePropertiesFile(workspaceRoot, strings.TrimSpace(propertiesFile), propsChanged)
	if !propsChanged && defaults.PropertiesFile != "" {
		resolvedPropertiesFile = defaults.PropertiesFile
	}

	resolvedMaxTasks := maxTasks
	if resolvedMaxTasks == 0 {
		resolvedMaxTasks = defaults.MaxTasks
	}

	vars, err := parseVariables(variables)
	if err != nil {
		return err
	}

	logger := logging.New(debug)

	check := selfcheck.Check(version)
	if !check.UpToDate && check.Notice != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), check.Notice)
	}

	opts := driver.Options{
		WorkspaceRoot:    workspaceRoot,
		BuildFile:        resolvedBuildFile,
		PropertiesFile:   resolvedPropertiesFile,
		ConfigName:       configName,
		BuildTypeName:    buildTypeName,
		Variables:        vars,
		MaxTasks:         resolvedMaxTasks,
		ForceRebuild:     forceRebuild,
		Debug:            debug,
		TrimIncludePaths: trimIncludePaths || (!cmd.Flags().Changed("trim-include-paths") && defaults.TrimIncludePaths),
		ContinueOnError:  continueOnError || (!cmd.Flags().Changed("continue-on-error") && defaults.ContinueOnError),
	}

	_, err = driver.Run(context.Background(), opts, logger)
	return err
}

func parseVariables(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(raw))
	for _, item := range raw {
		name, value, ok := strings.Cut(item, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid -v/--variable %q: expected name=value", item)
		}
		out[name] = value
	}
	return out, nil
}

// Execute runs the root command, returning a non-nil error on any
// failure (configuration, resolution, or aggregated task errors), which
// the caller in cmd/cppbuild maps to exit code 1.
func Execute() error {
	return rootCmd.Execute()
}
