package executor

import (
	"fmt"
	"path/filepath"

	"github.com/cppbuild-go/cppbuild/internal/buildconfig"
	"github.com/cppbuild-go/cppbuild/internal/escape"
	"github.com/cppbuild-go/cppbuild/internal/scope"
	"github.com/cppbuild-go/cppbuild/internal/template"
	"github.com/cppbuild-go/cppbuild/internal/value"
)

// applyTrimming implements the optional §4.7 trimming step.TrimIncludePaths
// (or the global -t flag) requests: the current file is analysed alongside
// every forcedInclude header — prepending it to that set, as spec.md §4.8
// puts it — so a header pulled in only via a forced include still counts
// toward which enlisted directories are required, then includePath is
// overridden to the entries of its own resolved value that are in that
// required set, keeping includePath's order. forcedInclude
// itself is left untouched; only includePath is trimmed back down.
func (r *Runner) applyTrimming(stack scope.Stack, resolver *template.Resolver, step buildconfig.BuildStep, filePath string) (scope.Stack, *template.Resolver, error) {
	if r.analyser == nil || !(r.opts.TrimIncludePaths || step.TrimIncludePaths) {
		return stack, resolver, nil
	}

	required := make(map[string]struct{})

	fileDir, fileName := filepath.Dir(filePath), filepath.Base(filePath)
	paths, missing, err := r.analyser.GetPaths(fileDir, fileName)
	if err != nil {
		return stack, resolver, fmt.Errorf("trim include paths for %q: %w", filePath, err)
	}
	if missing {
		return stack, resolver, fmt.Errorf("trim include paths: %q not found", filePath)
	}
	for _, p := range paths {
		required[p] = struct{}{}
	}

	forced, err := resolver.Resolve("forcedInclude")
	if err == nil {
		for _, raw := range forced.Items() {
			f := escape.Unescape(raw)
			if f == "" {
				continue
			}
			fp, err := r.analyser.GetPaths(filepath.Dir(f), filepath.Base(f))
			if err != nil {
				return stack, resolver, fmt.Errorf("trim include paths for forced include %q: %w", f, err)
			}
			for _, p := range fp {
				required[p] = struct{}{}
			}
		}
	}

	includeVal, err := resolver.Resolve("includePath")
	if err != nil {
		// No includePath defined at all: nothing to trim.
		return stack, resolver, nil
	}

	trimmed := make([]string, 0, len(includeVal.Items()))
	for _, item := range includeVal.Items() {
		plain := escape.Unescape(item)
		if _, ok := required[plain]; ok {
			trimmed = append(trimmed, item)
			continue
		}
		if _, ok := required[r.analyser.Normalise(plain)]; ok {
			trimmed = append(trimmed, item)
		}
	}

	overlay := scope.New()
	overlay.Set("includePath", value.OfList(trimmed))
	newStack := stack.Push(overlay)
	return newStack, template.NewResolver(newStack, r.opts.WorkspaceRoot), nil
}
