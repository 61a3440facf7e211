// Package globexpand implements the glob expander of spec.md §4.3: pattern
// expansion against a workspace root, with files-only / directories-only /
// both / no-expand modes.
package globexpand

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/cppbuild-go/cppbuild/internal/escape"
)

// Mode selects how a pattern's matches are filtered, per spec.md §4.3.
type Mode int

const (
	// NoExpand returns the pattern unchanged, as a single-element result.
	NoExpand Mode = iota
	// FilesOnly excludes directories from the result set.
	FilesOnly
	// DirectoriesOnly forces a trailing separator on the pattern so only
	// directories match, then strips the trailing separator from results.
	DirectoriesOnly
	// ExpandAll returns both files and directories.
	ExpandAll
)

// Expand expands pattern against workspaceRoot per mode. Absolute patterns
// are matched against the filesystem root rather than workspaceRoot.
// Every result is passed through escape.Escape before return, since
// results flow directly into the template engine's literal-string domain.
func Expand(workspaceRoot, pattern string, mode Mode) ([]string, error) {
	if mode == NoExpand {
		return []string{pattern}, nil
	}

	searchPattern := pattern
	if mode == DirectoriesOnly && !strings.HasSuffix(searchPattern, "/") {
		searchPattern += "/"
	}

	base := workspaceRoot
	rel := searchPattern
	if filepath.IsAbs(searchPattern) {
		base = string(filepath.Separator)
		rel = strings.TrimPrefix(filepath.ToSlash(searchPattern), "/")
	}

	matches, err := doublestar.Glob(os.DirFS(base), filepath.ToSlash(rel))
	if err != nil {
		return nil, fmt.Errorf("expand glob %q: %w", pattern, err)
	}

	results := make([]string, 0, len(matches))
	for _, m := range matches {
		full := filepath.Join(base, filepath.FromSlash(m))
		info, statErr := os.Stat(full)
		if statErr != nil {
			continue
		}
		isDir := info.IsDir()

		switch mode {
		case FilesOnly:
			if isDir {
				continue
			}
		case DirectoriesOnly:
			if !isDir {
				continue
			}
		case ExpandAll:
			// no filtering
		}

		result := strings.TrimSuffix(full, string(filepath.Separator))
		results = append(results, escape.Escape(result))
	}
	return results, nil
}

// WalkDir is a thin helper returning the non-recursive listing of dir; it
// is not part of the glob mini-language. Nothing in this module calls it:
// the include-dependency analyser (internal/includes) lists its enlisted
// directories with os.ReadDir directly.
func WalkDir(dir string) ([]fs.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}
	return entries, nil
}
