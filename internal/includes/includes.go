// Package includes implements the C/C++ include-dependency analyser of
// spec.md §4.7: given a set of enlisted include directories, it lazily
// resolves the ordered subset actually needed to satisfy a source file's
// transitive #include graph.
package includes

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

type fileState int

const (
	stateUnseen fileState = iota
	stateIndexing
	stateAnalysed
	stateMissing
)

// Analyser indexes candidate include directories and memoises, per source
// file, the include paths its transitive #include graph actually requires.
// All public methods are safe for concurrent use: a single mutex serialises
// indexing and lookups so a race between a new EnlistIncludePath call and
// an in-flight GetPaths cannot leave fileLocations or includePaths
// inconsistent.
type Analyser struct {
	root string

	mu sync.Mutex

	// fileLocations maps a basename to every directory it was found in
	// during EnlistIncludePath indexing.
	fileLocations map[string]map[string]struct{}
	// includePaths is the ordered list of enlisted directories, kept in
	// insertion order. Directories under root are stored workspace-relative
	// so that matching against a resolved candidate location is
	// representation-independent.
	includePaths []string
	seenPaths    map[string]struct{}

	state             map[string]fileState
	fileRequiredPaths map[string][]string
	fileDependencies  map[string]map[string]struct{}
}

// New returns an Analyser rooted at workspaceRoot.
func New(workspaceRoot string) *Analyser {
	return &Analyser{
		root:              workspaceRoot,
		fileLocations:     make(map[string]map[string]struct{}),
		seenPaths:         make(map[string]struct{}),
		state:             make(map[string]fileState),
		fileRequiredPaths: make(map[string][]string),
		fileDependencies:  make(map[string]map[string]struct{}),
	}
}

// EnlistIncludePath registers dir as a candidate include directory: its
// immediate (non-recursive) files are indexed into fileLocations, and dir
// is appended to includePaths if not already enlisted. Absolute paths
// inside root are normalised to the workspace-relative form used for
// matching.
func (a *Analyser) EnlistIncludePath(dir string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	normalised := a.normalise(dir)
	if _, ok := a.seenPaths[normalised]; !ok {
		a.seenPaths[normalised] = struct{}{}
		a.includePaths = append(a.includePaths, normalised)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("enlist include path %q: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if a.fileLocations[name] == nil {
			a.fileLocations[name] = make(map[string]struct{})
		}
		a.fileLocations[name][normalised] = struct{}{}
	}
	return nil
}

// Normalise converts dir to the workspace-relative form used internally to
// key includePaths and fileLocations, so callers outside this package (the
// executor's include-path trimming) can match against the same keys.
func (a *Analyser) Normalise(dir string) string {
	return a.normalise(dir)
}

func (a *Analyser) normalise(dir string) string {
	abs := dir
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(a.root, abs)
	}
	abs = filepath.Clean(abs)
	if rel, err := filepath.Rel(a.root, abs); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return abs
}

// GetPaths returns the ordered subset of enlisted include directories
// required by file (found at location) and all of its transitive
// #includes, or missing=true when the seed file itself cannot be found at
// location. The result is memoised by the cleaned join of location and
// file (absolute only when location is).
func (a *Analyser) GetPaths(location, file string) (paths []string, missing bool, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	seedPath := filepath.Join(location, file)
	key := filepath.Clean(seedPath)

	if st, ok := a.state[key]; ok {
		switch st {
		case stateMissing:
			return nil, true, nil
		case stateAnalysed:
			return a.fileRequiredPaths[key], false, nil
		}
	}

	if _, err := os.Stat(seedPath); err != nil {
		a.state[key] = stateMissing
		return nil, true, nil
	}

	a.state[key] = stateIndexing
	required := make(map[string]struct{})
	visited := make(map[string]struct{})
	if err := a.collect(location, file, required, visited); err != nil {
		delete(a.state, key)
		return nil, false, err
	}

	ordered := make([]string, 0, len(required))
	for _, p := range a.includePaths {
		if _, ok := required[p]; ok {
			ordered = append(ordered, p)
		}
	}
	a.state[key] = stateAnalysed
	a.fileRequiredPaths[key] = ordered
	return ordered, false, nil
}

// collect performs the transitive scan, accumulating enlisted include
// directories into required. visited guards against #include cycles
// (spec.md does not require detecting them, but re-scanning a file already
// on this path would otherwise recurse forever).
func (a *Analyser) collect(location, file string, required, visited map[string]struct{}) error {
	fullPath := filepath.Clean(filepath.Join(location, file))
	if _, ok := visited[fullPath]; ok {
		return nil
	}
	visited[fullPath] = struct{}{}

	includes, err := scanIncludes(fullPath)
	if err != nil {
		return err
	}

	for _, inc := range includes {
		nextLocation, includePath, resolvedName, ok := a.findInclFile(location, inc)
		if !ok {
			continue // unresolved; treated as a leaf system header
		}
		if includePath != "" {
			required[includePath] = struct{}{}
		}
		if err := a.collect(nextLocation, resolvedName, required, visited); err != nil {
			return err
		}
	}
	return nil
}

// findInclFile implements spec.md §4.7's resolution table for one
// #include token. It returns the directory the included file was found in
// (so the caller can recurse from there), the enlisted include path that
// satisfied the lookup (empty when the file sat alongside the includer and
// needed no path), the file name to use when recursing, and ok=false when
// the file could not be located at all.
func (a *Analyser) findInclFile(location, searchedFile string) (foundLocation, requiredPath, resolvedName string, ok bool) {
	if _, err := os.Stat(filepath.Join(location, searchedFile)); err == nil {
		return location, "", searchedFile, true
	}

	base := filepath.Base(searchedFile)
	candidates := a.fileLocations[base]
	for _, p := range a.includePaths {
		if _, atCandidate := candidates[p]; atCandidate {
			dir := p
			if !filepath.IsAbs(dir) {
				dir = filepath.Join(a.root, dir)
			}
			return dir, p, base, true
		}
	}
	return "", "", "", false
}
