// Package rc loads .cppbuildrc.yaml, an optional per-workspace file of
// CLI default overrides: a flag given explicitly on the command line
// still wins, but an unset flag falls back to whatever this file names
// before falling back to the built-in default.
package rc

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the name of the defaults file looked up at the workspace
// root.
const FileName = ".cppbuildrc.yaml"

// Defaults is the subset of spec.md §6 flags a workspace can override.
type Defaults struct {
	BuildFile        string `yaml:"buildFile"`
	PropertiesFile   string `yaml:"propertiesFile"`
	MaxTasks         int    `yaml:"maxTasks"`
	ContinueOnError  bool   `yaml:"continueOnError"`
	TrimIncludePaths bool   `yaml:"trimIncludePaths"`
}

// Load reads workspaceRoot/.cppbuildrc.yaml. A missing file is not an
// error: it returns the zero Defaults, which applies no overrides.
func Load(workspaceRoot string) (Defaults, error) {
	var d Defaults
	data, err := os.ReadFile(filepath.Join(workspaceRoot, FileName))
	if os.IsNotExist(err) {
		return d, nil
	}
	if err != nil {
		return d, err
	}
	if err := yaml.Unmarshal(data, &d); err != nil {
		return d, err
	}
	return d, nil
}
