// Package buildconfig defines the build-steps document model of spec.md
// §3 and §6: BuildStep, BuildType, BuildConfiguration, GlobalConfiguration,
// and the subset of an external C/C++ properties file the core reads.
package buildconfig

import (
	"encoding/json"

	"github.com/cppbuild-go/cppbuild/internal/value"
)

// BuildStep is one templated command, optionally fanned out over files or
// directories. Exactly zero or one of FilePattern, DirectoryPattern,
// FileList may be set; OutputFile is only valid alongside FilePattern.
type BuildStep struct {
	Name             string            `json:"name"`
	Command          string            `json:"command"`
	Params           map[string]Value  `json:"params,omitempty"`
	FilePattern      string            `json:"filePattern,omitempty"`
	DirectoryPattern string            `json:"directoryPattern,omitempty"`
	FileList         []string          `json:"fileList,omitempty"`
	OutputDirectory  string            `json:"outputDirectory,omitempty"`
	OutputFile       string            `json:"outputFile,omitempty"`
	TrimIncludePaths bool              `json:"trimIncludePaths,omitempty"`
}

// DispatchMode reports which of the three mutually-exclusive dispatch
// fields this step uses.
type DispatchMode int

const (
	DispatchOnce DispatchMode = iota
	DispatchPerFile
	DispatchPerDirectory
)

// Dispatch returns the step's dispatch mode, per spec.md §4.8.
func (s BuildStep) Dispatch() DispatchMode {
	switch {
	case s.FilePattern != "":
		return DispatchPerFile
	case s.DirectoryPattern != "":
		return DispatchPerDirectory
	default:
		return DispatchOnce
	}
}

// BuildType is a named params overlay selectable on the command line.
type BuildType struct {
	Name   string           `json:"name"`
	Params map[string]Value `json:"params,omitempty"`
}

// BuildConfiguration groups build types and build steps under one name.
// Build-step names are free-form (not required unique); build-type names
// within a configuration must be unique.
type BuildConfiguration struct {
	Name            string                   `json:"name"`
	Params          map[string]Value         `json:"params,omitempty"`
	BuildTypes      []BuildType              `json:"buildTypes,omitempty"`
	BuildSteps      []BuildStep              `json:"buildSteps"`
	ProblemMatchers []map[string]interface{} `json:"problemMatchers,omitempty"`
}

// GlobalConfiguration is the root of the build-steps file.
type GlobalConfiguration struct {
	Version        int                   `json:"version"`
	Params         map[string]Value      `json:"params,omitempty"`
	Configurations []BuildConfiguration  `json:"configurations"`
}

// FindConfiguration returns the named configuration, per spec.md's
// "configurations... unique" invariant.
func (g GlobalConfiguration) FindConfiguration(name string) (BuildConfiguration, bool) {
	for _, c := range g.Configurations {
		if c.Name == name {
			return c, true
		}
	}
	return BuildConfiguration{}, false
}

// FindBuildType returns the named build type within c. An empty name with
// no build types defined is not an error: the configuration simply has no
// build-type overlay.
func (c BuildConfiguration) FindBuildType(name string) (BuildType, bool) {
	if name == "" {
		return BuildType{}, false
	}
	for _, bt := range c.BuildTypes {
		if bt.Name == name {
			return bt, true
		}
	}
	return BuildType{}, false
}

// Value is the JSON-facing mirror of internal/value.Value: a field is
// either a JSON string (scalar) or a JSON array of strings (multi-valued).
// It round-trips through encoding/json without a custom Value type
// leaking into the JSON schema.
type Value struct {
	IsMulti bool
	Single  string
	List    []string
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = Value{Single: s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*v = Value{IsMulti: true, List: list}
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsMulti {
		return json.Marshal(v.List)
	}
	return json.Marshal(v.Single)
}

// ToValue converts a JSON-facing Value into the resolver's internal
// representation.
func (v Value) ToValue() value.Value {
	if v.IsMulti {
		return value.OfList(v.List)
	}
	return value.Of(v.Single)
}

// ParamsToScope converts a params map into scope.Scope-ready entries via
// the supplied setter, letting callers avoid importing both packages at
// every call site.
func ParamsToScope(params map[string]Value, set func(name string, v value.Value)) {
	for name, v := range params {
		set(name, v.ToValue())
	}
}
