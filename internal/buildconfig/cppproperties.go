package buildconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
)

// CppProperties is the subset of the external C/C++ properties file the
// core reads (spec.md §3, §6): per named configuration, the include path,
// forced-include, and preprocessor-define arrays used to seed a scope
// layer before the core's own resolver runs.
type CppProperties struct {
	IncludePath   []string
	ForcedInclude []string
	Defines       []string
}

type cppPropertiesFile struct {
	Configurations []struct {
		Name          string   `json:"name"`
		IncludePath   []string `json:"includePath"`
		ForcedInclude []string `json:"forcedInclude"`
		Defines       []string `json:"defines"`
	} `json:"configurations"`
}

// LoadCppProperties reads path and returns the entry matching
// configName. When no entry matches by name, the first configuration in
// the file is used — the file predates per-configuration selection in
// many existing workspaces, so a present-but-unmatched config name falls
// back rather than erroring (documented as an Open Question resolution in
// DESIGN.md). Every string value is passed through
// expandHostVariableSyntax first, so `${env:...}` and `${workspaceFolder}`
// tokens are resolved before the value ever reaches the core's own
// resolver.
func LoadCppProperties(path, configName, workspaceRoot string) (CppProperties, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return CppProperties{}, fmt.Errorf("read C/C++ properties file %q: %w", path, err)
	}
	var f cppPropertiesFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return CppProperties{}, fmt.Errorf("parse C/C++ properties file %q: %w", path, err)
	}
	if len(f.Configurations) == 0 {
		return CppProperties{}, nil
	}

	chosen := f.Configurations[0]
	for _, c := range f.Configurations {
		if c.Name == configName {
			chosen = c
			break
		}
	}

	expand := func(items []string) []string {
		out := make([]string, len(items))
		for i, it := range items {
			out[i] = expandHostVariableSyntax(it, workspaceRoot)
		}
		return out
	}

	return CppProperties{
		IncludePath:   expand(chosen.IncludePath),
		ForcedInclude: expand(chosen.ForcedInclude),
		Defines:       expand(chosen.Defines),
	}, nil
}

var hostVarRe = regexp.MustCompile(`\$\{(env:)?([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandHostVariableSyntax resolves the host editor's own `${...}`
// variable syntax — distinct from, and resolved before, this module's own
// template mini-language — so that values reaching the resolver are
// already literal strings. Only `${env:NAME}` and `${workspaceFolder}` are
// recognised; any other token is left untouched.
func expandHostVariableSyntax(s, workspaceRoot string) string {
	return hostVarRe.ReplaceAllStringFunc(s, func(tok string) string {
		m := hostVarRe.FindStringSubmatch(tok)
		isEnv, name := m[1] != "", m[2]
		switch {
		case isEnv:
			return os.Getenv(name)
		case name == "workspaceFolder":
			return workspaceRoot
		default:
			return tok
		}
	})
}
