package buildconfig

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cppbuild-go/cppbuild/internal/schema"
)

// Load reads, schema-validates, and structurally validates the build-steps
// file at path, per spec.md §6: "Validated against a fixed schema
// (external collaborator); the core accepts the post-validation document
// only."
func Load(path string) (GlobalConfiguration, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return GlobalConfiguration{}, fmt.Errorf("read build-steps file %q: %w", path, err)
	}

	if err := schema.ValidateBuildSteps(raw); err != nil {
		return GlobalConfiguration{}, err
	}

	var g GlobalConfiguration
	if err := json.Unmarshal(raw, &g); err != nil {
		return GlobalConfiguration{}, fmt.Errorf("parse build-steps file %q: %w", path, err)
	}

	if err := g.Validate(); err != nil {
		return GlobalConfiguration{}, err
	}
	return g, nil
}
