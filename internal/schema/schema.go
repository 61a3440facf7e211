// Package schema validates a build-steps document against the fixed JSON
// schema named in spec.md §6 ("validated against a fixed schema (external
// collaborator); the core accepts the post-validation document only"),
// using gojsonschema.
package schema

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// buildStepsSchema mirrors the BuildStep/BuildConfiguration/
// GlobalConfiguration shapes of spec.md §3. It intentionally does not
// attempt to express the mutually-exclusive-dispatch-field or
// outputFile-requires-filePattern invariants — those are structural
// decisions better reported with step/file context by
// buildconfig.GlobalConfiguration.Validate than by a generic schema error.
const buildStepsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version", "configurations"],
  "properties": {
    "version": {"const": 1},
    "params": {"type": "object"},
    "configurations": {
      "type": "array",
      "items": {"$ref": "#/definitions/configuration"}
    }
  },
  "definitions": {
    "value": {
      "oneOf": [
        {"type": "string"},
        {"type": "array", "items": {"type": "string"}}
      ]
    },
    "params": {
      "type": "object",
      "additionalProperties": {"$ref": "#/definitions/value"}
    },
    "configuration": {
      "type": "object",
      "required": ["name", "buildSteps"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "params": {"$ref": "#/definitions/params"},
        "buildTypes": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["name"],
            "properties": {
              "name": {"type": "string", "minLength": 1},
              "params": {"$ref": "#/definitions/params"}
            }
          }
        },
        "buildSteps": {
          "type": "array",
          "items": {"$ref": "#/definitions/buildStep"}
        },
        "problemMatchers": {
          "type": "array",
          "items": {"type": "object"}
        }
      }
    },
    "buildStep": {
      "type": "object",
      "required": ["name", "command"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "command": {"type": "string"},
        "params": {"$ref": "#/definitions/params"},
        "filePattern": {"type": "string"},
        "directoryPattern": {"type": "string"},
        "fileList": {"type": "array", "items": {"type": "string"}},
        "outputDirectory": {"type": "string"},
        "outputFile": {"type": "string"},
        "trimIncludePaths": {"type": "boolean"}
      }
    }
  }
}`

// ValidationError reports one or more schema violations, per spec.md §7's
// "configuration errors... schema violations" category.
type ValidationError struct {
	Details []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("build-steps file failed schema validation: %s", strings.Join(e.Details, "; "))
}

// ValidateBuildSteps checks the raw JSON document bytes against the fixed
// build-steps schema, before the core ever unmarshals it into
// buildconfig.GlobalConfiguration.
func ValidateBuildSteps(document []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(buildStepsSchema)
	docLoader := gojsonschema.NewBytesLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("validate build-steps document: %w", err)
	}
	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		details = append(details, e.String())
	}
	return &ValidationError{Details: details}
}
