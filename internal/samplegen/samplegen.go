// Package samplegen writes a minimal, valid build-steps document so a new
// workspace has something to edit, backing the -i/--initialize flag of
// spec.md §6.
package samplegen

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const sample = `{
  "version": 1,
  "params": {},
  "configurations": [
    {
      "name": "default",
      "params": {},
      "buildTypes": [
        { "name": "debug", "params": { "optimizationFlag": "-O0" } },
        { "name": "release", "params": { "optimizationFlag": "-O2" } }
      ],
      "buildSteps": [
        {
          "name": "compile",
          "filePattern": "src/**/*.cpp",
          "outputFile": "build/${fileName}.o",
          "command": "g++ -c ${optimizationFlag} ${filePath} -o ${outputFile}"
        },
        {
          "name": "link",
          "fileList": ["build"],
          "command": "echo link step placeholder"
        }
      ]
    }
  ]
}
`

// Write creates path (and its parent directories) with the sample
// document, refusing to overwrite an existing file.
func Write(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("initialize: %s already exists", path)
	} else if !os.IsNotExist(err) {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	var check map[string]interface{}
	if err := json.Unmarshal([]byte(sample), &check); err != nil {
		return fmt.Errorf("initialize: internal sample is not valid JSON: %w", err)
	}

	return os.WriteFile(path, []byte(sample), 0o644)
}
