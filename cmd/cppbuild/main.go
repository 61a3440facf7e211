// Command cppbuild runs a declarative, incremental C/C++ build-steps
// document: see internal/cli for the flag surface.
package main

import (
	"fmt"
	"os"

	"github.com/cppbuild-go/cppbuild/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
