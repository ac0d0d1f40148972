// Package main provides the CLI entrypoint for serialcompat-gen.
//
// serialcompat-gen writes static field tables for struct types:
//   - Loads Go packages (go/types) to enumerate every field, exported or not
//   - Flattens embedded structs and resolves shadowed identifiers
//   - Generates an init function registering each table with the fields package
package main

import (
	"os"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
