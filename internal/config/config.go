package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// CurrentVersion is the only configuration version understood.
const CurrentVersion = "1"

// File is a generator configuration.
type File struct {
	Version  string    `yaml:"version"`
	Packages []Package `yaml:"packages"`
}

// Package selects struct types of one package.
type Package struct {
	// Pattern is a package pattern resolving to exactly one package
	// (e.g., "./examples/demo").
	Pattern string `yaml:"pattern"`
	// Types are the struct type names to generate tables for.
	Types []string `yaml:"types"`
	// Output is the generated filename inside the package directory.
	Output string `yaml:"output,omitempty"`
}

// LoadFile loads and parses a YAML configuration file from the given path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}

	return Parse(data)
}

// Parse parses YAML data into a File and validates it.
func Parse(data []byte) (*File, error) {
	var f File

	err := yaml.Unmarshal(data, &f)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse config YAML")
	}

	applyDefaults(&f)

	if err := Validate(&f); err != nil {
		return nil, err
	}

	return &f, nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(f *File) {
	if f.Version == "" {
		f.Version = CurrentVersion
	}
}

// Validate reports every problem of f at once.
func Validate(f *File) error {
	var problems []string

	if f.Version != CurrentVersion {
		problems = append(problems, fmt.Sprintf("unsupported version %q", f.Version))
	}

	if len(f.Packages) == 0 {
		problems = append(problems, "no packages configured")
	}

	for i, p := range f.Packages {
		where := fmt.Sprintf("packages[%d]", i)

		if strings.TrimSpace(p.Pattern) == "" {
			problems = append(problems, fmt.Sprintf("%s: pattern is required", where))
		}

		if len(p.Types) == 0 {
			problems = append(problems, fmt.Sprintf("%s: at least one type is required", where))
		}

		if dups := lo.FindDuplicates(p.Types); len(dups) > 0 {
			problems = append(problems, fmt.Sprintf("%s: duplicate types %v", where, dups))
		}

		if p.Output != "" && (filepath.Base(p.Output) != p.Output || filepath.Ext(p.Output) != ".go") {
			problems = append(problems, fmt.Sprintf("%s: output %q must be a .go filename", where, p.Output))
		}
	}

	if len(problems) > 0 {
		return errors.Newf("invalid config: %s", strings.Join(problems, "; "))
	}

	return nil
}

// Marshal serializes a File to YAML.
func Marshal(f *File) ([]byte, error) {
	return yaml.Marshal(f)
}

// WriteFile writes a File to the given path.
func WriteFile(f *File, path string) error {
	data, err := Marshal(f)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write config file %s", path)
	}

	return nil
}
