package main

import (
	"fmt"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"serialcompat/internal/config"
	"serialcompat/internal/gen"
)

// GenOptions is a struct to support the gen command.
type GenOptions struct {
	Config string
	Pkg    string
	Types  []string
	Out    string

	root *RootOptions
}

func NewGenCmd(root *RootOptions) *cobra.Command {
	o := &GenOptions{root: root}
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate field tables from a config file or for one package.",
		Example: `  serialcompat-gen gen --config serialcompat.yaml
  serialcompat-gen gen --pkg ./examples/shadow --type Derived --out shadow_serial.go`,
		Args: cobra.NoArgs,
		RunE: o.run,
	}

	cmd.Flags().StringVarP(&o.Config, "config", "c", "", "YAML config listing packages and types.")
	cmd.Flags().StringVar(&o.Pkg, "pkg", "", "Package pattern resolving to one package.")
	cmd.Flags().StringSliceVar(&o.Types, "type", nil, "Struct type to generate a table for (repeatable).")
	cmd.Flags().StringVar(&o.Out, "out", "", "Output file, relative to the package directory.")
	cmd.MarkFlagsMutuallyExclusive("config", "pkg")

	return cmd
}

func (o *GenOptions) run(cmd *cobra.Command, _ []string) error {
	jobs, dir, err := o.jobs()
	if err != nil {
		return err
	}

	logger := o.root.logger
	generator := gen.NewGenerator(gen.DefaultGeneratorConfig(), logger)

	var files []gen.GeneratedFile

	for _, job := range jobs {
		graph, pkgPath, err := o.root.loadOne(dir, job.Pattern)
		if err != nil {
			return errors.Wrapf(err, "loading %s", job.Pattern)
		}

		file, diags, err := generator.Generate(graph, gen.Request{
			Package: pkgPath,
			Types:   job.Types,
			Output:  job.Output,
		})
		if err != nil {
			return errors.Wrapf(err, "generating %s", pkgPath)
		}

		logger.Debug("diagnostics",
			zap.String("package", pkgPath),
			zap.Int("warnings", len(diags.Warnings)),
			zap.Int("infos", len(diags.Infos)))

		files = append(files, *file)
	}

	if err := gen.WriteFiles(files, ""); err != nil {
		return err
	}

	for _, f := range files {
		fmt.Fprintln(cmd.OutOrStdout(), f.Filename)
	}

	return nil
}

// jobs returns the packages to generate and the directory their patterns
// are relative to.
func (o *GenOptions) jobs() ([]config.Package, string, error) {
	switch {
	case o.Config != "":
		f, err := config.LoadFile(o.Config)
		if err != nil {
			return nil, "", err
		}

		dir := o.root.Dir
		if dir == "" {
			dir = filepath.Dir(o.Config)
		}

		return f.Packages, dir, nil
	case o.Pkg != "":
		if len(o.Types) == 0 {
			return nil, "", errors.New("--type is required with --pkg")
		}

		return []config.Package{{Pattern: o.Pkg, Types: o.Types, Output: o.Out}}, "", nil
	default:
		return nil, "", errors.New("either --config or --pkg is required")
	}
}
