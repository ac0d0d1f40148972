package main

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"serialcompat/internal/analyze"
)

// RootOptions holds the flags shared by every command.
type RootOptions struct {
	Verbose bool
	Dir     string

	logger *zap.Logger
}

func NewRootCmd() *cobra.Command {
	o := &RootOptions{}
	cmd := &cobra.Command{
		Use:          "serialcompat-gen",
		Short:        "Generate static field tables for struct serialization.",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			logger, err := newLogger(o.Verbose)
			if err != nil {
				return errors.Wrap(err, "creating logger")
			}

			o.logger = logger

			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if o.logger != nil {
				_ = o.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&o.Verbose, "verbose", "v", false, "Log debug diagnostics.")
	cmd.PersistentFlags().StringVarP(&o.Dir, "dir", "C", "", "Resolve package patterns from this directory.")

	cmd.AddCommand(NewGenCmd(o))
	cmd.AddCommand(NewListCmd(o))

	return cmd
}

// newLogger writes human-readable logs to stderr.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	return cfg.Build()
}

// loadOne loads a pattern that must resolve to exactly one package. Relative
// patterns are resolved from dir, or from --dir when dir is empty.
func (o *RootOptions) loadOne(dir, pattern string) (*analyze.TypeGraph, string, error) {
	if dir == "" {
		dir = o.Dir
	}

	graph, loaded, err := analyze.NewAnalyzer().InDir(dir).LoadPackages(pattern)
	if err != nil {
		return nil, "", err
	}

	if len(loaded) != 1 {
		return nil, "", errors.Newf("pattern %q matches %d packages, want exactly one", pattern, len(loaded))
	}

	return graph, loaded[0], nil
}
