package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jedib0t/go-pretty/v6/table"
	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"serialcompat/fields"
	"serialcompat/internal/analyze"
	"serialcompat/internal/diagnostic"
)

// Output formats of the list command.
const (
	FormatTable = "table"
	FormatCSV   = "csv"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

var listFormats = []string{FormatTable, FormatCSV, FormatJSON, FormatYAML}

// ListOptions is a struct to support the list command.
type ListOptions struct {
	Pkg    string
	Type   string
	Format string

	root *RootOptions
}

// listRow is one resolved field as printed by the list command.
type listRow struct {
	Name       string `json:"name" yaml:"name"`
	Field      string `json:"field" yaml:"field"`
	Visibility string `json:"visibility" yaml:"visibility"`
	Declaring  string `json:"declaring" yaml:"declaring"`
	Depth      int    `json:"depth" yaml:"depth"`
	Shadowed   bool   `json:"shadowed" yaml:"shadowed"`
}

func NewListCmd(root *RootOptions) *cobra.Command {
	o := &ListOptions{root: root, Format: FormatTable}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the persisted fields of a struct type in enumeration order.",
		Args:  cobra.NoArgs,
		RunE:  o.run,
	}

	cmd.Flags().StringVar(&o.Pkg, "pkg", "", "Package pattern resolving to one package.")
	cmd.Flags().StringVar(&o.Type, "type", "", "Struct type name.")
	cmd.Flags().StringVarP(&o.Format, "output", "o", o.Format,
		"Output format: "+strings.Join(listFormats, ", ")+".")
	_ = cmd.MarkFlagRequired("pkg")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func (o *ListOptions) run(cmd *cobra.Command, _ []string) error {
	if !lo.Contains(listFormats, o.Format) {
		return errors.Newf("invalid format %q", o.Format)
	}

	graph, pkgPath, err := o.root.loadOne("", o.Pkg)
	if err != nil {
		return errors.Wrapf(err, "loading %s", o.Pkg)
	}

	diags := &diagnostic.Diagnostics{}
	layout := graph.Layout(analyze.TypeID{PkgPath: pkgPath, Name: o.Type}, diags)
	diags.Log(o.root.logger)

	if layout == nil {
		return diags.Error()
	}

	rows := lo.Map(layout.Descriptors, func(d fields.Descriptor, _ int) listRow {
		return listRow{
			Name:       d.Name,
			Field:      d.Field,
			Visibility: d.Visibility.String(),
			Declaring:  d.Declaring.String(),
			Depth:      d.Depth(),
			Shadowed:   d.Shadowed,
		}
	})

	return writeRows(cmd.OutOrStdout(), o.Format, rows)
}

func writeRows(w io.Writer, format string, rows []listRow) error {
	switch format {
	case FormatJSON:
		data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(rows, "", "  ")
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(w, string(data))

		return err
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(rows); err != nil {
			return err
		}

		return enc.Close()
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Name", "Field", "Visibility", "Declaring", "Depth", "Shadowed"})

	for _, r := range rows {
		tw.AppendRow(table.Row{r.Name, r.Field, r.Visibility, r.Declaring, r.Depth, r.Shadowed})
	}

	if format == FormatCSV {
		tw.RenderCSV()
	} else {
		tw.Render()
	}

	return nil
}
