package gen

import (
	"slices"
	"strconv"
	"strings"
	"text/template"

	"github.com/samber/lo"
)

// fileData holds all data needed for the file template.
type fileData struct {
	PackageName string
	Imports     []importSpec
	Tables      []string
}

// importSpec is one import of the generated file.
type importSpec struct {
	Alias string
	Path  string
}

func sortImports(imports []importSpec) {
	slices.SortFunc(imports, func(a, b importSpec) int {
		return strings.Compare(a.Path, b.Path)
	})
}

func quote(s string) string {
	return strconv.Quote(s)
}

func quoteAll(ss []string) []string {
	return lo.Map(ss, func(s string, _ int) string { return quote(s) })
}

// Template for the table file

var fileTemplate = template.Must(template.New("tables").Parse(`// Code generated by serialcompat-gen. DO NOT EDIT.

package {{.PackageName}}

import (
{{range .Imports}}	{{if .Alias}}{{.Alias}} {{end}}"{{.Path}}"
{{end}})

func init() {
{{range .Tables}}{{.}}{{end}}}
`))
