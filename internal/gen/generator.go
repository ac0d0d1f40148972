package gen

import (
	"bytes"
	"go/format"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"serialcompat/internal/analyze"
	"serialcompat/internal/common"
	"serialcompat/internal/diagnostic"
)

// GeneratorConfig holds configuration for code generation.
type GeneratorConfig struct {
	// FieldsImport is the import path of the runtime fields package.
	FieldsImport string
	// FileSuffix names the output of a package when no filename is given:
	// "<package><FileSuffix>".
	FileSuffix string
	// DebugUnformatted writes the raw template output next to the target
	// when it fails to format.
	DebugUnformatted bool
}

// DefaultGeneratorConfig returns the default generator configuration.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		FieldsImport:     "serialcompat/fields",
		FileSuffix:       "_serial.go",
		DebugUnformatted: true,
	}
}

// Generator generates field table registrations from analyzed types.
type Generator struct {
	config GeneratorConfig
	logger *zap.Logger
}

// NewGenerator creates a new Generator with the given configuration.
// A nil logger discards output.
func NewGenerator(config GeneratorConfig, logger *zap.Logger) *Generator {
	defaults := DefaultGeneratorConfig()
	if config.FieldsImport == "" {
		config.FieldsImport = defaults.FieldsImport
	}
	if config.FileSuffix == "" {
		config.FileSuffix = defaults.FileSuffix
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Generator{config: config, logger: logger}
}

// GeneratedFile represents a generated Go source file.
type GeneratedFile struct {
	// Filename is the path of the file, inside the package directory
	// (e.g., "/src/examples/demo/demo_serial.go").
	Filename string
	// Content is the formatted Go source code.
	Content []byte
}

// Request selects the types of one package to generate tables for.
type Request struct {
	// Package is the import path of the package.
	Package string
	// Types are the struct type names, in registration order.
	Types []string
	// Output is the filename inside the package directory; empty selects
	// the default name.
	Output string
}

// Generate renders one file registering the tables of the requested types.
// Diagnostics are returned even when generation fails; any error diagnostic
// fails it.
func (g *Generator) Generate(graph *analyze.TypeGraph, req Request) (*GeneratedFile, *diagnostic.Diagnostics, error) {
	diags := &diagnostic.Diagnostics{}

	pkg, ok := graph.Packages[req.Package]
	if !ok {
		return nil, diags, errors.Newf("package %s was not loaded", req.Package)
	}

	if len(req.Types) == 0 {
		return nil, diags, errors.Newf("no types requested for package %s", req.Package)
	}

	layouts := make([]*analyze.Layout, 0, len(req.Types))
	for _, name := range req.Types {
		layout := graph.Layout(analyze.TypeID{PkgPath: pkg.Path, Name: name}, diags)
		if layout != nil {
			layouts = append(layouts, layout)
		}
	}

	diags.Log(g.logger.With(zap.String("package", pkg.Path)))

	if diags.HasErrors() {
		return nil, diags, diags.Error()
	}

	filename := req.Output
	if filename == "" {
		filename = pkg.Name + g.config.FileSuffix
	}
	if !filepath.IsAbs(filename) && pkg.Dir != "" {
		filename = filepath.Join(pkg.Dir, filename)
	}

	data := g.buildFileData(pkg, layouts)

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return nil, diags, errors.Wrap(err, "executing template")
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		if g.config.DebugUnformatted {
			writeDebugUnformatted(filename, buf.Bytes())
		}

		return &GeneratedFile{
			Filename: filename,
			Content:  buf.Bytes(),
		}, diags, errors.Wrap(err, "formatting code")
	}

	g.logger.Info("generated field tables",
		zap.String("package", pkg.Path),
		zap.Strings("types", req.Types),
		zap.String("file", filename))

	return &GeneratedFile{
		Filename: filename,
		Content:  formatted,
	}, diags, nil
}

// buildFileData resolves import aliases and renders every table.
func (g *Generator) buildFileData(pkg *analyze.PackageInfo, layouts []*analyze.Layout) *fileData {
	used := map[string]bool{}
	taken := func(alias string) bool {
		return used[alias] || reservedIdents[alias] || pkg.Declares(alias)
	}

	fieldsName := common.PkgAlias(g.config.FieldsImport)

	fieldsAlias := fieldsName
	if taken(fieldsAlias) {
		fieldsAlias = common.UniqueAlias("serial"+fieldsName, taken)
	}
	used[fieldsAlias] = true

	data := &fileData{PackageName: pkg.Name}
	data.Imports = append(data.Imports, importSpec{Path: g.config.FieldsImport})
	if fieldsAlias != fieldsName {
		data.Imports[0].Alias = fieldsAlias
	}

	aliases := map[string]string{}

	for _, layout := range layouts {
		for _, part := range layout.Parts {
			e := part.Embed
			if e == nil {
				continue
			}
			if _, ok := aliases[e.Type.PkgPath]; ok {
				continue
			}

			alias := common.UniqueAlias(e.Package, taken)
			used[alias] = true
			aliases[e.Type.PkgPath] = alias

			spec := importSpec{Path: e.Type.PkgPath}
			if alias != e.Package {
				spec.Alias = alias
			}
			data.Imports = append(data.Imports, spec)
		}
	}

	sortImports(data.Imports)

	r := &renderer{fields: fieldsAlias, aliases: aliases}
	for _, layout := range layouts {
		data.Tables = append(data.Tables, r.table(layout))
	}

	return data
}

// reservedIdents are the parameter names of generated closures.
var reservedIdents = map[string]bool{
	"x":     true,
	"v":     true,
	"alloc": true,
}

// renderer spells table declarations with resolved import aliases.
type renderer struct {
	fields  string
	aliases map[string]string
}

// table renders the MustDefine call of one layout.
func (r *renderer) table(layout *analyze.Layout) string {
	root := layout.Root.Name

	var groups []string
	var own []string

	flush := func() {
		if len(own) > 0 {
			groups = append(groups, r.fields+".Own(\n"+strings.Join(own, "")+")")
			own = nil
		}
	}

	for _, part := range layout.Parts {
		if part.Accessor != nil {
			own = append(own, r.accessor(root, part.Accessor))
			continue
		}

		flush()
		groups = append(groups, r.embed(root, part.Embed))
	}
	flush()

	var b strings.Builder
	b.WriteString(r.fields + ".Register(" + r.fields + ".MustDefine[" + root + "](\n")
	for _, group := range groups {
		b.WriteString(group + ",\n")
	}
	b.WriteString("))\n")

	return b.String()
}

func (r *renderer) accessor(root string, a *analyze.Accessor) string {
	var b strings.Builder

	b.WriteString(r.fields + ".Accessor[" + root + "]{\n")
	b.WriteString("Field: " + quote(a.Field) + ",\n")

	if a.Exported {
		b.WriteString("Exported: true,\n")
	}

	if a.Declaring != (analyze.TypeID{}) {
		b.WriteString("Declaring: " + r.fields + ".TypeID{PkgPath: " + quote(a.Declaring.PkgPath) + ", Name: " + quote(a.Declaring.Name) + "},\n")
	}

	if len(a.Path) > 0 {
		b.WriteString("Path: []string{" + strings.Join(quoteAll(a.Path), ", ") + "},\n")
	}

	if len(a.Guards) == 0 {
		b.WriteString("Get: func(x *" + root + ") (any, bool) { return " + a.Selector + ", true },\n")
		b.WriteString("Set: func(x *" + root + ", v any) error { return " + r.fields + ".Assign(&" + a.Selector + ", v) },\n")
	} else {
		b.WriteString("Get: func(x *" + root + ") (any, bool) {\n")
		for _, g := range a.Guards {
			b.WriteString("if " + g.Selector + " == nil {\nreturn nil, false\n}\n")
		}
		b.WriteString("return " + a.Selector + ", true\n},\n")

		b.WriteString("Set: func(x *" + root + ", v any) error {\n")
		for _, g := range a.Guards {
			b.WriteString("if " + g.Selector + " == nil {\n" + g.Selector + " = new(" + g.New + ")\n}\n")
		}
		b.WriteString("return " + r.fields + ".Assign(&" + a.Selector + ", v)\n},\n")
	}

	b.WriteString("},\n")

	return b.String()
}

func (r *renderer) embed(root string, e *analyze.Embed) string {
	typ := r.aliases[e.Type.PkgPath] + "." + e.Type.Name

	var b strings.Builder

	b.WriteString(r.fields + ".Embed(" + quote(strings.Join(e.Path, ".")) + ", " + r.fields + ".MustFor[" + typ + "](), ")
	b.WriteString("func(x *" + root + ", alloc bool) *" + typ + " {\n")

	for _, g := range e.Guards {
		b.WriteString(allocGuard(g.Selector, g.New))
	}

	if e.Pointer {
		b.WriteString(allocGuard(e.Selector, typ))
		b.WriteString("return " + e.Selector + "\n")
	} else {
		b.WriteString("return &" + e.Selector + "\n")
	}

	b.WriteString("})")

	return b.String()
}

// allocGuard stops at a nil pointer when reading and allocates it when writing.
func allocGuard(selector, typ string) string {
	return "if " + selector + " == nil {\nif !alloc {\nreturn nil\n}\n" + selector + " = new(" + typ + ")\n}\n"
}
