package gen

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"serialcompat/internal/analyze"
)

const (
	demoPkg   = "serialcompat/examples/demo"
	shadowPkg = "serialcompat/examples/shadow"
	clashPkg  = "serialcompat/internal/gen/testdata/clash"
)

func load(t *testing.T, patterns ...string) *analyze.TypeGraph {
	t.Helper()

	graph, _, err := analyze.NewAnalyzer().LoadPackages(patterns...)
	require.NoError(t, err)

	return graph
}

// requireParses checks the generated file is valid Go.
func requireParses(t *testing.T, file *GeneratedFile) {
	t.Helper()

	_, err := parser.ParseFile(token.NewFileSet(), file.Filename, file.Content, parser.AllErrors)
	require.NoError(t, err, string(file.Content))
}

func TestGenerator_Demo(t *testing.T) {
	graph := load(t, demoPkg)

	g := NewGenerator(DefaultGeneratorConfig(), nil)
	file, diags, err := g.Generate(graph, Request{Package: demoPkg, Types: []string{"Demo"}})
	require.NoError(t, err)
	require.True(t, diags.IsValid())
	requireParses(t, file)

	assert.Equal(t, "demo_serial.go", filepath.Base(file.Filename))
	assert.Equal(t, graph.Packages[demoPkg].Dir, filepath.Dir(file.Filename))

	src := string(file.Content)
	assert.True(t, strings.HasPrefix(src, "// Code generated by serialcompat-gen. DO NOT EDIT.\n"))
	assert.Contains(t, src, "package demo\n")
	assert.Contains(t, src, `"serialcompat/fields"`)
	assert.Contains(t, src, "fields.Register(fields.MustDefine[Demo](")
	assert.Contains(t, src, "func(x *Demo) (any, bool) { return x.name, true }")
	assert.Contains(t, src, "func(x *Demo, v any) error { return fields.Assign(&x.flags, v) }")
	assert.NotContains(t, src, "fields.Embed(")

	// Field order follows declaration order.
	assert.Less(t, strings.Index(src, `"ID"`), strings.Index(src, `"name"`))
	assert.Less(t, strings.Index(src, `"name"`), strings.Index(src, `"flags"`))
	assert.Less(t, strings.Index(src, `"flags"`), strings.Index(src, `"computed"`))
}

func TestGenerator_Shadow(t *testing.T) {
	graph := load(t, shadowPkg)

	core, logs := observer.New(zap.WarnLevel)
	g := NewGenerator(GeneratorConfig{}, zap.New(core))

	file, diags, err := g.Generate(graph, Request{Package: shadowPkg, Types: []string{"Derived"}, Output: "out.go"})
	require.NoError(t, err)
	requireParses(t, file)

	assert.Equal(t, "out.go", filepath.Base(file.Filename))
	assert.Len(t, diags.Warnings, 2)
	assert.Equal(t, 2, logs.FilterMessageSnippet("declared 3 times").Len())

	src := string(file.Content)
	assert.Contains(t, src, `"serialcompat/examples/shadow/base"`)
	assert.Contains(t, src, `fields.Embed("Base", fields.MustFor[base.Base](), func(x *Derived, alloc bool) *base.Base {`)
	assert.Contains(t, src, "return &x.Base")
	assert.Contains(t, src, `[]string{"Middle"}`)
	assert.Contains(t, src, `fields.TypeID{PkgPath: "serialcompat/examples/shadow", Name: "Middle"}`)
	assert.Contains(t, src, "x.Middle = new(Middle)")
	assert.Contains(t, src, "return fields.Assign(&x.Middle.note, v)")
	assert.Contains(t, src, "func(x *Derived) (any, bool) { return x.x, true }")
	assert.NotContains(t, src, "restores")

	// The embed is declared before the accessors of the same table.
	assert.Less(t, strings.Index(src, "fields.Embed("), strings.Index(src, "fields.Own("))
}

func TestGenerator_AliasClash(t *testing.T) {
	graph := load(t, clashPkg)

	g := NewGenerator(DefaultGeneratorConfig(), nil)
	file, _, err := g.Generate(graph, Request{Package: clashPkg, Types: []string{"Record"}})
	require.NoError(t, err)
	requireParses(t, file)

	src := string(file.Content)
	assert.Contains(t, src, `serialfields "serialcompat/fields"`)
	assert.Contains(t, src, `base3 "serialcompat/examples/shadow/base"`)
	assert.Contains(t, src, "serialfields.MustFor[base3.Base]()")
	assert.Contains(t, src, "func(x *Record, alloc bool) *base3.Base {")
	assert.Contains(t, src, "if !alloc {")
	assert.Contains(t, src, "x.Base = new(base3.Base)")
	assert.Contains(t, src, "return x.Base\n")
}

func TestGenerator_Errors(t *testing.T) {
	graph := load(t, clashPkg)
	g := NewGenerator(DefaultGeneratorConfig(), nil)

	_, diags, err := g.Generate(graph, Request{Package: clashPkg, Types: []string{"Spec"}})
	require.Error(t, err)
	assert.True(t, diags.HasErrors())

	_, _, err = g.Generate(graph, Request{Package: clashPkg, Types: []string{"Missing"}})
	require.Error(t, err)

	_, _, err = g.Generate(graph, Request{Package: clashPkg})
	require.Error(t, err)

	_, _, err = g.Generate(graph, Request{Package: "serialcompat/unknown", Types: []string{"T"}})
	require.Error(t, err)
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(dir, "abs", "a.go")

	files := []GeneratedFile{
		{Filename: "rel/b.go", Content: []byte("package b\n")},
		{Filename: abs, Content: []byte("package a\n")},
	}

	require.NoError(t, WriteFiles(files, dir))

	got, err := os.ReadFile(filepath.Join(dir, "rel", "b.go"))
	require.NoError(t, err)
	assert.Equal(t, "package b\n", string(got))

	got, err = os.ReadFile(abs)
	require.NoError(t, err)
	assert.Equal(t, "package a\n", string(got))
}
