package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serialcompat/fields"
	"serialcompat/internal/diagnostic"
)

func loadLayout(t *testing.T, pkg, name string) (*Layout, *diagnostic.Diagnostics) {
	t.Helper()

	graph, _, err := NewAnalyzer().LoadPackages(pkg)
	require.NoError(t, err)

	diags := &diagnostic.Diagnostics{}

	return graph.Layout(TypeID{PkgPath: pkg, Name: name}, diags), diags
}

func TestLayout_Derived(t *testing.T) {
	layout, diags := loadLayout(t, shadowPkg, "Derived")
	require.NotNil(t, layout)
	require.True(t, diags.IsValid())
	require.Len(t, layout.Parts, 5)

	embed := layout.Parts[0].Embed
	require.NotNil(t, embed)
	assert.Equal(t, TypeID{PkgPath: basePkg, Name: "Base"}, embed.Type)
	assert.Equal(t, []string{"Base"}, embed.Path)
	assert.Equal(t, "x.Base", embed.Selector)
	assert.False(t, embed.Pointer)
	assert.Empty(t, embed.Guards)

	middleX := layout.Parts[1].Accessor
	require.NotNil(t, middleX)
	assert.Equal(t, "x", middleX.Field)
	assert.Equal(t, TypeID{PkgPath: shadowPkg, Name: "Middle"}, middleX.Declaring)
	assert.Equal(t, []string{"Middle"}, middleX.Path)
	assert.Equal(t, "x.Middle.x", middleX.Selector)
	assert.Equal(t, []Guard{{Selector: "x.Middle", New: "Middle"}}, middleX.Guards)

	assert.Equal(t, "x.Middle.note", layout.Parts[2].Accessor.Selector)

	own := layout.Parts[3].Accessor
	assert.Equal(t, "x.x", own.Selector)
	assert.Equal(t, TypeID{}, own.Declaring)
	assert.Empty(t, own.Guards)

	name := layout.Parts[4].Accessor
	assert.True(t, name.Exported)

	assert.Equal(t, []string{basePkg}, layout.Imports())

	names := make([]string, 0, len(layout.Descriptors))
	for _, d := range layout.Descriptors {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"ID", "Base.x", "tags", "Middle.x", "note", "x", "Name"}, names)
	assert.Equal(t, fields.VisibilityPrivate, layout.Descriptors[1].Visibility)
	assert.Equal(t, fields.VisibilityProtected, layout.Descriptors[3].Visibility)
	assert.Equal(t, fields.VisibilityPublic, layout.Descriptors[6].Visibility)
	assert.True(t, layout.Descriptors[1].Shadowed)
	assert.False(t, layout.Descriptors[5].Shadowed)

	// Base.x and Middle.x are shadowed by Derived.x.
	var shadowed []string
	for _, w := range diags.Warnings {
		assert.Equal(t, diagnostic.CodeShadowed, w.Code)
		shadowed = append(shadowed, w.Field)
	}
	assert.ElementsMatch(t, []string{"Base.x", "Middle.x"}, shadowed)

	require.Len(t, diags.Infos, 1)
	assert.Equal(t, diagnostic.CodeTypeLevel, diags.Infos[0].Code)
	assert.Equal(t, "restores", diags.Infos[0].Field)
}

func TestLayout_NestedEmbed(t *testing.T) {
	layout, diags := loadLayout(t, fixturePkg, "Outer")
	require.NotNil(t, layout)
	require.Len(t, layout.Parts, 4)

	embed := layout.Parts[0].Embed
	require.NotNil(t, embed)
	assert.Equal(t, []string{"Inner", "Base"}, embed.Path)
	assert.Equal(t, "x.Inner.Base", embed.Selector)
	assert.Equal(t, []Guard{{Selector: "x.Inner", New: "Inner"}}, embed.Guards)

	inner := layout.Parts[1].Accessor
	assert.Equal(t, "depth", inner.Field)
	assert.Equal(t, []string{"Inner"}, inner.Path)

	assert.Equal(t, "x.depth", layout.Parts[2].Accessor.Selector)
	assert.Equal(t, "Label", layout.Parts[3].Accessor.Field)

	require.Len(t, diags.Warnings, 1)
	assert.Equal(t, "Inner.depth", diags.Warnings[0].Field)

	var typeLevel []string
	for _, i := range diags.Infos {
		typeLevel = append(typeLevel, i.Field)
	}
	assert.ElementsMatch(t, []string{"Base", "cache"}, typeLevel)
}

func TestLayout_PointerEmbedFromOtherPackage(t *testing.T) {
	layout, diags := loadLayout(t, fixturePkg, "Remote")
	require.NotNil(t, layout)
	require.Len(t, layout.Parts, 2)

	embed := layout.Parts[0].Embed
	require.NotNil(t, embed)
	assert.True(t, embed.Pointer)
	assert.Equal(t, "x.Base", embed.Selector)
	assert.Empty(t, embed.Guards)

	require.Len(t, diags.Warnings, 1)
	assert.Equal(t, "Base.ID", diags.Warnings[0].Field)
}

func TestLayout_Errors(t *testing.T) {
	tests := []struct {
		name string
		typ  string
		code string
	}{
		{name: "generic type", typ: "Box", code: diagnostic.CodeGeneric},
		{name: "generic embed", typ: "Holder", code: diagnostic.CodeGeneric},
		{name: "not a struct", typ: "Count", code: diagnostic.CodeNotStruct},
		{name: "missing", typ: "Missing", code: diagnostic.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout, diags := loadLayout(t, fixturePkg, tt.typ)
			assert.Nil(t, layout)
			require.True(t, diags.HasErrors())
			assert.Equal(t, tt.code, diags.Errors[0].Code)
			require.Error(t, diags.Error())
		})
	}
}

func TestLayout_NotFoundSuggestions(t *testing.T) {
	_, diags := loadLayout(t, shadowPkg, "Dervied")
	require.True(t, diags.HasErrors())
	assert.Equal(t, []string{"Derived"}, diags.Errors[0].Suggestions)
	assert.Contains(t, diags.Error().Error(), "did you mean Derived?")
}
