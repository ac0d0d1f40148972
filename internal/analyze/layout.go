package analyze

import (
	"fmt"
	"go/types"
	"slices"
	"strings"

	"github.com/samber/lo"

	"serialcompat/fields"
	"serialcompat/internal/common"
	"serialcompat/internal/diagnostic"
	"serialcompat/internal/match"
)

// Guard is a nil embedded pointer on the way to a field. Readers stop at it,
// writers allocate it.
type Guard struct {
	Selector string // Expression of the pointer, e.g. "x.Middle"
	New      string // Type to allocate, spelled in the root's package
}

// Accessor is a field reachable with a plain selector from the root type.
type Accessor struct {
	Field     string
	Exported  bool
	Declaring TypeID   // Zero when the root type declares the field
	Path      []string // Embedded fields leading to the declaring struct
	Selector  string   // e.g. "x.Middle.note"
	Guards    []Guard
}

// Embed is a struct embedded from another package. Its fields come from that
// type's own table.
type Embed struct {
	Type     TypeID
	Package  string   // Name of the package declaring Type
	Path     []string // Embedded fields up to and including this one
	Selector string   // Expression of the embedded field
	Pointer  bool     // Whether the embedded field is a pointer
	Guards   []Guard  // Local pointers leading to the embedded field
}

// Part is one entry of a Layout: exactly one of Accessor and Embed is set.
type Part struct {
	Accessor *Accessor
	Embed    *Embed
}

// Layout is the flattened field order of a struct type as generated code
// must declare it.
type Layout struct {
	Root  TypeID
	Parts []Part
	// Descriptors are the resolved descriptors of every persisted field,
	// including those of embeds from other packages.
	Descriptors []fields.Descriptor
}

// Imports returns the packages the layout's embeds live in, sorted.
func (l *Layout) Imports() []string {
	var paths []string
	for _, p := range l.Parts {
		if p.Embed != nil {
			paths = append(paths, p.Embed.Type.PkgPath)
		}
	}

	paths = lo.Uniq(paths)
	slices.Sort(paths)

	return paths
}

type layoutWalker struct {
	root   TypeID
	pkg    *types.Package
	layout *Layout
	found  []fields.Descriptor
	diags  *diagnostic.Diagnostics
	active map[TypeID]bool
}

// Layout computes the flattened layout of struct type id. Problems are
// reported to diags; a nil layout is returned when no table can be
// generated for the type.
func (g *TypeGraph) Layout(id TypeID, diags *diagnostic.Diagnostics) *Layout {
	info := g.GetType(id)

	switch {
	case info == nil:
		diags.AddSuggested(diagnostic.CodeNotFound, "type not found", id.String(), g.similarStructs(id))
		return nil
	case info.Kind != TypeKindStruct:
		diags.AddError(diagnostic.CodeNotStruct, "type is not a struct (kind: "+info.Kind.String()+")", id.String(), "")
		return nil
	case info.Generic:
		diags.AddError(diagnostic.CodeGeneric, "generic types have no static field table", id.String(), "")
		return nil
	}

	named, ok := info.GoType.(*types.Named)
	if !ok {
		diags.AddError(diagnostic.CodeNotStruct, "type has no declaration", id.String(), "")
		return nil
	}

	w := &layoutWalker{
		root:   id,
		pkg:    named.Obj().Pkg(),
		layout: &Layout{Root: id},
		diags:  diags,
		active: map[TypeID]bool{id: true},
	}

	before := len(diags.Errors)

	w.walk(named.Underlying().(*types.Struct), id, nil, "x", nil, true)

	if len(diags.Errors) > before {
		return nil
	}

	ds, err := fields.Resolve(id, w.found)
	if err != nil {
		diags.AddError(diagnostic.CodeDuplicated, err.Error(), id.String(), "")
		return nil
	}

	w.layout.Descriptors = ds
	w.reportShadowed()

	return w.layout
}

// similarStructs proposes struct types of id's package named like id.
func (g *TypeGraph) similarStructs(id TypeID) []string {
	pkg, ok := g.Packages[id.PkgPath]
	if !ok {
		return nil
	}

	names := lo.FilterMap(pkg.Types, func(t TypeID, _ int) (string, bool) {
		info := g.GetType(t)
		return t.Name, info != nil && info.Kind == TypeKindStruct
	})

	return match.Suggest(id.Name, names, 3, match.DefaultThreshold)
}

// walk visits the fields of st, declared by declaring. With inline set it
// records parts; otherwise it only records entries for shadow detection.
func (w *layoutWalker) walk(st *types.Struct, declaring TypeID, path []string, selector string, guards []Guard, inline bool) {
	for i := range st.NumFields() {
		f := st.Field(i)
		key := strings.Join(common.Append(path, f.Name()), ".")

		if fields.IsTypeLevel(f.Name(), st.Tag(i)) {
			if inline && f.Name() != "_" {
				w.diags.AddInfo(diagnostic.CodeTypeLevel, "type-level field is never persisted", w.root.String(), key)
			}

			continue
		}

		if named, ptr, ok := embeddedStruct(f); ok {
			id := TypeID{PkgPath: named.Obj().Pkg().Path(), Name: named.Obj().Name()}
			if !w.active[id] {
				if named.TypeArgs().Len() > 0 {
					w.diags.AddError(diagnostic.CodeGeneric, "embedded generic type "+id.String()+" is not supported", w.root.String(), key)
					continue
				}

				w.active[id] = true
				w.embed(named, id, ptr, common.Append(path, f.Name()), selector+"."+f.Name(), guards, inline)
				delete(w.active, id)

				continue
			}
		}

		w.found = append(w.found, fields.Descriptor{
			Field:     f.Name(),
			Exported:  f.Exported(),
			Declaring: declaring,
			Path:      path,
		})

		if !inline {
			continue
		}

		acc := &Accessor{
			Field:    f.Name(),
			Exported: f.Exported(),
			Path:     path,
			Selector: selector + "." + f.Name(),
			Guards:   guards,
		}
		if declaring != w.root {
			acc.Declaring = declaring
		}

		w.layout.Parts = append(w.layout.Parts, Part{Accessor: acc})
	}
}

// embed descends into an embedded struct: inline when it shares the root's
// package, as an Embed part otherwise.
func (w *layoutWalker) embed(named *types.Named, id TypeID, ptr bool, path []string, selector string, guards []Guard, inline bool) {
	st := named.Underlying().(*types.Struct)
	local := named.Obj().Pkg() == w.pkg

	if ptr && local {
		guards = common.Append(guards, Guard{Selector: selector, New: id.Name})
	}

	if inline && !local {
		w.layout.Parts = append(w.layout.Parts, Part{Embed: &Embed{
			Type:     id,
			Package:  named.Obj().Pkg().Name(),
			Path:     path,
			Selector: selector,
			Pointer:  ptr,
			Guards:   guards,
		}})
	}

	w.walk(st, id, path, selector, guards, inline && local)
}

// reportShadowed warns about identifiers persisted under a qualified key.
func (w *layoutWalker) reportShadowed() {
	byField := lo.GroupBy(w.layout.Descriptors, func(d fields.Descriptor) string { return d.Field })

	for _, d := range w.layout.Descriptors {
		if !d.Shadowed {
			continue
		}

		keys := lo.Map(byField[d.Field], func(o fields.Descriptor, _ int) string { return o.Name })
		w.diags.AddWarning(diagnostic.CodeShadowed,
			fmt.Sprintf("identifier %q is declared %d times (%s); persisted as %q", d.Field, len(keys), strings.Join(keys, ", "), d.Name),
			w.root.String(), d.Name)
	}
}

// embeddedStruct reports whether f embeds a named struct, directly or by pointer.
func embeddedStruct(f *types.Var) (*types.Named, bool, bool) {
	if !f.Embedded() {
		return nil, false, false
	}

	t, ptr := types.Unalias(f.Type()), false
	if p, ok := t.(*types.Pointer); ok {
		t, ptr = types.Unalias(p.Elem()), true
	}

	named, ok := t.(*types.Named)
	if !ok {
		return nil, false, false
	}

	_, ok = named.Underlying().(*types.Struct)

	return named, ptr, ok
}
