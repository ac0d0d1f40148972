package analyze

import (
	"go/types"
	"path/filepath"
	"reflect"

	"github.com/cockroachdb/errors"
	"golang.org/x/tools/go/packages"

	"serialcompat/fields"
)

// LoadMode specifies what information to load from packages.
const LoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedImports

// Analyzer loads Go packages and builds a type graph.
type Analyzer struct {
	graph *TypeGraph
	dir   string
}

// NewAnalyzer creates a new Analyzer resolving patterns from the working directory.
func NewAnalyzer() *Analyzer {
	return &Analyzer{graph: NewTypeGraph()}
}

// InDir makes the analyzer resolve relative patterns from dir.
func (a *Analyzer) InDir(dir string) *Analyzer {
	a.dir = dir
	return a
}

// LoadPackages loads the specified packages and builds the type graph.
// Patterns are standard Go package patterns (e.g., "./examples/demo", "serialcompat/examples/shadow").
// It returns the import paths of the packages the patterns matched.
func (a *Analyzer) LoadPackages(patterns ...string) (*TypeGraph, []string, error) {
	cfg := &packages.Config{
		Mode: LoadMode,
		Dir:  a.dir,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to load packages")
	}

	// Check for package errors
	var errs []error
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, e)
		}
	}
	if len(errs) > 0 {
		return nil, nil, errors.Newf("package errors: %v", errs)
	}

	var loaded []string

	for _, pkg := range pkgs {
		a.processPackage(pkg)
		loaded = append(loaded, pkg.PkgPath)
	}

	return a.graph, loaded, nil
}

// Graph returns the current type graph.
func (a *Analyzer) Graph() *TypeGraph {
	return a.graph
}

// processPackage extracts named types from a loaded package.
func (a *Analyzer) processPackage(pkg *packages.Package) {
	pkgInfo := &PackageInfo{
		Path:  pkg.PkgPath,
		Name:  pkg.Name,
		Scope: pkg.Types.Scope(),
	}

	if len(pkg.GoFiles) > 0 {
		pkgInfo.Dir = filepath.Dir(pkg.GoFiles[0])
	}

	scope := pkg.Types.Scope()
	for _, name := range scope.Names() {
		// Only process type names (not variables, constants, functions),
		// exported or not: generated code lives in the same package.
		typeName, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || typeName.IsAlias() {
			continue
		}

		named, ok := typeName.Type().(*types.Named)
		if !ok {
			continue
		}

		info := a.analyzeNamed(named)
		a.graph.Types[info.ID] = info
		pkgInfo.Types = append(pkgInfo.Types, info.ID)
	}

	a.graph.Packages[pkg.PkgPath] = pkgInfo
}

// analyzeNamed builds the TypeInfo of a named type.
func (a *Analyzer) analyzeNamed(named *types.Named) *TypeInfo {
	obj := named.Obj()
	info := &TypeInfo{
		ID:      TypeID{PkgPath: obj.Pkg().Path(), Name: obj.Name()},
		Kind:    TypeKindOther,
		Generic: named.TypeParams().Len() > 0,
		GoType:  named,
	}

	st, ok := named.Underlying().(*types.Struct)
	if !ok {
		return info
	}

	info.Kind = TypeKindStruct
	qualifier := types.RelativeTo(obj.Pkg())

	for i := range st.NumFields() {
		field := st.Field(i)
		tag := st.Tag(i)

		fieldInfo := FieldInfo{
			Name:      field.Name(),
			Exported:  field.Exported(),
			Type:      types.TypeString(field.Type(), qualifier),
			Tag:       reflect.StructTag(tag),
			Embedded:  field.Embedded(),
			TypeLevel: fields.IsTypeLevel(field.Name(), tag),
			Index:     i,
		}

		if field.Embedded() {
			a.analyzeEmbedded(field.Type(), &fieldInfo)
		}

		info.Fields = append(info.Fields, fieldInfo)
	}

	return info
}

// analyzeEmbedded records which named struct, if any, an embedded field promotes.
func (a *Analyzer) analyzeEmbedded(t types.Type, f *FieldInfo) {
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
		f.Pointer = true
	}

	named, ok := t.(*types.Named)
	if !ok {
		return
	}

	if _, ok := named.Underlying().(*types.Struct); !ok {
		return
	}

	obj := named.Obj()
	f.Struct = &TypeID{PkgPath: obj.Pkg().Path(), Name: obj.Name()}
	f.Generic = named.TypeArgs().Len() > 0
}

// GetStruct returns the TypeInfo for a named, non-generic struct.
func (g *TypeGraph) GetStruct(pkgPath, typeName string) (*TypeInfo, error) {
	id := TypeID{PkgPath: pkgPath, Name: typeName}
	info := g.GetType(id)
	if info == nil {
		return nil, errors.Newf("type %s not found", id)
	}
	if info.Kind != TypeKindStruct {
		return nil, errors.Newf("type %s is not a struct (kind: %s)", id, info.Kind)
	}
	if info.Generic {
		return nil, errors.Newf("type %s is generic", id)
	}
	return info, nil
}
