package analyze

import (
	"go/types"
	"reflect"

	"serialcompat/fields"
	"serialcompat/internal/common"
)

// TypeID uniquely identifies a type by its package path and name.
type TypeID = fields.TypeID

// TypeKind represents the kind of a named type.
type TypeKind int

const (
	TypeKindUnknown TypeKind = iota
	TypeKindStruct           // struct type
	TypeKindOther            // any other named type (basic, slice, map, ...)
)

// String returns a human-readable representation of the TypeKind.
func (k TypeKind) String() string {
	switch k {
	case TypeKindStruct:
		return "struct"
	case TypeKindOther:
		return "other"
	default:
		return common.UnknownStr
	}
}

// TypeInfo describes a named type of a loaded package.
type TypeInfo struct {
	ID      TypeID      // Unique identifier
	Kind    TypeKind    // Kind of type
	Fields  []FieldInfo // For structs, the declared fields in order
	Generic bool        // True if the type has type parameters
	GoType  types.Type  // The original go/types.Type
}

// FieldInfo describes a declared struct field.
type FieldInfo struct {
	Name      string            // Go field name ("_" for blank fields)
	Exported  bool              // Whether the field is exported
	Type      string            // Field type relative to the declaring package
	Tag       reflect.StructTag // Raw struct tag
	Embedded  bool              // Whether the field is embedded (anonymous)
	Pointer   bool              // For embedded fields, whether it embeds *T
	Struct    *TypeID           // For embedded fields, the named struct embedded, if any
	Generic   bool              // For embedded fields, whether the embedded type is instantiated
	TypeLevel bool              // Blank or tagged serial:"-"; never persisted
	Index     int               // Field index in the struct
}

// TypeGraph holds all analyzed types from loaded packages.
type TypeGraph struct {
	// Types maps TypeID to TypeInfo for all named types.
	Types map[TypeID]*TypeInfo
	// Packages maps package paths to their package info.
	Packages map[string]*PackageInfo
}

// NewTypeGraph creates a new empty TypeGraph.
func NewTypeGraph() *TypeGraph {
	return &TypeGraph{
		Types:    make(map[TypeID]*TypeInfo),
		Packages: make(map[string]*PackageInfo),
	}
}

// GetType returns the TypeInfo for a given TypeID, or nil if not found.
func (g *TypeGraph) GetType(id TypeID) *TypeInfo {
	return g.Types[id]
}

// PackageInfo holds information about a loaded package.
type PackageInfo struct {
	Path  string       // Import path
	Name  string       // Package name
	Dir   string       // Directory of the package's Go files
	Types []TypeID     // Named types defined in this package
	Scope *types.Scope // Package scope, to avoid identifier clashes in generated code
}

// Declares reports whether the package declares a package-level identifier.
func (p *PackageInfo) Declares(name string) bool {
	return p.Scope != nil && p.Scope.Lookup(name) != nil
}
