package fields

import (
	"reflect"
	"strings"
)

// TagKey is the struct tag consulted for field options.
const TagKey = "serial"

// TypeID identifies a type by its package path and name.
type TypeID struct {
	PkgPath string // e.g., "serialcompat/examples/demo"
	Name    string // e.g., "Demo"
}

// String returns a human-readable representation of the TypeID.
func (t TypeID) String() string {
	if t.PkgPath == "" {
		return t.Name
	}

	return t.PkgPath + "." + t.Name
}

// TypeIDOf returns the TypeID of a reflected type.
func TypeIDOf(t reflect.Type) TypeID {
	return TypeID{PkgPath: t.PkgPath(), Name: t.Name()}
}

// Visibility is the access level of a field relative to the type being serialized.
type Visibility int

//go:generate go tool stringer -type=Visibility -linecomment -output=visibility_string.go

const (
	VisibilityPublic    Visibility = iota // public
	VisibilityProtected                   // protected
	VisibilityPrivate                     // private
)

// visibilityOf classifies a field: exported fields are public, unexported
// fields declared in the root's package are protected (the root's methods can
// reach them), anything else is private to its declaring package.
func visibilityOf(exported bool, declaring, root TypeID) Visibility {
	switch {
	case exported:
		return VisibilityPublic
	case declaring.PkgPath == root.PkgPath:
		return VisibilityProtected
	default:
		return VisibilityPrivate
	}
}

// Descriptor identifies one persistable field of a type.
type Descriptor struct {
	// Name is the payload key, unique within the type's table.
	Name string
	// Field is the Go identifier as declared.
	Field string
	// Exported reports whether Field is an exported identifier.
	Exported bool
	// Visibility is computed relative to the table's root type.
	Visibility Visibility
	// Declaring is the struct type that declares the field.
	Declaring TypeID
	// Path holds the names of the embedded fields leading to the declaring struct.
	Path []string
	// Shadowed is set when Name had to be qualified by Path.
	Shadowed bool
}

// Depth is the embedding depth of the field, 0 for fields of the root type.
func (d Descriptor) Depth() int {
	return len(d.Path)
}

// Qualified returns the embedding path joined with the field name.
func (d Descriptor) Qualified() string {
	if len(d.Path) == 0 {
		return d.Field
	}

	return strings.Join(d.Path, ".") + "." + d.Field
}

// String returns the declaring type and field, e.g. "demo.Demo.name".
func (d Descriptor) String() string {
	return d.Declaring.String() + "." + d.Field
}

// isTypeLevel reports whether a struct field belongs to the type rather than
// to its instances.
func isTypeLevel(name string, tag reflect.StructTag) bool {
	return name == "_" || tag.Get(TagKey) == "-"
}

// IsTypeLevel is exported for the static analyzer, which sees raw tags.
func IsTypeLevel(name, tag string) bool {
	return isTypeLevel(name, reflect.StructTag(tag))
}
