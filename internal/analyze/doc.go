// Package analyze provides package loading and struct field extraction.
//
// It uses golang.org/x/tools/go/packages with go/types to build an
// in-memory model of every named struct in the loaded packages, exported
// or not, and lays each one out the way fields.Reflect enumerates it at
// runtime.
//
// Key types:
//   - TypeID: package import path + type name (shared with package fields)
//   - TypeInfo: a named type with its kind and, for structs, its fields
//   - FieldInfo: field name, type, tag, embedding and type-level flag
//   - Layout: the flattened accessor and embed list of one struct
package analyze
