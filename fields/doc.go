// Package fields enumerates the persistable fields of struct types.
//
// Every struct type that takes part in serialization is described by a
// Table: an ordered list of fields, each carrying a Descriptor and a typed
// getter/setter pair that reaches the field whatever its visibility.
//
// Tables come from two places:
//   - generated code (serialcompat-gen) that calls Define in an init function
//     and registers the result
//   - Reflect, a fallback that builds the same table at runtime for types
//     without generated code
//
// Key rules:
//   - all instance fields are persisted, exported or not
//   - fields of embedded structs are promoted into the embedding type's table
//   - blank fields and fields tagged `serial:"-"` are type-level and skipped
//   - a field keeps its bare name when it is the one Go's selector resolves to,
//     every shadowed occurrence is qualified by its embedding path ("Base.x")
package fields
