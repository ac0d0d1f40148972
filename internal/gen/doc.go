// Package gen renders static field tables for struct types.
//
// Generation approach uses text/template + go/format for readable Go code
// that calls the fields package from an init function.
//
// Codegen patterns:
//   - Direct field selectors for fields of the root type and of embedded
//     structs of the same package
//   - Nil checks on embedded pointers: readers stop, writers allocate
//   - Embeds of other packages' structs delegating to their own tables
package gen
