// Package diagnostic provides structured warnings and errors for the
// field table generator.
//
// Key capabilities:
//   - Shadowed identifier reports with their qualified keys
//   - Type-level (never persisted) field notes
//   - Errors for types no table can be generated for
package diagnostic
