// Package match ranks identifiers by similarity to propose corrections for
// misspelled type and field names.
//
// Key functions:
//   - Normalize: folds case and strips separators
//   - Distance: computes edit distance between strings
//   - Suggest: returns the closest candidates to a name
package match
