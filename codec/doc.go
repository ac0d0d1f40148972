// Package codec captures and restores the full field state of struct values.
//
// Two payload generations are supported:
//   - Legacy: the ordered list of field names; values travel out of band and
//     are placed by the legacy persistence layer before CompleteLegacy runs
//   - Current: a name to value mapping produced by Snapshot and consumed by
//     RestoreCurrent
//
// Both paths end in the same reconstruction hook: types implementing
// OnRestored have it called exactly once after their persisted fields are in
// place. Restores are best-effort: a failing field aborts the call, and fields
// written before the failure stay written.
package codec
