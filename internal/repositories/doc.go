// Package repositories provides the persistence layer behind the sync form.
//
// # Key/Value Storage
//
// The [Store] interface is the storage adapter the form's credential store writes through:
// get, set and remove a string value by key. Two implementations exist:
//   - [MemoryStore] : process-local map, used by tests and the "memory" storage driver
//   - [KVRepository] : sqlite-backed kv_store table, the default "sqlite" driver
//
// Missing keys are reported with [ErrNotFound] so callers can tell "nothing stored" apart from failures.
//
// # Sync History
//
// [SyncRunRepository] records one row per submitted sync request in the sync_runs table.
// Rows hold timing and counts only; credentials never reach this table.
package repositories
