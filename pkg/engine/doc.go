// Package engine provides the storage backends behind oblist's collection
// proxies: a SQLite-backed store (modernc.org/sqlite, no CGO) that persists
// lists and records to a single database file, and an in-memory store with
// identical semantics for tests and ephemeral use.
//
// Both implement the core.Session, core.Table and core.RecordStore
// interfaces consumed by pkg/core. Handles returned by a store stay valid
// until the list is dropped or the store is closed; after that they are
// detached and every operation on them reports core.ErrInvalidated.
package engine
