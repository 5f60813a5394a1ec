// Package oblist provides observable, persisted typed lists over SQLite.
//
// oblist is a 100% pure Go library for programs that want ordered, mutable,
// single-typed collections that outlive the process. Built on SQLite using
// modernc.org/sqlite (no cgo required), it stores each collection as a
// single-column table and layers an observable list proxy on top: every
// mutation is announced to an optional observer as a paired
// will-change/did-change bracket carrying the change kind and the affected
// indexes.
//
// # Key Features
//
//   - Typed columns - int, bool, float, double, string, binary and timestamp
//     values with strict conversion at the boundary.
//   - Change notifications - paired will/did brackets around every mutation,
//     built lazily so unobserved lists pay nothing.
//   - Invalidation - dropping a column or closing the store detaches live
//     handles; reads turn empty, mutations fail cleanly.
//   - Object records - schema-described records with primary keys, defaults
//     and optional properties, resolved through a marshalling accessor.
//   - In-memory engine - the same semantics without a database file, for
//     tests and ephemeral collections.
//
// # Quick Start
//
//	import "github.com/liliang-cn/oblist"
//
//	func main() {
//	    // 1. Open a database with default configuration
//	    db, _ := oblist.Open(context.Background(), oblist.DefaultConfig("lists.db"))
//	    defer db.Close()
//
//	    // 2. Open a typed list and mutate it
//	    tags, _ := db.OpenList("tags", oblist.ColumnString)
//	    tags.Append("go")
//	    tags.Append("sqlite")
//	    tags.Insert(1, "storage")
//	}
//
// # Observing Changes
//
//	token, _ := tags.Observe(mySink)
//	tags.RemoveAt(0) // mySink gets WillChange and DidChange around the removal
//	token.Cancel()
//
// # Object Records
//
// Schema-described records travel through an accessor that converts caller
// values, applies defaults, and resolves primary keys:
//
//	acc, _ := db.Accessor([]*oblist.ObjectSchema{personSchema}, "Person", true)
//	obj, _ := acc.AddObject(map[string]any{"name": "ada", "age": 36}, "Person", false)
//
// For lower-level control (transactions, custom loggers, the in-memory
// engine), use pkg/engine and pkg/core directly. See the examples/ directory
// for complete programs.
package oblist
