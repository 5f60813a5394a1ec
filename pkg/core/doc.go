// Package core implements the observable list proxy and the value
// marshalling layer of oblist.
//
// It presents an ordered, mutable, randomly-accessible sequence (List) over
// a single-column table handle supplied by a storage engine, and moves
// values between dynamically-typed callers and the engine's fixed set of
// storage primitives.
//
// # Key Components
//
//   - List: the observable collection proxy; every mutation is bracketed by
//     paired will-change/did-change notifications.
//   - Registry/Sink/Token: the change notification machinery. Index sets are
//     computed before the mutation runs, and DidChange fires on every exit
//     path, so observers always see matching pairs.
//   - ColumnType dispatch: each column holds exactly one concrete primitive
//     (int, bool, float, double, string, binary, timestamp); the dispatcher
//     is an exhaustive switch, and the untyped "mixed" kind always fails
//     with ErrUnsupportedType.
//   - Accessor: the per-operation marshalling context, including schema
//     defaults, relationship resolution by primary key, and the wrap
//     operations that lift engine handles into Lists, Results and Objects.
//
// Engine handles come from pkg/engine; this package only consumes the
// narrow Table, Session and RecordStore interfaces and never manages
// transactions itself.
package core
