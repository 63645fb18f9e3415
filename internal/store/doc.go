// Package store provides the key-value persistence layer for tiffin.
//
// Every piece of application state (menu, cart, sales ledger, checkout
// session) lives under its own string key as a JSON document. Two backends
// implement the byte-level KV contract:
//
//   - Store: a SQLite file with a single kv table
//   - Memory: a map, for tests and throwaway sessions
//
// Adapter sits on top of either backend and speaks Go values:
//
//   - Get falls back to the caller's default on absent, unreadable or
//     unparsable data and logs a PersistenceError instead of returning it
//   - Set encodes with MarshalCanonical so identical state is byte-identical
//     on disk, which keeps golden files and backups stable
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - one open connection: single writer, and ":memory:" stays one database
//
// Schema changes ship as numbered files under migrations/ and are applied
// by golang-migrate on Open.
//
// There are no transactions across keys. Two processes writing the same
// database race; the last writer wins.
package store
