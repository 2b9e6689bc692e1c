// Package docstore provides the project's embedded document store: named
// collections of JSON documents kept in a single SQLite file.
//
// Documents are addressed by (collection, id) and queried with small predicate
// values (Eq, Ne, Contains, Empty, In, Gte, Lte, Or) that compile down to
// SQLite's json_extract and json_each functions. Results come back in
// insertion order. A store can also be opened read-only, which is how release
// snapshots are served, and copied with Backup for media builds.
package docstore
