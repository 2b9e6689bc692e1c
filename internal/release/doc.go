// Package release manages the three independent release axes and resolves a
// bundle release back to the database snapshot it was built from.
//
// A code release is a copy of the packaged app artifact. A media release is
// a snapshot of every live payload plus a zipped copy of the project
// database. A bundle release binds one of each and is the unit the publish
// pipeline consumes. Release ids come from per-axis counters, so ids are
// strictly increasing within an axis.
package release
