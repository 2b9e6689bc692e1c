// Package ingest imports files from disk into the resource graph.
//
// Payloads are copied into the project in parallel, bounded by
// workers.import. Graph writes then happen one file at a time so each file
// settles independently: a failure is reported in that file's Outcome and
// never aborts the rest of the batch.
package ingest
