// Package graph owns the resource graph: File and Group records, their
// membership links and the managed-file relationships between files.
//
// Every structural operation runs in two phases. It first stages the complete
// mutation set (records to write, records to delete, payloads to drop) in a
// Plan against an in-memory view of the store, running post-processors and
// managed-key propagation while staging. Only then is the plan applied.
// Application is sequential and not atomic: a failure part way leaves the
// records written so far in place, and CheckConsistency reports any
// group/file disagreement that results.
package graph
