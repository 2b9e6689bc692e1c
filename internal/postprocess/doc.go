// Package postprocess runs the ordered chain of extension post-processors
// that transform resources at import, group creation and preview time.
//
// A processor implements any subset of ImportHook, GroupHook and
// PreviewHook. The Pipeline feeds each hook the output of the previous
// processor; a processor that returns nil passes its input through. Hooks
// work on clones, so an error anywhere leaves the caller's items untouched
// and nothing is persisted. Operations processors record on files are
// returned as journal entries for the caller to write once the result is
// stored.
//
// Built-in processors, in registration order: probe, av1, poster and
// preview-redirect.
package postprocess
