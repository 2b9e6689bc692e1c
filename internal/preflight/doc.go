// Package preflight provides readiness checks for the project directories,
// external binaries and remote storage that reelforge depends on.
//
// The CLI "reelforge preflight" command runs every applicable check and
// prints the results. Publishing commands run the storage check before
// uploading so a misconfigured backend fails fast.
//
// Each check is gated by its config toggle; disabled features are skipped.
package preflight
