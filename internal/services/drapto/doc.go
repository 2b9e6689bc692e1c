// Package drapto integrates the Drapto Go library so the av1 post-processor
// can transcode imported video payloads.
//
// It exposes an Encoder interface and a Library implementation that calls
// Drapto directly. Tests swap in fakes to avoid executing the real encoder
// while still exercising the import pipeline.
package drapto
