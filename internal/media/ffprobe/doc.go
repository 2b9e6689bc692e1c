// Package ffprobe runs ffprobe against resource payloads and exposes the
// fields the resource graph cares about: playable duration, stream kinds and
// frame size.
//
// Inspect executes the binary; Parse decodes captured output so callers and
// tests can work without ffprobe installed.
package ffprobe
