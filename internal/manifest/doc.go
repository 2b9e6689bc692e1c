// Package manifest assembles the per-episode manifests consumed by players
// and previews: the episode, its ordered assets with their client-facing
// specs, and the resource list rewritten for one profile.
package manifest
