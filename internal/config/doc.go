// Package config loads, normalizes, and validates reelforge configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads an optional .env file beside the config,
// and honours environment fallbacks such as REELFORGE_REMOTE_TOKEN. The Config
// type centralizes every knob the graph store, release manager and publish
// pipeline need, so project, media and build directories plus remote storage
// credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical formats, and clear validation errors.
package config
