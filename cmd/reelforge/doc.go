// Package main hosts the reelforge CLI entrypoint and command graph.
//
// Each command loads the configuration, opens the project (which takes the
// project lock) and calls into the internal packages. Output is a rounded
// table on a terminal, tab-separated text when piped, and JSON with --json.
package main
