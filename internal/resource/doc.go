// Package resource defines the resource graph's record types.
//
// An Item is a tagged union: Type selects which of File or Group carries the
// variant fields. Items serialize to a single flat JSON object so the document
// store can query any field by name. The package also owns the versioned list
// of keys a controller file propagates to the files it manages.
package resource
