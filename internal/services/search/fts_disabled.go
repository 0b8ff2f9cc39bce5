//go:build !sqlite_fts5

package search

// BuiltWithFTS reports whether the binary was built with -tags sqlite_fts5
const BuiltWithFTS = false
