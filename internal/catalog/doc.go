// Package catalog holds the source/sink/sanitizer catalog consumed by the
// taint flow analyzer.
//
// The catalog is data, not code: a built-in default set can be extended
// with entries from a YAML file. It is loaded and validated once at engine
// start — a malformed entry is a fatal CatalogError, because silently
// analyzing with a broken catalog would produce misleading security
// results. After load the catalog is read-only and safe for concurrent use
// across file workers without locking.
package catalog
