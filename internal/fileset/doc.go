// Package fileset expands CLI path arguments into the ordered list of
// analyzable source files, applying include/exclude glob filters.
package fileset
