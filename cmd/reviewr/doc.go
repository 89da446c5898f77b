// Reviewr is a local-first static analysis CLI for reviewing source code
// without network access.
//
// It parses supported languages into a uniform syntax tree and runs security
// pattern scanning, taint flow analysis, complexity metrics, and semantic
// defect detection, emitting structured findings with deterministic exit
// codes suitable for CI gating.
//
// Usage:
//
//	reviewr analyze                   # analyze the current directory
//	reviewr analyze src/ lib/app.py   # analyze specific paths
//	reviewr watch                     # re-analyze on file changes
//	reviewr catalog show              # list active taint catalog entries
//	reviewr catalog check rules.yaml  # validate a catalog file
//	reviewr config init               # write the default config file
//
// See https://github.com/clay-good/reviewr for full documentation.
package main
