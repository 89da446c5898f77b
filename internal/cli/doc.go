// Package cli wires together the Cobra command tree for the reviewr binary.
//
// It defines the root command and all subcommands (analyze, watch, catalog,
// cache, config, version), binds flags, reads configuration, invokes the analysis
// engine, and returns deterministic exit codes for CI gating.
package cli
