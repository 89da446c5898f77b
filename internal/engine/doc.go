// Package engine composes the per-file analysis pipeline and fans it out
// over a bounded worker pool.
//
// One file flows through parse, then the enabled analyzers (security,
// taint, metrics, semantic), then per-file normalization. A parse failure
// skips the file without aborting the batch; a panic inside one analyzer
// degrades that stage to zero findings and records the failure on the
// file's stage list. The assembled [Report] is the only coupling surface
// for formatters and policy gates.
package engine
