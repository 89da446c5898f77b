// Package finding defines the uniform finding model emitted by every
// analyzer, plus the normalizer that merges the per-analyzer streams into
// one ordered, deduplicated list.
//
// A Finding is created by exactly one analyzer and never mutated afterward.
// Dedupe collapses exact duplicates and near-duplicates (same file, close
// spans, same severity, high message similarity), always keeping the
// higher-confidence entry; findings from different files are never merged.
// Sort order is deterministic: severity descending, then path, then line.
package finding
