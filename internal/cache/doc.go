// Package cache provides a file-based cache for per-file analysis results.
//
// Cache entries are keyed by a SHA-256 hash of the tool version, the
// configuration fingerprint, and the file content. Each entry stores the
// serialized file result along with a creation timestamp and a TTL (in
// seconds). Expired entries are skipped on read and removed during
// cache-clear operations.
//
// The default cache directory is $XDG_CACHE_HOME/reviewr (or the
// OS-appropriate equivalent). Because analysis is deterministic, a hit is
// always byte-identical to a fresh run of the same inputs.
package cache
