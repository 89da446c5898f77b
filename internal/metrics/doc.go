// Package metrics computes per-function complexity metrics: cyclomatic
// and cognitive complexity, the Halstead suite, and the maintainability
// index. A record is produced for every analyzable unit; findings are
// emitted only when a metric crosses its configured threshold.
package metrics
