// Package semantic detects defects that are legal syntax but likely bugs:
// resources acquired without a release on every exit path, statements that
// can never execute after a terminal, and functions whose return statements
// disagree on shape.
package semantic
