// Package security walks the adapted tree matching structural and textual
// vulnerability signatures: injection via concatenation or formatting,
// weak cryptography, hard-coded credentials, swallowed exceptions, and
// insecure deserialization.
//
// Rules are registered once in a fixed order; each carries a fixed
// severity and a stable identifier. Traversal order never affects which
// findings are produced, only the display tie-break between findings that
// start on the same line, where the earlier-registered rule wins.
package security
