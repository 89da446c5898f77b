// Package syntax parses source files into a language-agnostic syntax tree.
//
// Each supported language (Python, JavaScript, Go) has a tree-sitter front
// end whose grammar-specific node types collapse into one closed Kind
// vocabulary at the adapter boundary, so downstream analyzers never see
// language-specific trees. Parsing is a pure function of the input text:
// it performs no I/O and tolerates recoverable syntax errors, failing with
// a ParseError only when the tree is unusable.
package syntax
