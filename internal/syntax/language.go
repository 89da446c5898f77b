package syntax

import (
	"path/filepath"
	"strings"
)

// Language identifies a supported source language front end.
type Language string

const (
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangGo         Language = "go"
)

// Supported returns true for languages the adapter has a front end for.
func Supported(lang Language) bool {
	switch lang {
	case LangPython, LangJavaScript, LangGo:
		return true
	}
	return false
}

// Detect guesses the language from a file path. Returns "" when the
// extension is not recognized.
func Detect(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py", ".pyw":
		return LangPython
	case ".js", ".mjs", ".cjs", ".jsx":
		return LangJavaScript
	case ".go":
		return LangGo
	}
	return ""
}

// ParseLanguage normalizes a user-supplied language name. Returns "" for
// unknown names.
func ParseLanguage(s string) Language {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "python", "py":
		return LangPython
	case "javascript", "js", "node":
		return LangJavaScript
	case "go", "golang":
		return LangGo
	}
	return ""
}
