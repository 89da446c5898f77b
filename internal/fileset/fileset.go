package fileset

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/clay-good/reviewr/internal/syntax"
)

// maxFileBytes is the per-file size limit; larger files are skipped.
const maxFileBytes = 1 << 20 // 1MB

// skipDirs are directory names never descended into.
var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	"dist":         true,
	"build":        true,
}

// Options filters the expansion.
type Options struct {
	Include []string // glob patterns; empty means everything
	Exclude []string
}

// File is one selected source file.
type File struct {
	Path     string
	Language syntax.Language
}

// Expand resolves each argument to the source files under it. Directories
// are walked recursively; explicit file arguments bypass the language and
// include filters but not excludes. The result is sorted by path so the
// same inputs always produce the same order.
func Expand(paths []string, opts Options) ([]File, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	seen := make(map[string]bool)
	var files []File

	add := func(path string, lang syntax.Language) {
		path = filepath.Clean(path)
		if seen[path] {
			return
		}
		seen[path] = true
		files = append(files, File{Path: path, Language: lang})
	}

	for _, arg := range paths {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}

		if !info.IsDir() {
			if MatchesAny(arg, opts.Exclude) {
				continue
			}
			lang := syntax.Detect(arg)
			if lang == "" {
				return nil, fmt.Errorf("%s: unsupported file type", arg)
			}
			add(arg, lang)
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			name := d.Name()
			if d.IsDir() {
				if path != arg && (skipDirs[name] || strings.HasPrefix(name, ".")) {
					return filepath.SkipDir
				}
				return nil
			}
			lang := syntax.Detect(path)
			if lang == "" {
				return nil
			}
			if len(opts.Include) > 0 && !MatchesAny(path, opts.Include) {
				return nil
			}
			if MatchesAny(path, opts.Exclude) {
				return nil
			}
			if fi, err := d.Info(); err == nil && fi.Size() > maxFileBytes {
				return nil
			}
			add(path, lang)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", arg, err)
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// MatchesAny reports whether the path matches any of the glob patterns.
// A "**/" prefix also matches against the basename and the bare pattern,
// so "**/*_test.py" excludes test files at any depth. A trailing "/**"
// matches everything under the named directory, since filepath.Match
// alone never crosses a path separator.
func MatchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
			if path == prefix || strings.HasPrefix(path, prefix+"/") {
				return true
			}
			continue
		}
		matched, err := filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
		clean := strings.TrimPrefix(pattern, "**/")
		if clean != pattern {
			matched, err = filepath.Match(clean, filepath.Base(path))
			if err == nil && matched {
				return true
			}
			matched, err = filepath.Match(clean, path)
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}
