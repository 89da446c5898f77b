package finding

// DedupeOptions controls near-duplicate detection.
type DedupeOptions struct {
	// LineWindow is the maximum start-line distance between two findings
	// for them to be merge candidates.
	LineWindow int
	// Similarity is the minimum normalized message similarity (0..1) for
	// a near-duplicate merge.
	Similarity float64
}

// DefaultDedupeOptions returns the standard window and similarity cutoff.
func DefaultDedupeOptions() DedupeOptions {
	return DedupeOptions{LineWindow: 5, Similarity: 0.85}
}

// Dedupe collapses duplicate findings and returns the result in the
// deterministic display order.
//
// Exact duplicates (same file, span, severity, message) collapse to one.
// Near-duplicates (same file, start lines within the window, same
// severity, message similarity at or above the cutoff) collapse to the
// single higher-confidence entry; ties keep the first-seen. Findings from
// different files are never merged, so a true positive in one file can
// never be swallowed by a similar one elsewhere.
func Dedupe(findings []Finding, opts DedupeOptions) []Finding {
	if opts.LineWindow <= 0 {
		opts.LineWindow = DefaultDedupeOptions().LineWindow
	}
	if opts.Similarity <= 0 {
		opts.Similarity = DefaultDedupeOptions().Similarity
	}

	type exactKey struct {
		path     string
		lines    LineRange
		severity Severity
		message  string
	}

	seen := make(map[exactKey]bool, len(findings))
	kept := make([]Finding, 0, len(findings))
	for _, f := range findings {
		k := exactKey{f.Path, f.Lines, f.Severity, f.Message}
		if seen[k] {
			continue
		}
		seen[k] = true
		kept = append(kept, f)
	}

	// Near-duplicate pass over the exact-deduplicated list, preserving
	// first-seen order so ties resolve deterministically.
	dropped := make([]bool, len(kept))
	for i := 0; i < len(kept); i++ {
		if dropped[i] {
			continue
		}
		for j := i + 1; j < len(kept); j++ {
			if dropped[j] {
				continue
			}
			if !nearDuplicate(kept[i], kept[j], opts) {
				continue
			}
			// Keep the higher-confidence entry; first-seen wins ties.
			if kept[j].Confidence > kept[i].Confidence {
				kept[i] = kept[j]
			}
			dropped[j] = true
		}
	}

	out := make([]Finding, 0, len(kept))
	for i, f := range kept {
		if !dropped[i] {
			out = append(out, f)
		}
	}
	Sort(out)
	return out
}

func nearDuplicate(a, b Finding, opts DedupeOptions) bool {
	if a.Path != b.Path || a.Severity != b.Severity {
		return false
	}
	delta := a.Lines.Start - b.Lines.Start
	if delta < 0 {
		delta = -delta
	}
	if delta > opts.LineWindow {
		return false
	}
	return Similarity(a.Message, b.Message) >= opts.Similarity
}

// Similarity computes a normalized edit-distance ratio between two
// strings: 1 - dist/maxLen, in [0,1]. Identical strings score 1.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(levenshtein(ra, rb))/float64(maxLen)
}

// levenshtein computes edit distance with a rolling two-row table.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
