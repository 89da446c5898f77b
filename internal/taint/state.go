package taint

import (
	"github.com/clay-good/reviewr/internal/catalog"
)

// Origin identifies where a tainted value came from and how it traveled.
type Origin struct {
	Category catalog.Category
	SourceID string
	Name     string // the matched source pattern, e.g. "request.args.get"
	Line     int
	Chain    []string // human-readable propagation steps, oldest first
}

// State is the taint record of one value or binding: the origin tags that
// contributed to it, keyed by category. A nil *State means untainted.
type State struct {
	origins map[catalog.Category][]Origin
}

func newState() *State {
	return &State{origins: make(map[catalog.Category][]Origin)}
}

// Tainted reports whether the state carries any origin tag.
func (s *State) Tainted() bool {
	return s != nil && len(s.origins) > 0
}

// Origins returns all origin tags, in no particular order.
func (s *State) Origins() []Origin {
	if s == nil {
		return nil
	}
	var out []Origin
	for _, os := range s.origins {
		out = append(out, os...)
	}
	return out
}

// ByCategory returns the origins tagged with the given category.
func (s *State) ByCategory(cat catalog.Category) []Origin {
	if s == nil {
		return nil
	}
	return s.origins[cat]
}

func (s *State) add(o Origin) *State {
	if s == nil {
		s = newState()
	}
	s.origins[o.Category] = append(s.origins[o.Category], o)
	return s
}

// union merges two states into a new one. Either input may be nil.
func union(a, b *State) *State {
	if !a.Tainted() && !b.Tainted() {
		return nil
	}
	out := newState()
	for _, src := range []*State{a, b} {
		if src == nil {
			continue
		}
		for cat, os := range src.origins {
			out.origins[cat] = append(out.origins[cat], os...)
		}
	}
	return out
}

// clearCategories returns a copy of s without the given categories, or nil
// if nothing remains.
func (s *State) clearCategories(cats []catalog.Category) *State {
	if !s.Tainted() {
		return nil
	}
	drop := make(map[catalog.Category]bool, len(cats))
	for _, c := range cats {
		drop[c] = true
	}
	out := newState()
	for cat, os := range s.origins {
		if !drop[cat] {
			out.origins[cat] = append(out.origins[cat], os...)
		}
	}
	if len(out.origins) == 0 {
		return nil
	}
	return out
}

// withChainStep returns a copy of s with one propagation step appended to
// every origin's chain.
func (s *State) withChainStep(step string) *State {
	if !s.Tainted() {
		return nil
	}
	out := newState()
	for cat, os := range s.origins {
		copied := make([]Origin, len(os))
		for i, o := range os {
			chain := make([]string, len(o.Chain), len(o.Chain)+1)
			copy(chain, o.Chain)
			o.Chain = append(chain, step)
			copied[i] = o
		}
		out.origins[cat] = copied
	}
	return out
}

func (s *State) clone() *State {
	if s == nil {
		return nil
	}
	out := newState()
	for cat, os := range s.origins {
		out.origins[cat] = append([]Origin(nil), os...)
	}
	return out
}
