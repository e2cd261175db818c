package bitgrep

import (
	"github.com/segmentio/asm/ascii"

	"github.com/coregx/bitgrep/input"
)

// source picks the cheapest cursor for b: a byte cursor when the haystack
// is pure ASCII, a UTF-8 decoding cursor otherwise.
func source(b []byte) input.Source {
	if ascii.Valid(b) {
		return input.NewASCII(b)
	}
	return input.New(b)
}

// Match reports whether the pattern matches anywhere in b.
func (r *Regexp) Match(b []byte) bool {
	if r.ac != nil {
		return r.ac.IsMatch(b)
	}
	if r.exact {
		return r.bit.Search(source(b))
	}
	_, _, ok := r.find(b)
	return ok
}

// MatchString is Match on a string haystack.
func (r *Regexp) MatchString(s string) bool {
	return r.Match([]byte(s))
}

// Find returns the text of the first match in b, or nil. Match selection
// is described at FindIndex.
func (r *Regexp) Find(b []byte) []byte {
	start, end, ok := r.find(b)
	if !ok {
		return nil
	}
	return b[start:end]
}

// FindString is Find on a string haystack. A match of the empty string
// is indistinguishable from no match; use FindIndex to tell them apart.
func (r *Regexp) FindString(s string) string {
	return string(r.Find([]byte(s)))
}

// FindIndex returns the byte offsets [start, end) of the first match in b,
// or nil. The match with the earliest end wins, and the reported start is
// the furthest position reaching that end. When a longer overlapping match
// ends later, its earlier start is not considered, so the result can start
// to the right of the standard library's leftmost match.
func (r *Regexp) FindIndex(b []byte) []int {
	start, end, ok := r.find(b)
	if !ok {
		return nil
	}
	return []int{start, end}
}

// find dispatches to the strategy chosen at compile time.
func (r *Regexp) find(b []byte) (start, end int, ok bool) {
	if r.ac != nil {
		m := r.ac.Find(b, 0)
		if m == nil {
			return 0, 0, false
		}
		return m.Start, m.End, true
	}
	in := source(b)
	switch {
	case r.bit.Empty():
		return r.fallback.Find(in)
	case r.exact:
		return r.bit.Find(in)
	default:
		return r.kickstart(in)
	}
}

// kickstart drives the truncated automaton as a candidate filter: it finds
// positions where the covered prefix matches, and the backtracking engine
// verifies the full pattern there. A failed candidate advances the scan by
// one character.
func (r *Regexp) kickstart(in input.Source) (start, end int, ok bool) {
	for {
		at, _, found := r.bit.Find(in)
		if !found {
			return 0, 0, false
		}
		in.Reset(at)
		if end, ok := r.fallback.Match(in); ok {
			return at, end, true
		}
		if _, more := in.Next(); !more {
			return 0, 0, false
		}
	}
}
