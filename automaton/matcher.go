package automaton

import (
	"github.com/coregx/bitgrep/input"
	"github.com/coregx/bitgrep/program"
)

// Matcher pairs a forward automaton with a backward automaton over the
// mirrored program prefix. The forward automaton finds where a match ends;
// the backward automaton, fed the input in reverse from that point, finds
// where it starts.
type Matcher struct {
	fwd *NFA
	bwd *NFA
}

// NewMatcher builds the automaton pair for prog.
func NewMatcher(prog *program.Program) *Matcher {
	m := &Matcher{fwd: Build(prog)}
	if !m.fwd.Empty() {
		m.bwd = Build(program.Reverse(prog, m.fwd.Len()))
	}
	return m
}

// Empty reports whether the pair is unusable; see NFA.Empty.
func (m *Matcher) Empty() bool { return m.fwd.Empty() }

// Len returns the number of bytecode units the forward automaton covers.
func (m *Matcher) Len() int { return m.fwd.Len() }

// Search runs the forward automaton from the cursor position, leaving the
// cursor at the earliest match end.
func (m *Matcher) Search(in input.Cursor) bool {
	return m.fwd.Search(in)
}

// Match reports whether the covered prefix matches anchored at the current
// cursor position. The cursor position is restored either way.
func (m *Matcher) Match(in input.Cursor) bool {
	start := in.Pos()
	ok := m.fwd.Match(in)
	in.Reset(start)
	return ok
}

// Find locates the next match at or after the cursor position: a forward
// search for the earliest match end, then a backward run from that end for
// the furthest match start. The start is clamped to the position the search
// began at, since the backward automaton is free to run into text before
// it. Because the end is fixed before the start is recovered, a longer
// overlapping match ending later never wins, even when it starts earlier.
// On success the cursor is left at the match end.
func (m *Matcher) Find(in input.Source) (start, end int, ok bool) {
	origin := in.Pos()
	if m.Empty() || !m.fwd.Search(in) {
		in.Reset(origin)
		return 0, 0, false
	}
	end = in.Pos()
	start = origin
	if m.bwd != nil && !m.bwd.Empty() {
		back := in.LoopBack(end)
		if m.bwd.Match(back) {
			if p := back.Pos(); p > start {
				start = p
			}
		}
	}
	return start, end, true
}
