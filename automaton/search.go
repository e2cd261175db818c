package automaton

import (
	"github.com/coregx/bitgrep/input"
	"github.com/coregx/bitgrep/program"
)

// The simulation keeps the whole NFA frontier in one word w, bit value 0
// meaning alive. Per character it ORs in the character's kill mask and
// shifts left; between characters it resolves control-flow triggers through
// the precomputed table. Unanchored search shifts a fresh alive bit into
// state 0 every step, anchored match shifts in a dead bit.

// Search scans forward for the earliest position where a final state goes
// alive, leaving the cursor there. The start of the match is not known;
// pair with a backward automaton to recover it.
func (n *NFA) Search(in input.Cursor) bool {
	w := ^uint32(1)
	for {
		if trig := ^w & n.flowMask; trig != 0 {
			w |= trig
			if v, ok := n.flow.Get(trig); ok {
				w &= v
			}
		}
		if ^w&n.final != 0 {
			return true
		}
		r, ok := in.Next()
		if !ok {
			return false
		}
		w = (w | n.kill(r)) << 1
	}
}

// Match runs the automaton anchored at the current cursor position and
// reports whether it accepts. On success the cursor is left at the end of
// the longest accepted extent; on failure it is restored.
func (n *NFA) Match(in input.Cursor) bool {
	start := in.Pos()
	best := -1
	w := ^uint32(1)
	for {
		if trig := ^w & n.flowMask; trig != 0 {
			w |= trig
			if v, ok := n.flow.Get(trig); ok {
				w &= v
			}
		}
		if ^w&n.final != 0 {
			best = in.Pos()
		}
		if w == ^uint32(0) {
			break // frontier dead
		}
		r, ok := in.Next()
		if !ok {
			break
		}
		w = (w|n.kill(r))<<1 | 1
	}
	if best < 0 {
		in.Reset(start)
		return false
	}
	in.Reset(best)
	return true
}

// kill returns the mask of states r does not keep alive.
func (n *NFA) kill(r rune) uint32 {
	if r < 0x80 {
		return n.ascii[r]
	}
	if r >= program.MaxRune {
		return ^uint32(0)
	}
	return n.uni.Get(r)
}
