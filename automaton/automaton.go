// Package automaton implements a bit-parallel simulation of small regex
// programs.
//
// All NFA states of a program prefix are packed into one 32-bit word, one
// bit per state, with bit value 0 meaning alive. Advancing over a character
// is a table lookup, an OR and a shift; control-flow joins (alternation and
// loop back-edges) are resolved between characters through a precomputed
// trigger table. Programs that do not fit the 32-state budget, or that use
// instructions the simulation cannot express, compile to an automaton over
// the longest representable prefix and a caller-side fallback finishes the
// job.
package automaton

import (
	"github.com/coregx/bitgrep/internal/intmap"
	"github.com/coregx/bitgrep/internal/runetab"
	"github.com/coregx/bitgrep/internal/sparse"
	"github.com/coregx/bitgrep/program"
)

const (
	// maxStates is the simulation word width: one bit per tracked state.
	maxStates = 32

	// maxTriggers caps how many control-flow trigger bits the closure may
	// combine. The trigger table holds one entry per non-empty trigger
	// subset, so k triggers cost 2^k - 1 entries.
	maxTriggers = 16
)

// NFA is a compiled bit-parallel automaton. It is immutable after Build and
// safe for concurrent use; all per-search state lives in two local words.
type NFA struct {
	ascii [128]uint32    // per-byte kill masks for the ASCII range
	uni   *runetab.Table // kill masks for the rest of the codepoint space

	flow     *intmap.Map // trigger subset -> activation mask (complemented)
	flowMask uint32      // all control-flow trigger bits

	final  uint32 // terminal state bits
	length int    // bytecode units covered; 0 means degenerate
}

// Len returns the number of bytecode units the automaton covers. A value
// smaller than the source program's length means construction truncated and
// matches found by this automaton are prefix candidates only.
func (n *NFA) Len() int { return n.length }

// Empty reports whether the automaton is degenerate and must not be used
// for searching. This covers patterns whose representable prefix is empty
// and patterns that match the empty string, which would make every position
// a match end and the search useless as a filter.
func (n *NFA) Empty() bool { return n.length == 0 }

// Build compiles prog into a bit-parallel automaton. Build never fails:
// when the program exceeds the state budget or contains unsupported
// instructions the result covers the longest top-level prefix that fits,
// down to the degenerate empty automaton.
func Build(prog *program.Program) *NFA {
	b := &builder{
		prog: prog,
		nfa:  &NFA{flow: intmap.New()},
	}
	b.run()
	return b.nfa
}

type builder struct {
	prog *program.Program
	nfa  *NFA

	// bits[pc] is the state bit assigned to the instruction at pc, or -1.
	// bits[length] is the synthetic final state of a truncated automaton.
	bits []int
}

func (b *builder) run() {
	length, nbits := b.assignBits()
	if length == 0 {
		return
	}
	b.nfa.length = length
	if nbits < maxStates {
		// state entered by shifting past the last covered unit
		b.bits[length] = nbits
	}

	if !b.buildFlow() {
		b.nfa.length = 0
		return
	}
	if !b.buildTables() {
		b.nfa.length = 0
		return
	}

	// Patterns matching the empty string degenerate: the start state is
	// final, or a control-flow trigger at the start activates a final
	// state before any character is consumed.
	if b.nfa.final&1 != 0 {
		b.nfa.length = 0
		return
	}
	if b.nfa.flowMask&1 != 0 {
		if v, ok := b.nfa.flow.Get(1); ok && ^v&b.nfa.final != 0 {
			b.nfa.length = 0
		}
	}
}

// needsBit reports whether the instruction occupies a state bit. Character
// tests and the terminal hold real states; control-flow markers hold
// trigger states resolved between characters. Assertions and group markers
// are transparent: adjacency through the shift is enough.
func needsBit(op program.Op) bool {
	switch op {
	case program.OpAltStart, program.OpAltNext, program.OpAltEnd,
		program.OpLoopStart, program.OpLoopEnd,
		program.OpBloomLoopStart, program.OpBloomLoopEnd,
		program.OpMatch:
		return true
	}
	return op.Consumes()
}

func isTrigger(op program.Op) bool {
	switch op {
	case program.OpAltStart, program.OpAltNext, program.OpAltEnd,
		program.OpLoopStart, program.OpLoopEnd,
		program.OpBloomLoopStart, program.OpBloomLoopEnd:
		return true
	}
	return false
}

// assignBits walks the program assigning state bits in instruction order.
// It stops at the first unsupported instruction or when the budget runs
// out, and returns the length of the covered prefix together with the
// number of bits it uses. Truncation only cuts at top-level construct
// boundaries so the prefix is a well-formed program.
func (b *builder) assignBits() (length, nbits int) {
	insts := b.prog.Insts
	b.bits = make([]int, len(insts)+1)
	for i := range b.bits {
		b.bits[i] = -1
	}

	type cut struct{ pos, bits int }
	cuts := []cut{{0, 0}}
	next := 0
	depth := 0
	pc := 0
scan:
	for pc < len(insts) {
		inst := insts[pc]
		switch inst.Op {
		case program.OpRepeatStart, program.OpRepeatEnd, program.OpBackref:
			break scan
		case program.OpLookStart:
			// the whole span is opaque and holds no states
			pc = b.prog.SpanEnd(pc) + 1
			if depth == 0 {
				cuts = append(cuts, cut{pc, next})
			}
			continue
		}
		if needsBit(inst.Op) {
			if next == maxStates {
				break scan
			}
			b.bits[pc] = next
			next++
		}
		if inst.Op.IsSpanEnd() {
			depth--
		}
		if inst.Op.IsSpanStart() {
			depth++
		}
		pc += inst.Len()
		if depth == 0 {
			cuts = append(cuts, cut{pc, next})
		}
	}
	if pc == len(insts) {
		return pc, next
	}

	// truncated: cut at the last boundary leaving room for the synthetic
	// final state
	for i := len(cuts) - 1; i >= 0; i-- {
		if cuts[i].bits < maxStates {
			for j := cuts[i].pos; j < len(b.bits); j++ {
				b.bits[j] = -1
			}
			return cuts[i].pos, cuts[i].bits
		}
	}
	return 0, 0
}

// buildFlow computes the control-flow trigger table: for each marker state,
// the set of consuming or final states its activation reaches without
// consuming input. Entries are stored complemented so the simulation
// applies them with a single AND. All subsets of triggers are precombined;
// too many triggers reports failure.
func (b *builder) buildFlow() bool {
	n := b.nfa
	var triggers []uint32
	visited := sparse.NewSet(uint32(n.length + 1))
	var stack []int

	for pc := 0; pc < n.length; pc++ {
		if !isTrigger(b.prog.Insts[pc].Op) {
			continue
		}
		if len(triggers) == maxTriggers {
			return false
		}
		bit := uint32(1) << uint(b.bits[pc])
		mask := b.continuations(pc, visited, &stack)
		n.flow.Set(bit, ^mask)
		n.flowMask |= bit
		triggers = append(triggers, bit)
	}

	// close over subsets: several triggers alive in the same step must
	// find their combined entry in one lookup. Activation sets union,
	// which in complemented form is AND.
	type combo struct{ key, val uint32 }
	var combos []combo
	for _, t := range triggers {
		v, _ := n.flow.Get(t)
		base := len(combos)
		for i := 0; i < base; i++ {
			c := combo{key: combos[i].key | t, val: combos[i].val & v}
			n.flow.Set(c.key, c.val)
			combos = append(combos, c)
		}
		combos = append(combos, combo{key: t, val: v})
	}
	return true
}

// continuations collects the bits of all consuming and final states
// reachable from the marker at start through zero-width instructions and
// other markers.
func (b *builder) continuations(start int, visited *sparse.Set, stack *[]int) uint32 {
	insts := b.prog.Insts
	visited.Clear()
	s := b.successors(start, (*stack)[:0])

	var mask uint32
	for len(s) > 0 {
		pc := s[len(s)-1]
		s = s[:len(s)-1]
		if visited.Contains(uint32(pc)) {
			continue
		}
		visited.Insert(uint32(pc))

		if pc >= b.nfa.length {
			// past the covered prefix: the synthetic final state
			if bit := b.bits[b.nfa.length]; bit >= 0 {
				mask |= 1 << uint(bit)
			}
			continue
		}
		inst := insts[pc]
		if inst.Op.Consumes() || inst.Op == program.OpMatch {
			mask |= 1 << uint(b.bits[pc])
			continue
		}
		s = b.successors(pc, s)
	}
	*stack = s
	return mask
}

// successors pushes the positions directly reachable from pc without
// consuming input.
func (b *builder) successors(pc int, s []int) []int {
	insts := b.prog.Insts
	inst := insts[pc]
	switch inst.Op {
	case program.OpAltStart:
		// every branch entry
		s = append(s, pc+1)
		sep := pc + int(inst.Data)
		for insts[sep].Op == program.OpAltNext {
			s = append(s, sep+1)
			sep += int(insts[sep].Data)
		}
	case program.OpAltNext:
		// a finished branch continues after the construct
		s = append(s, b.prog.ChainEnd(pc))
	case program.OpAltEnd:
		s = append(s, pc+1)
	case program.OpLoopStart, program.OpBloomLoopStart:
		// enter the body or skip the loop
		s = append(s, pc+1, pc+int(inst.Data))
	case program.OpLoopEnd, program.OpBloomLoopEnd:
		// iterate again or leave
		s = append(s, pc-int(inst.Data)+1, pc+1)
	case program.OpGroupStart, program.OpGroupEnd, program.OpAssert, program.OpLookEnd:
		s = append(s, pc+1)
	case program.OpLookStart:
		s = append(s, pc+int(inst.Data)+1)
	}
	return s
}

// buildTables fills the character kill tables and the final state mask.
func (b *builder) buildTables() bool {
	n := b.nfa
	for i := range n.ascii {
		n.ascii[i] = ^uint32(0)
	}
	n.uni = runetab.New(^uint32(0))

	for pc := 0; pc < n.length; pc++ {
		inst := b.prog.Insts[pc]
		bit := b.bits[pc]
		switch inst.Op {
		case program.OpChar:
			b.clearRange(inst.Rune(), inst.Rune()+1, bit)
		case program.OpRunes:
			for _, r := range b.prog.Sets[inst.Arg] {
				b.clearRange(r, r+1, bit)
			}
		case program.OpClass:
			for _, rg := range b.prog.Classes[inst.Arg] {
				b.clearRange(rg.Lo, rg.Hi, bit)
			}
		case program.OpAny:
			b.clearRange(0, program.MaxRune, bit)
		case program.OpMatch:
			n.final |= 1 << uint(bit)
		}
	}
	if n.final == 0 {
		// truncated prefix: accepting means surviving past the last unit
		bit := b.bits[n.length]
		if bit < 0 {
			return false
		}
		n.final = 1 << uint(bit)
	}
	return true
}

// clearRange clears the state bit for every codepoint in [lo, hi): those
// characters keep the state alive.
func (b *builder) clearRange(lo, hi rune, bit int) {
	mask := ^(uint32(1) << uint(bit))
	if lo < 0 {
		lo = 0
	}
	if hi > program.MaxRune {
		hi = program.MaxRune
	}
	if lo >= hi {
		return
	}
	if lo < 0x80 {
		end := hi
		if end > 0x80 {
			end = 0x80
		}
		for c := lo; c < end; c++ {
			b.nfa.ascii[c] &= mask
		}
	}
	if hi > 0x80 {
		start := lo
		if start < 0x80 {
			start = 0x80
		}
		b.nfa.uni.AndRange(start, hi, mask)
	}
}
