// Package program defines the linear bytecode form patterns compile to,
// and the compiler from regexp/syntax trees into it.
//
// A program is a flat sequence of fixed-width instructions. Control flow
// (alternation, loops, groups, lookaround) is expressed with paired span
// markers carrying forward or backward jump distances, so walkers never
// need the syntax tree: the automaton builder, the program reverser and the
// backtracking interpreter all operate on this encoding alone.
package program

import "fmt"

// MaxRune is the exclusive upper bound of the codepoint space.
const MaxRune = 0x110000

// Op identifies an instruction.
type Op uint8

const (
	// Character tests. Each consumes exactly one input character.
	OpChar  Op = iota // match the single rune in Arg
	OpRunes           // match any rune in Sets[Arg]
	OpClass           // match any rune in Classes[Arg]
	OpAny             // match any rune

	// Alternation: AltStart body1 AltNext body2 ... AltEnd.
	// AltStart.Data is the distance to the first separator; each
	// AltNext.Data is the distance to the next one; the chain ends at the
	// AltEnd.
	OpAltStart
	OpAltNext
	OpAltEnd

	// Unbounded loops (x*). LoopStart.Data is the distance forward to the
	// matching LoopEnd, LoopEnd.Data the distance back. The bloom
	// variants mark loops with large bodies where a first-character
	// filter pays off; engines may treat them exactly like plain loops.
	OpLoopStart
	OpLoopEnd
	OpBloomLoopStart
	OpBloomLoopEnd

	// Group markers. Zero width. Arg is the capture index; GroupStart.Data
	// is the distance to the matching GroupEnd.
	OpGroupStart
	OpGroupEnd

	// OpAssert is a zero-width assertion; Arg holds an Assert kind.
	OpAssert

	// Lookaround spans. LookStart.Data is the distance to the matching
	// LookEnd; Arg holds a Look kind. The engines in this module treat
	// the whole span as an opaque zero-width no-op.
	OpLookStart
	OpLookEnd

	// Counted repetition (x{m,n}). Arg indexes Repeats; Data on both
	// markers is the distance between them. Not representable in the
	// bit-parallel core: construction truncates here.
	OpRepeatStart
	OpRepeatEnd

	// OpBackref matches the text of a previous group. Not representable
	// in the bit-parallel core.
	OpBackref

	// OpMatch marks a terminal state.
	OpMatch
)

// String returns a short mnemonic for the opcode.
func (op Op) String() string {
	switch op {
	case OpChar:
		return "Char"
	case OpRunes:
		return "Runes"
	case OpClass:
		return "Class"
	case OpAny:
		return "Any"
	case OpAltStart:
		return "AltStart"
	case OpAltNext:
		return "AltNext"
	case OpAltEnd:
		return "AltEnd"
	case OpLoopStart:
		return "LoopStart"
	case OpLoopEnd:
		return "LoopEnd"
	case OpBloomLoopStart:
		return "BloomLoopStart"
	case OpBloomLoopEnd:
		return "BloomLoopEnd"
	case OpGroupStart:
		return "GroupStart"
	case OpGroupEnd:
		return "GroupEnd"
	case OpAssert:
		return "Assert"
	case OpLookStart:
		return "LookStart"
	case OpLookEnd:
		return "LookEnd"
	case OpRepeatStart:
		return "RepeatStart"
	case OpRepeatEnd:
		return "RepeatEnd"
	case OpBackref:
		return "Backref"
	case OpMatch:
		return "Match"
	default:
		return fmt.Sprintf("Op(%d)", uint8(op))
	}
}

// Consumes reports whether the instruction consumes one input character.
func (op Op) Consumes() bool {
	switch op {
	case OpChar, OpRunes, OpClass, OpAny:
		return true
	}
	return false
}

// IsSpanStart reports whether the instruction opens a bracketed span.
func (op Op) IsSpanStart() bool {
	switch op {
	case OpAltStart, OpLoopStart, OpBloomLoopStart, OpGroupStart, OpLookStart, OpRepeatStart:
		return true
	}
	return false
}

// IsSpanEnd reports whether the instruction closes a bracketed span.
func (op Op) IsSpanEnd() bool {
	switch op {
	case OpAltEnd, OpLoopEnd, OpBloomLoopEnd, OpGroupEnd, OpLookEnd, OpRepeatEnd:
		return true
	}
	return false
}

// Assert enumerates zero-width assertion kinds.
type Assert uint8

const (
	AssertBeginText Assert = iota
	AssertEndText
	AssertBeginLine
	AssertEndLine
	AssertWordBoundary
	AssertNoWordBoundary
)

// Look enumerates lookaround kinds.
type Look uint8

const (
	LookAhead Look = iota
	LookAheadNeg
	LookBehind
	LookBehindNeg
)

// Inst is a single fixed-width instruction.
type Inst struct {
	Op   Op
	Arg  uint32 // rune, table index, or assertion/look kind
	Data uint32 // jump distance for span markers
	Lazy bool   // on loop and repeat markers: prefer the shortest extent
}

// Len returns the instruction's length in bytecode units. The encoding is
// fixed width, so this is always 1; walkers still advance by Len rather
// than assuming the width.
func (i Inst) Len() int { return 1 }

// Rune returns the operand of an OpChar instruction.
func (i Inst) Rune() rune { return rune(i.Arg) }

// Range is a half-open codepoint interval [Lo, Hi).
type Range struct {
	Lo, Hi rune
}

// Class is an ordered sequence of disjoint half-open intervals.
type Class []Range

// Contains reports whether r falls inside the class.
func (c Class) Contains(r rune) bool {
	for _, rg := range c {
		if r >= rg.Lo && r < rg.Hi {
			return true
		}
	}
	return false
}

// Bounds holds counted-repetition limits. Max < 0 means unbounded.
type Bounds struct {
	Min, Max int
}

// Program is a compiled pattern: the instruction stream plus the operand
// tables instructions index into. Programs are immutable once built.
type Program struct {
	Insts   []Inst
	Classes []Class
	Sets    [][]rune
	Repeats []Bounds
}

// Len returns the program length in bytecode units.
func (p *Program) Len() int { return len(p.Insts) }

// SpanEnd returns the position of the end marker matching the span start
// at pc.
func (p *Program) SpanEnd(pc int) int {
	inst := p.Insts[pc]
	if inst.Op == OpAltStart {
		return p.ChainEnd(pc + int(inst.Data))
	}
	return pc + int(inst.Data)
}

// ChainEnd follows an alternation separator chain from pc to the AltEnd.
// pc must be an AltNext or the AltEnd itself.
func (p *Program) ChainEnd(pc int) int {
	for p.Insts[pc].Op == OpAltNext {
		pc += int(p.Insts[pc].Data)
	}
	return pc
}
