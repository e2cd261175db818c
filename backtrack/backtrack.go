// Package backtrack implements a backtracking interpreter over compiled
// programs.
//
// It executes the full instruction set, including counted repetition and
// zero-width assertions the bit-parallel core cannot represent, and serves
// two roles: the verification engine behind truncated automatons and the
// fallback when no automaton is usable. A visited bitmap keyed by
// (instruction, position) bounds re-entry into unbounded loops, and a
// global step budget bounds total work per haystack.
package backtrack

import (
	"github.com/coregx/bitgrep/input"
	"github.com/coregx/bitgrep/program"
)

// maxSteps bounds the interpreter's total work across one Match or Find
// call, guarding against pathological backtracking.
const maxSteps = 1 << 20

// Engine interprets a compiled program. It holds no per-search state and is
// safe for concurrent use.
type Engine struct {
	prog *program.Program
}

// New creates an engine for prog.
func New(prog *program.Program) *Engine {
	return &Engine{prog: prog}
}

// Match runs the program anchored at the current cursor position. On
// success it returns the end offset of the leftmost-first match. The cursor
// position is restored either way.
func (e *Engine) Match(in input.Source) (end int, ok bool) {
	st := e.newState(in)
	start := in.Pos()
	end, ok = e.run(0, st)
	in.Reset(start)
	return end, ok
}

// Find scans forward from the current cursor position for the first
// position where the program matches, advancing one character after every
// failed attempt. The cursor position is restored either way.
func (e *Engine) Find(in input.Source) (start, end int, ok bool) {
	st := e.newState(in)
	origin := in.Pos()
	for {
		start = in.Pos()
		if end, ok = e.run(0, st); ok {
			in.Reset(origin)
			return start, end, true
		}
		in.Reset(start)
		if _, more := in.Next(); !more {
			in.Reset(origin)
			return 0, 0, false
		}
		// the visited bitmap is only valid within one anchored attempt
		for i := range st.visited {
			st.visited[i] = 0
		}
	}
}

type repFrame struct {
	pc   int // the OpRepeatStart
	done int // completed iterations
	pos  int // position when the current iteration entered the body
}

type runState struct {
	in      input.Source
	visited []uint64
	width   int // positions per instruction row: haystack size + 1
	steps   int
	rep     []repFrame
}

func (e *Engine) newState(in input.Source) *runState {
	width := in.Size() + 1
	words := (len(e.prog.Insts)*width + 63) / 64
	return &runState{
		in:      in,
		visited: make([]uint64, words),
		width:   width,
		steps:   maxSteps,
	}
}

// mark records (pc, pos) and reports whether it was new.
func (st *runState) mark(pc, pos int) bool {
	idx := pc*st.width + pos
	w, b := idx/64, uint(idx%64)
	if st.visited[w]&(1<<b) != 0 {
		return false
	}
	st.visited[w] |= 1 << b
	return true
}

// run interprets from pc until the program accepts or the current path
// fails. Alternation and loops recurse; everything else stays in the loop.
func (e *Engine) run(pc int, st *runState) (int, bool) {
	insts := e.prog.Insts
	for {
		if st.steps--; st.steps < 0 {
			return 0, false
		}
		inst := insts[pc]
		switch inst.Op {
		case program.OpChar:
			r, ok := st.in.Next()
			if !ok || r != inst.Rune() {
				return 0, false
			}
			pc++

		case program.OpRunes:
			r, ok := st.in.Next()
			if !ok || !runeInSet(e.prog.Sets[inst.Arg], r) {
				return 0, false
			}
			pc++

		case program.OpClass:
			r, ok := st.in.Next()
			if !ok || !e.prog.Classes[inst.Arg].Contains(r) {
				return 0, false
			}
			pc++

		case program.OpAny:
			if _, ok := st.in.Next(); !ok {
				return 0, false
			}
			pc++

		case program.OpAssert:
			if !e.assert(program.Assert(inst.Arg), st.in) {
				return 0, false
			}
			pc++

		case program.OpGroupStart, program.OpGroupEnd, program.OpAltEnd, program.OpLookEnd:
			pc++

		case program.OpAltStart:
			save := st.in.Pos()
			branch := pc + 1
			sep := pc + int(inst.Data)
			for {
				if end, ok := e.run(branch, st); ok {
					return end, true
				}
				st.in.Reset(save)
				if insts[sep].Op != program.OpAltNext {
					return 0, false
				}
				branch = sep + 1
				sep += int(insts[sep].Data)
			}

		case program.OpAltNext:
			// branch complete: continue after the construct
			pc = e.prog.ChainEnd(pc) + 1

		case program.OpLoopStart, program.OpBloomLoopStart:
			save := st.in.Pos()
			if inst.Lazy {
				// lazy: the continuation is tried before the body
				if end, ok := e.run(pc+int(inst.Data)+1, st); ok {
					return end, true
				}
				st.in.Reset(save)
				if !st.mark(pc, save) {
					return 0, false
				}
				pc++
				break
			}
			if st.mark(pc, save) {
				if end, ok := e.run(pc+1, st); ok {
					return end, true
				}
				st.in.Reset(save)
			}
			pc += int(inst.Data) + 1

		case program.OpLoopEnd, program.OpBloomLoopEnd:
			loop := pc - int(inst.Data)
			save := st.in.Pos()
			if inst.Lazy {
				if end, ok := e.run(pc+1, st); ok {
					return end, true
				}
				st.in.Reset(save)
				if !st.mark(loop, save) {
					return 0, false
				}
				pc = loop + 1
				break
			}
			if st.mark(loop, save) {
				if end, ok := e.run(loop+1, st); ok {
					return end, true
				}
				st.in.Reset(save)
			}
			pc++

		case program.OpRepeatStart:
			return e.repeat(pc, 0, st)

		case program.OpRepeatEnd:
			f := st.rep[len(st.rep)-1]
			st.rep = st.rep[:len(st.rep)-1]
			var end int
			var ok bool
			if st.in.Pos() == f.pos {
				// body matched empty: remaining iterations are vacuous
				end, ok = e.run(f.pc+int(insts[f.pc].Data)+1, st)
			} else {
				end, ok = e.repeat(f.pc, f.done+1, st)
			}
			st.rep = append(st.rep, f)
			return end, ok

		case program.OpLookStart:
			// lookaround spans are zero-width no-ops, same as the
			// bit-parallel core
			pc += int(inst.Data) + 1

		case program.OpBackref:
			return 0, false

		case program.OpMatch:
			return st.in.Pos(), true

		default:
			return 0, false
		}
	}
}

// repeat drives one level of a counted repetition: enter the body while
// under Max, exit once Min is satisfied. Greedy markers try the body
// first, lazy markers the exit.
func (e *Engine) repeat(pc, done int, st *runState) (int, bool) {
	inst := e.prog.Insts[pc]
	bounds := e.prog.Repeats[inst.Arg]
	if inst.Lazy && done >= bounds.Min {
		save := st.in.Pos()
		if end, ok := e.run(pc+int(inst.Data)+1, st); ok {
			return end, true
		}
		st.in.Reset(save)
	}
	if bounds.Max < 0 || done < bounds.Max {
		save := st.in.Pos()
		st.rep = append(st.rep, repFrame{pc: pc, done: done, pos: save})
		end, ok := e.run(pc+1, st)
		st.rep = st.rep[:len(st.rep)-1]
		if ok {
			return end, true
		}
		st.in.Reset(save)
	}
	if !inst.Lazy && done >= bounds.Min {
		return e.run(pc+int(inst.Data)+1, st)
	}
	return 0, false
}

// assert evaluates a zero-width assertion at the current position without
// moving the cursor. Word characters follow the ASCII \w definition.
func (e *Engine) assert(kind program.Assert, in input.Source) bool {
	pos := in.Pos()
	before, hasBefore := in.LoopBack(pos).Next()
	after, hasAfter := in.Next()
	in.Reset(pos)
	switch kind {
	case program.AssertBeginText:
		return !hasBefore
	case program.AssertEndText:
		return !hasAfter
	case program.AssertBeginLine:
		return !hasBefore || before == '\n'
	case program.AssertEndLine:
		return !hasAfter || after == '\n'
	case program.AssertWordBoundary:
		return isWord(before, hasBefore) != isWord(after, hasAfter)
	case program.AssertNoWordBoundary:
		return isWord(before, hasBefore) == isWord(after, hasAfter)
	}
	return true
}

func isWord(r rune, ok bool) bool {
	if !ok {
		return false
	}
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}

func runeInSet(set []rune, r rune) bool {
	for _, s := range set {
		if s == r {
			return true
		}
	}
	return false
}
