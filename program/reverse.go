package program

// Reverse builds the structural mirror of the first length bytecode units of
// p: concatenations are emitted back to front, span constructs keep their
// bracketing with mirrored bodies, and a fresh OpMatch terminates the
// result. Operand tables are shared with p, which stays untouched.
//
// Running the mirror over a reversed input stream recognizes exactly the
// reversed language of the covered prefix; the bidirectional matcher uses
// this to walk from a known match end back to the match start.
func Reverse(p *Program, length int) *Program {
	rev := &Program{
		Classes: p.Classes,
		Sets:    p.Sets,
		Repeats: p.Repeats,
	}
	reverseRange(p, 0, length, rev)
	rev.Insts = append(rev.Insts, Inst{Op: OpMatch})
	return rev
}

// reverseRange appends the mirror of p.Insts[lo:hi] to rev. The range must
// not split a span: every construct starting inside it ends inside it.
func reverseRange(p *Program, lo, hi int, rev *Program) {
	type span struct{ lo, hi int }
	var items []span
	for pc := lo; pc < hi; {
		end := pc + p.Insts[pc].Len()
		if p.Insts[pc].Op.IsSpanStart() {
			end = p.SpanEnd(pc) + 1
		}
		items = append(items, span{pc, end})
		pc = end
	}
	for i := len(items) - 1; i >= 0; i-- {
		it := items[i]
		if it.hi-it.lo == 1 {
			inst := p.Insts[it.lo]
			if inst.Op == OpMatch {
				// the mirror gets its own terminal
				continue
			}
			rev.Insts = append(rev.Insts, inst)
			continue
		}
		reverseSpan(p, it.lo, it.hi, rev)
	}
}

// reverseSpan mirrors one bracketed construct occupying p.Insts[lo:hi].
func reverseSpan(p *Program, lo, hi int, rev *Program) {
	switch p.Insts[lo].Op {
	case OpAltStart:
		// branch order is kept, each branch body is mirrored
		type rng struct{ lo, hi int }
		var bodies []rng
		b := lo + 1
		sep := lo + int(p.Insts[lo].Data)
		for {
			bodies = append(bodies, rng{b, sep})
			if p.Insts[sep].Op != OpAltNext {
				break
			}
			b = sep + 1
			sep += int(p.Insts[sep].Data)
		}
		prev := len(rev.Insts)
		rev.Insts = append(rev.Insts, Inst{Op: OpAltStart})
		for i, body := range bodies {
			reverseRange(p, body.lo, body.hi, rev)
			op := OpAltNext
			if i == len(bodies)-1 {
				op = OpAltEnd
			}
			cur := len(rev.Insts)
			rev.Insts = append(rev.Insts, Inst{Op: op})
			rev.Insts[prev].Data = uint32(cur - prev)
			prev = cur
		}

	case OpLoopStart, OpBloomLoopStart:
		startOp := p.Insts[lo].Op
		endOp := OpLoopEnd
		if startOp == OpBloomLoopStart {
			endOp = OpBloomLoopEnd
		}
		lazy := p.Insts[lo].Lazy
		start := len(rev.Insts)
		rev.Insts = append(rev.Insts, Inst{Op: startOp, Lazy: lazy})
		reverseRange(p, lo+1, hi-1, rev)
		end := len(rev.Insts)
		rev.Insts = append(rev.Insts, Inst{Op: endOp, Lazy: lazy})
		rev.Insts[start].Data = uint32(end - start)
		rev.Insts[end].Data = uint32(end - start)

	case OpGroupStart:
		arg := p.Insts[lo].Arg
		start := len(rev.Insts)
		rev.Insts = append(rev.Insts, Inst{Op: OpGroupStart, Arg: arg})
		reverseRange(p, lo+1, hi-1, rev)
		end := len(rev.Insts)
		rev.Insts = append(rev.Insts, Inst{Op: OpGroupEnd, Arg: arg})
		rev.Insts[start].Data = uint32(end - start)

	case OpLookStart, OpRepeatStart:
		// opaque spans are carried over verbatim
		rev.Insts = append(rev.Insts, p.Insts[lo:hi]...)
	}
}
