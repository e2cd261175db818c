package program

import (
	"regexp/syntax"
	"unicode"
)

// bloomLoopThreshold is the body size above which a loop is emitted with the
// bloom marker variant, hinting engines that a first-character filter is
// worth keeping for it.
const bloomLoopThreshold = 8

// Compile parses pattern with Perl syntax and compiles it to a program.
func Compile(pattern string) (*Program, error) {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return nil, err
	}
	return CompileRegexp(re), nil
}

// CompileRegexp compiles an already parsed syntax tree. The program always
// ends with OpMatch.
func CompileRegexp(re *syntax.Regexp) *Program {
	c := &compiler{prog: &Program{}}
	c.emit(re)
	c.push(Inst{Op: OpMatch})
	return c.prog
}

type compiler struct {
	prog *Program
}

func (c *compiler) push(i Inst) int {
	c.prog.Insts = append(c.prog.Insts, i)
	return len(c.prog.Insts) - 1
}

func (c *compiler) pc() int { return len(c.prog.Insts) }

func (c *compiler) emit(re *syntax.Regexp) {
	switch re.Op {
	case syntax.OpEmptyMatch:
		// zero width, nothing to emit

	case syntax.OpLiteral:
		for _, r := range re.Rune {
			if re.Flags&syntax.FoldCase != 0 {
				if orbit := foldOrbit(r); len(orbit) > 1 {
					c.pushSet(orbit)
					continue
				}
			}
			c.push(Inst{Op: OpChar, Arg: uint32(r)})
		}

	case syntax.OpCharClass:
		c.pushClass(classFromPairs(re.Rune))

	case syntax.OpAnyChar:
		c.push(Inst{Op: OpAny})

	case syntax.OpAnyCharNotNL:
		c.pushClass(Class{{0, '\n'}, {'\n' + 1, MaxRune}})

	case syntax.OpNoMatch:
		// empty class: consumes a character but accepts none
		c.pushClass(Class{})

	case syntax.OpBeginText:
		c.push(Inst{Op: OpAssert, Arg: uint32(AssertBeginText)})
	case syntax.OpEndText:
		c.push(Inst{Op: OpAssert, Arg: uint32(AssertEndText)})
	case syntax.OpBeginLine:
		c.push(Inst{Op: OpAssert, Arg: uint32(AssertBeginLine)})
	case syntax.OpEndLine:
		c.push(Inst{Op: OpAssert, Arg: uint32(AssertEndLine)})
	case syntax.OpWordBoundary:
		c.push(Inst{Op: OpAssert, Arg: uint32(AssertWordBoundary)})
	case syntax.OpNoWordBoundary:
		c.push(Inst{Op: OpAssert, Arg: uint32(AssertNoWordBoundary)})

	case syntax.OpCapture:
		start := c.push(Inst{Op: OpGroupStart, Arg: uint32(re.Cap)})
		c.emit(re.Sub[0])
		end := c.push(Inst{Op: OpGroupEnd, Arg: uint32(re.Cap)})
		c.prog.Insts[start].Data = uint32(end - start)

	case syntax.OpStar:
		c.emitLoop(re.Sub[0], re.Flags&syntax.NonGreedy != 0)

	case syntax.OpPlus:
		// x+ is x followed by x*
		c.emit(re.Sub[0])
		c.emitLoop(re.Sub[0], re.Flags&syntax.NonGreedy != 0)

	case syntax.OpQuest:
		// x? is an alternation with an empty branch; x?? puts the empty
		// branch first so backtracking prefers the shorter extent
		lazy := re.Flags&syntax.NonGreedy != 0
		start := c.push(Inst{Op: OpAltStart})
		if !lazy {
			c.emit(re.Sub[0])
		}
		sep := c.push(Inst{Op: OpAltNext})
		if lazy {
			c.emit(re.Sub[0])
		}
		end := c.push(Inst{Op: OpAltEnd})
		c.prog.Insts[start].Data = uint32(sep - start)
		c.prog.Insts[sep].Data = uint32(end - sep)

	case syntax.OpRepeat:
		lazy := re.Flags&syntax.NonGreedy != 0
		c.prog.Repeats = append(c.prog.Repeats, Bounds{Min: re.Min, Max: re.Max})
		arg := uint32(len(c.prog.Repeats) - 1)
		start := c.push(Inst{Op: OpRepeatStart, Arg: arg, Lazy: lazy})
		c.emit(re.Sub[0])
		end := c.push(Inst{Op: OpRepeatEnd, Arg: arg, Lazy: lazy})
		c.prog.Insts[start].Data = uint32(end - start)
		c.prog.Insts[end].Data = uint32(end - start)

	case syntax.OpConcat:
		for _, sub := range re.Sub {
			c.emit(sub)
		}

	case syntax.OpAlternate:
		if set := singleRuneBranches(re.Sub); set != nil {
			c.pushSet(set)
			return
		}
		start := c.push(Inst{Op: OpAltStart})
		prev := start
		for i, sub := range re.Sub {
			c.emit(sub)
			op := OpAltNext
			if i == len(re.Sub)-1 {
				op = OpAltEnd
			}
			sep := c.push(Inst{Op: op})
			c.prog.Insts[prev].Data = uint32(sep - prev)
			prev = sep
		}
	}
}

// emitLoop emits an unbounded loop over body, choosing the bloom variant
// for large bodies. lazy marks both markers for shortest-extent
// backtracking.
func (c *compiler) emitLoop(body *syntax.Regexp, lazy bool) {
	start := c.push(Inst{Op: OpLoopStart, Lazy: lazy})
	c.emit(body)
	startOp, endOp := OpLoopStart, OpLoopEnd
	if c.pc()-start-1 > bloomLoopThreshold {
		startOp, endOp = OpBloomLoopStart, OpBloomLoopEnd
	}
	end := c.push(Inst{Op: endOp, Lazy: lazy})
	c.prog.Insts[start].Op = startOp
	c.prog.Insts[start].Data = uint32(end - start)
	c.prog.Insts[end].Data = uint32(end - start)
}

func (c *compiler) pushClass(cl Class) {
	c.prog.Classes = append(c.prog.Classes, cl)
	c.push(Inst{Op: OpClass, Arg: uint32(len(c.prog.Classes) - 1)})
}

func (c *compiler) pushSet(runes []rune) {
	c.prog.Sets = append(c.prog.Sets, runes)
	c.push(Inst{Op: OpRunes, Arg: uint32(len(c.prog.Sets) - 1)})
}

// classFromPairs converts the parser's inclusive rune pairs to half-open
// ranges.
func classFromPairs(pairs []rune) Class {
	cl := make(Class, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		cl = append(cl, Range{Lo: pairs[i], Hi: pairs[i+1] + 1})
	}
	return cl
}

// singleRuneBranches returns the combined rune set when every branch is a
// plain one-rune literal, or nil. Such alternations collapse to a single
// OpRunes instruction instead of an alternation construct.
func singleRuneBranches(subs []*syntax.Regexp) []rune {
	set := make([]rune, 0, len(subs))
	for _, sub := range subs {
		if sub.Op != syntax.OpLiteral || len(sub.Rune) != 1 || sub.Flags&syntax.FoldCase != 0 {
			return nil
		}
		set = append(set, sub.Rune[0])
	}
	return set
}

// foldOrbit returns r together with all runes that case-fold to it.
func foldOrbit(r rune) []rune {
	orbit := []rune{r}
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		orbit = append(orbit, f)
	}
	return orbit
}
