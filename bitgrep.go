// Package bitgrep provides a compact regex engine built around a
// bit-parallel Thompson simulation.
//
// Patterns compile to a linear bytecode program. Programs with at most 32
// tracked states run on a bitmask automaton that advances the whole NFA
// frontier with a few word operations per character and allocates nothing
// per search. Larger or partially unsupported patterns degrade gracefully:
// the automaton then covers a prefix of the program and works as a
// kickstart filter in front of a backtracking engine. Flat alternations of
// plain literals skip the automaton entirely and compile to an Aho-Corasick
// matcher.
//
// Compiled patterns are immutable and safe for concurrent use:
//
//	re := bitgrep.MustCompile(`a[b-c]*c`)
//	loc := re.FindIndex([]byte("xabbbcdyy")) // [1 6]
package bitgrep

import (
	"fmt"
	"regexp/syntax"

	"github.com/coregx/ahocorasick"

	"github.com/coregx/bitgrep/automaton"
	"github.com/coregx/bitgrep/backtrack"
	"github.com/coregx/bitgrep/program"
)

// Config controls compilation choices.
type Config struct {
	// MinLiteralAlternation is the branch count at which a flat
	// alternation of literals compiles to the Aho-Corasick matcher
	// instead of the general engine. Zero means the default of 2.
	MinLiteralAlternation int

	// DotAll makes . match any character including newline, like the
	// (?s) flag.
	DotAll bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{MinLiteralAlternation: 2}
}

// Regexp is a compiled pattern.
type Regexp struct {
	pattern string

	// general path
	prog     *program.Program
	bit      *automaton.Matcher
	exact    bool // the automaton covers the whole program
	fallback *backtrack.Engine

	// literal alternation bypass
	ac *ahocorasick.Automaton
}

// Compile compiles pattern with the default configuration. The syntax is
// the Perl flavor of regexp/syntax.
func Compile(pattern string) (*Regexp, error) {
	return CompileWithConfig(pattern, DefaultConfig())
}

// CompileWithConfig compiles pattern with explicit configuration.
func CompileWithConfig(pattern string, config Config) (*Regexp, error) {
	if config.MinLiteralAlternation <= 0 {
		config.MinLiteralAlternation = DefaultConfig().MinLiteralAlternation
	}
	flags := syntax.Perl
	if config.DotAll {
		flags |= syntax.DotNL
	}
	re, err := syntax.Parse(pattern, flags)
	if err != nil {
		return nil, &CompileError{Pattern: pattern, Err: err}
	}
	r := &Regexp{pattern: pattern}
	if lits := flatLiterals(re, config.MinLiteralAlternation); lits != nil {
		builder := ahocorasick.NewBuilder()
		for _, lit := range lits {
			builder.AddPattern(lit)
		}
		auto, err := builder.Build()
		if err == nil {
			r.ac = auto
			return r, nil
		}
		// fall through to the general engine
	}
	r.prog = program.CompileRegexp(re)
	r.bit = automaton.NewMatcher(r.prog)
	r.exact = r.bit.Len() == r.prog.Len() && !overApproximates(r.prog)
	r.fallback = backtrack.New(r.prog)
	return r, nil
}

// overApproximates reports whether the automaton can only act as a filter
// for prog even at full coverage: assertions and lookaround hold no state
// bit, so the automaton matches a superset of the language and candidates
// need verification.
func overApproximates(p *program.Program) bool {
	for _, inst := range p.Insts {
		switch inst.Op {
		case program.OpAssert, program.OpLookStart:
			return true
		}
	}
	return false
}

// MustCompile is like Compile but panics on error. Intended for patterns
// known valid at build time.
func MustCompile(pattern string) *Regexp {
	r, err := Compile(pattern)
	if err != nil {
		panic(fmt.Sprintf("bitgrep: MustCompile(%q): %v", pattern, err))
	}
	return r
}

// String returns the source pattern.
func (r *Regexp) String() string { return r.pattern }

// flatLiterals returns the branch literals when re is an alternation of at
// least min plain literals with at least one spanning multiple runes.
// Single-rune alternations stay on the general engine, which folds them
// into one character-set instruction.
func flatLiterals(re *syntax.Regexp, min int) [][]byte {
	if re.Op != syntax.OpAlternate || len(re.Sub) < min {
		return nil
	}
	multi := false
	lits := make([][]byte, 0, len(re.Sub))
	for _, sub := range re.Sub {
		if sub.Op != syntax.OpLiteral || sub.Flags&syntax.FoldCase != 0 || len(sub.Rune) == 0 {
			return nil
		}
		if len(sub.Rune) > 1 {
			multi = true
		}
		lits = append(lits, []byte(string(sub.Rune)))
	}
	if !multi {
		return nil
	}
	return lits
}
