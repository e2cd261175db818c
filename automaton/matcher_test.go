package automaton

import (
	"regexp"
	"testing"

	"github.com/coregx/bitgrep/input"
)

func mustStdlib(t *testing.T, pattern string) *regexp.Regexp {
	t.Helper()
	re, err := regexp.Compile(pattern)
	if err != nil {
		t.Fatalf("stdlib Compile(%q): %v", pattern, err)
	}
	return re
}

func newMatcher(t *testing.T, pattern string) *Matcher {
	t.Helper()
	return NewMatcher(compile(t, pattern))
}

func TestFindRecoverStart(t *testing.T) {
	m := newMatcher(t, `a[b-c]*c`)
	in := input.New([]byte("xabbbcdyy"))
	start, end, ok := m.Find(in)
	if !ok {
		t.Fatal("no match")
	}
	if start != 1 || end != 6 {
		t.Fatalf("match [%d, %d), want [1, 6)", start, end)
	}
}

func TestFindLiteral(t *testing.T) {
	m := newMatcher(t, `abc`)
	in := input.New([]byte("zzabczz"))
	start, end, ok := m.Find(in)
	if !ok || start != 2 || end != 5 {
		t.Fatalf("match [%d, %d) ok=%v, want [2, 5)", start, end, ok)
	}
}

func TestFindPrefersLeftmostStart(t *testing.T) {
	// the forward pass alone only knows the end; the backward pass must
	// pick the furthest start for it
	m := newMatcher(t, `a+b`)
	in := input.New([]byte("xaaab"))
	start, end, ok := m.Find(in)
	if !ok || start != 1 || end != 5 {
		t.Fatalf("match [%d, %d) ok=%v, want [1, 5)", start, end, ok)
	}
}

func TestFindClampToOrigin(t *testing.T) {
	// resuming mid-haystack: the backward run may walk into text before
	// the resume point; the reported start must not
	m := newMatcher(t, `a+`)
	in := input.New([]byte("aaaa"))
	in.Reset(2)
	start, end, ok := m.Find(in)
	if !ok {
		t.Fatal("no match")
	}
	if start != 2 {
		t.Fatalf("start = %d, want clamp at 2", start)
	}
	if end != 3 {
		t.Fatalf("end = %d, want earliest end 3", end)
	}
}

func TestFindNoMatchRestoresCursor(t *testing.T) {
	m := newMatcher(t, `zz`)
	in := input.New([]byte("abcdef"))
	in.Reset(1)
	if _, _, ok := m.Find(in); ok {
		t.Fatal("unexpected match")
	}
	if in.Pos() != 1 {
		t.Fatalf("cursor = %d after failed Find, want 1", in.Pos())
	}
}

func TestFindIterate(t *testing.T) {
	m := newMatcher(t, `ab`)
	in := input.New([]byte("ab.ab.ab"))
	var got [][2]int
	for {
		start, end, ok := m.Find(in)
		if !ok {
			break
		}
		got = append(got, [2]int{start, end})
	}
	want := [][2]int{{0, 2}, {3, 5}, {6, 8}}
	if len(got) != len(want) {
		t.Fatalf("matches %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("matches %v, want %v", got, want)
		}
	}
}

func TestFindEarliestEndStart(t *testing.T) {
	// nested optional prefixes: the earliest end excludes the longer
	// overlapping match, so the reported start sits after its start
	m := newMatcher(t, `(((c)*a)?x)?x`)
	in := input.New([]byte("zbaxx"))
	start, end, ok := m.Find(in)
	if !ok || start != 3 || end != 4 {
		t.Fatalf("match [%d, %d) ok=%v, want [3, 4)", start, end, ok)
	}
}

func TestMatchRestoresCursor(t *testing.T) {
	m := newMatcher(t, `ab`)
	in := input.New([]byte("abx"))
	if !m.Match(in) {
		t.Fatal("anchored match failed")
	}
	if in.Pos() != 0 {
		t.Fatalf("cursor = %d after Match, want 0", in.Pos())
	}
}

func TestFindAgainstStdlib(t *testing.T) {
	patterns := []string{
		`abc`, `a[b-c]*c`, `a+b`, `[0-9]+`, `x.y`, `ab|cde`,
	}
	haystacks := []string{
		"", "abc", "zzabc", "xabbbcdyy", "aaab", "12 345 6", "x7y",
		"ab", "cde", "abcde", "no digits here", "xy",
	}
	for _, pattern := range patterns {
		re := mustStdlib(t, pattern)
		m := newMatcher(t, pattern)
		if m.Empty() {
			t.Fatalf("%q: matcher empty", pattern)
		}
		for _, hay := range haystacks {
			in := input.New([]byte(hay))
			start, end, ok := m.Find(in)
			loc := re.FindStringIndex(hay)
			if ok != (loc != nil) {
				t.Errorf("%q on %q: found=%v, stdlib=%v", pattern, hay, ok, loc != nil)
				continue
			}
			if !ok {
				continue
			}
			// for these patterns the earliest end belongs to the leftmost
			// match, so starts coincide with stdlib; in general they need
			// not (see TestFindEarliestEndStart). The end may stop at the
			// earliest final state where stdlib reports the longest match.
			if start != loc[0] {
				t.Errorf("%q on %q: start %d, stdlib %d", pattern, hay, start, loc[0])
			}
			if end > loc[1] {
				t.Errorf("%q on %q: end %d past stdlib end %d", pattern, hay, end, loc[1])
			}
		}
	}
}
