package bitgrep

import (
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
)

func TestMatchBasic(t *testing.T) {
	tests := []struct {
		pattern string
		hay     string
		want    bool
	}{
		{`abc`, "xabcd", true},
		{`abc`, "abd", false},
		{`a[b-c]*c`, "xabbbcdyy", true},
		{`a[b-c]*c`, "xbbbc", false},
		{`ab|cd`, "zzcdzz", true},
		{`ab|cd`, "zzczz", false},
		{`^abc`, "abc", true},
		{`^abc`, "xabc", false},
		{`a{3,5}`, "xxaaaa", true},
		{`a{3,5}`, "aa", false},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.hay, func(t *testing.T) {
			re := MustCompile(tt.pattern)
			if got := re.MatchString(tt.hay); got != tt.want {
				t.Fatalf("MatchString(%q) = %v, want %v", tt.hay, got, tt.want)
			}
		})
	}
}

func TestFindIndex(t *testing.T) {
	tests := []struct {
		pattern string
		hay     string
		want    []int
	}{
		{`a[b-c]*c`, "xabbbcdyy", []int{1, 6}},
		{`abc`, "zzabczz", []int{2, 5}},
		{`abc`, "nothing", nil},
		{`[0-9]+x`, "ab 123x", []int{3, 7}},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			re := MustCompile(tt.pattern)
			got := re.FindIndex([]byte(tt.hay))
			if len(got) != len(tt.want) {
				t.Fatalf("FindIndex = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("FindIndex = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestFindString(t *testing.T) {
	// the search semantic is earliest match end, so the trailing loop
	// stops at its first repetition
	re := MustCompile(`[a-z]+@[a-z]+`)
	if got := re.FindString("mail to: dev@example please"); got != "dev@e" {
		t.Fatalf("FindString = %q", got)
	}
}

func TestLiteralAlternationStrategy(t *testing.T) {
	re := MustCompile(`foo|bar|baz`)
	if re.ac == nil {
		t.Fatal("literal alternation did not take the Aho-Corasick path")
	}
	if !re.MatchString("a bar here") {
		t.Fatal("no match")
	}
	if got := re.FindIndex([]byte("xxbazyy")); got == nil || got[0] != 2 || got[1] != 5 {
		t.Fatalf("FindIndex = %v, want [2 5]", got)
	}
	if re.MatchString("fo ba") {
		t.Fatal("false positive")
	}
}

func TestSingleRuneAlternationStaysGeneral(t *testing.T) {
	// a|b|c is one character class; Aho-Corasick would be overkill
	re := MustCompile(`a|b|c`)
	if re.ac != nil {
		t.Fatal("single-rune alternation took the Aho-Corasick path")
	}
	if !re.MatchString("xxbxx") {
		t.Fatal("no match")
	}
}

func TestExactAutomatonStrategy(t *testing.T) {
	re := MustCompile(`a[b-c]*c`)
	if re.ac != nil || !re.exact {
		t.Fatalf("small pattern not on the exact automaton path (ac=%v exact=%v)", re.ac != nil, re.exact)
	}
}

func TestKickstartStrategy(t *testing.T) {
	// counted repetition truncates the automaton; the backtracker
	// verifies candidates behind it
	re := MustCompile(`a[a-z]{5}`)
	if re.exact {
		t.Fatal("pattern with counted repetition marked exact")
	}
	if re.bit.Empty() {
		t.Fatal("kickstart automaton is empty")
	}
	got := re.FindIndex([]byte("xx abcdef yy"))
	if got == nil || got[0] != 3 || got[1] != 9 {
		t.Fatalf("FindIndex = %v, want [3 9]", got)
	}
	if re.MatchString("xx abcd yy") {
		t.Fatal("false positive on short candidate")
	}
}

func TestFallbackStrategy(t *testing.T) {
	// empty-matching patterns bypass the automaton entirely
	re := MustCompile(`a*`)
	if !re.bit.Empty() {
		t.Fatal("empty-matching pattern kept a live automaton")
	}
	got := re.FindIndex([]byte("bbaa"))
	if got == nil || got[0] != 0 || got[1] != 0 {
		t.Fatalf("FindIndex = %v, want [0 0]", got)
	}
	if !re.MatchString("anything") {
		t.Fatal("a* must match everywhere")
	}
}

func TestUnicodeHaystack(t *testing.T) {
	re := MustCompile(`λ+`)
	got := re.FindIndex([]byte("αβλλγ"))
	if got == nil {
		t.Fatal("no match")
	}
	// byte offsets: two 2-byte runes precede, one repetition ends the match
	if want := []int{4, 6}; got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("FindIndex = %v, want %v", got, want)
	}
}

func TestLazyQuantifiers(t *testing.T) {
	tests := []struct {
		pattern string
		hay     string
		want    []int
	}{
		{`x{1,2}.+?b`, "xaabab", []int{0, 4}},
		{`a{1,1}c*?c`, "accc", []int{0, 2}},
		{`a*?b`, "aaab", []int{0, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			re := MustCompile(tt.pattern)
			got := re.FindIndex([]byte(tt.hay))
			if got == nil || got[0] != tt.want[0] || got[1] != tt.want[1] {
				t.Fatalf("FindIndex = %v, want %v", got, tt.want)
			}
			if want := regexp.MustCompile(tt.pattern).FindIndex([]byte(tt.hay)); got[0] != want[0] || got[1] != want[1] {
				t.Fatalf("FindIndex = %v, stdlib %v", got, want)
			}
		})
	}
}

func TestFindIndexEarliestEnd(t *testing.T) {
	// the automaton reports the earliest-ending match even when a longer
	// overlapping match starts further left; stdlib picks the latter
	re := MustCompile(`(((c)*a)?x)?x`)
	hay := []byte("zbaxx")
	got := re.FindIndex(hay)
	if got == nil || got[0] != 3 || got[1] != 4 {
		t.Fatalf("FindIndex = %v, want [3 4]", got)
	}
	if loc := regexp.MustCompile(`(((c)*a)?x)?x`).FindIndex(hay); loc[0] != 2 || loc[1] != 5 {
		t.Fatalf("stdlib FindIndex = %v, want [2 5]", loc)
	}
}

func TestDotAllConfig(t *testing.T) {
	hay := "a\nc"
	plain := MustCompile(`a.c`)
	if plain.MatchString(hay) {
		t.Fatal("dot matched newline without DotAll")
	}
	dotall, err := CompileWithConfig(`a.c`, Config{DotAll: true})
	if err != nil {
		t.Fatal(err)
	}
	if !dotall.MatchString(hay) {
		t.Fatal("dot did not match newline with DotAll")
	}
}

func TestCompileError(t *testing.T) {
	_, err := Compile(`a(`)
	if err == nil {
		t.Fatal("Compile(`a(`) succeeded")
	}
	var cerr *CompileError
	if !errors.As(err, &cerr) {
		t.Fatalf("error type %T, want *CompileError", err)
	}
	if cerr.Pattern != `a(` {
		t.Fatalf("CompileError.Pattern = %q", cerr.Pattern)
	}
	if cerr.Unwrap() == nil {
		t.Fatal("CompileError does not wrap the parser error")
	}
}

func TestMustCompilePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("MustCompile did not panic")
		}
	}()
	MustCompile(`a(`)
}

func TestStringReturnsPattern(t *testing.T) {
	const pattern = `a[b-c]*c`
	if got := MustCompile(pattern).String(); got != pattern {
		t.Fatalf("String() = %q", got)
	}
}

func TestAgainstStdlib(t *testing.T) {
	patterns := []string{
		`abc`, `a[b-c]*c`, `foo|bar|baz`, `a+b`, `a{2,4}b`, `x?y`,
		`[0-9]+`, `\bfox\b`, `a+?b`,
	}
	haystacks := []string{
		"", "abc", "xabbbcdyy", "a bar", "aaab", "aab", "xy", "y",
		"12 34", "the fox", "foxes", "bazbar", "aaaaab",
	}
	for _, pattern := range patterns {
		std := regexp.MustCompile(pattern)
		re := MustCompile(pattern)
		for _, hay := range haystacks {
			if got, want := re.MatchString(hay), std.MatchString(hay); got != want {
				t.Errorf("%q on %q: Match = %v, stdlib %v", pattern, hay, got, want)
				continue
			}
			got := re.FindIndex([]byte(hay))
			want := std.FindIndex([]byte(hay))
			if (got == nil) != (want == nil) {
				t.Errorf("%q on %q: FindIndex = %v, stdlib %v", pattern, hay, got, want)
				continue
			}
			// starts coincide for these patterns; with nested optional
			// prefixes they can differ (see TestFindIndexEarliestEnd)
			if got != nil && (got[0] != want[0] || got[1] > want[1]) {
				t.Errorf("%q on %q: FindIndex = %v, stdlib %v", pattern, hay, got, want)
			}
		}
	}
}

func TestConcurrentUse(t *testing.T) {
	re := MustCompile(`a[b-c]*c`)
	hay := []byte(strings.Repeat("xx", 100) + "abbc" + strings.Repeat("yy", 100))
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if !re.Match(hay) {
					t.Error("concurrent Match failed")
					return
				}
				loc := re.FindIndex(hay)
				if loc == nil || loc[0] != 200 {
					t.Errorf("concurrent FindIndex = %v", loc)
					return
				}
			}
		}()
	}
	wg.Wait()
}
