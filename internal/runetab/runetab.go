// Package runetab provides a compact two-level table mapping every Unicode
// codepoint to a 32-bit mask.
//
// The table is a paged trie: a fixed index keyed by the high bits of the
// codepoint selects a 256-entry page of masks. Pages are reference counted
// and shared copy-on-write, so range assignments covering most of the
// codepoint space cost memory proportional to the number of distinct mask
// values rather than the number of codepoints touched. Mutation happens only
// while an automaton is being built; after that the table is read-only and
// safe for concurrent lookups.
package runetab

// MaxRune is the exclusive upper bound of the codepoint space (21 bits).
const MaxRune = 0x110000

const (
	blockBits = 8
	// BlockSize is the number of codepoints covered by one page.
	BlockSize = 1 << blockBits
	numBlocks = MaxRune >> blockBits
	blockMask = BlockSize - 1
)

// Table maps codepoints in [0, MaxRune) to 32-bit masks.
type Table struct {
	index  [numBlocks]uint16
	blocks [][]uint32
	refs   []int32
	hashes []uint32
	free   []uint16
}

// New creates a table with every codepoint mapped to fill. All index slots
// share a single page until a mutation forces a copy.
func New(fill uint32) *Table {
	t := &Table{}
	page := make([]uint32, BlockSize)
	for i := range page {
		page[i] = fill
	}
	t.blocks = append(t.blocks, page)
	t.refs = append(t.refs, numBlocks)
	t.hashes = append(t.hashes, pageHash(page))
	// index is zero-initialized: every slot points at page 0.
	return t
}

// Get returns the mask for r. r must be in [0, MaxRune); the table performs
// no bounds checks of its own beyond the slice accesses.
func (t *Table) Get(r rune) uint32 {
	return t.blocks[t.index[r>>blockBits]][r&blockMask]
}

// AndRange ANDs mask into every codepoint in the half-open range [lo, hi).
func (t *Table) AndRange(lo, hi rune, mask uint32) {
	t.apply(lo, hi, func(v uint32) uint32 { return v & mask })
}

// OrRange ORs mask into every codepoint in the half-open range [lo, hi).
func (t *Table) OrRange(lo, hi rune, mask uint32) {
	t.apply(lo, hi, func(v uint32) uint32 { return v | mask })
}

// Pages returns the number of live (referenced) pages. Exposed for tests
// asserting that deduplication keeps sharing effective.
func (t *Table) Pages() int {
	n := 0
	for _, r := range t.refs {
		if r > 0 {
			n++
		}
	}
	return n
}

// apply runs f over every mask in [lo, hi), splitting the range into
// per-page chunks. Shared pages are cloned before mutation; mutated pages
// are re-hashed and deduplicated against existing pages.
func (t *Table) apply(lo, hi rune, f func(uint32) uint32) {
	if lo < 0 {
		lo = 0
	}
	if hi > MaxRune {
		hi = MaxRune
	}
	if lo >= hi {
		return
	}
	for chunk := lo >> blockBits; chunk <= (hi-1)>>blockBits; chunk++ {
		start := rune(0)
		if chunk == lo>>blockBits {
			start = lo & blockMask
		}
		end := rune(BlockSize)
		if chunk == (hi-1)>>blockBits {
			end = (hi-1)&blockMask + 1
		}

		p := t.index[chunk]
		if t.refs[p] > 1 {
			p = t.clone(chunk, p)
		}
		page := t.blocks[p]
		for i := start; i < end; i++ {
			page[i] = f(page[i])
		}
		t.hashes[p] = pageHash(page)
		t.dedup(chunk, p)
	}
}

// clone detaches the page behind the given index slot: the slot is pointed
// at a private copy with reference count 1.
func (t *Table) clone(chunk rune, p uint16) uint16 {
	t.refs[p]--
	var q uint16
	if n := len(t.free); n > 0 {
		q = t.free[n-1]
		t.free = t.free[:n-1]
		copy(t.blocks[q], t.blocks[p])
	} else {
		page := make([]uint32, BlockSize)
		copy(page, t.blocks[p])
		t.blocks = append(t.blocks, page)
		t.refs = append(t.refs, 0)
		t.hashes = append(t.hashes, 0)
		q = uint16(len(t.blocks) - 1)
	}
	t.refs[q] = 1
	t.hashes[q] = t.hashes[p]
	t.index[chunk] = q
	return q
}

// dedup re-routes the index slot to an existing page with identical content,
// if one exists. This is a memory optimization only; lookups are value
// equivalent either way.
func (t *Table) dedup(chunk rune, p uint16) {
	h := t.hashes[p]
	for q := range t.blocks {
		if uint16(q) == p || t.refs[q] <= 0 || t.hashes[q] != h {
			continue
		}
		if !pagesEqual(t.blocks[q], t.blocks[p]) {
			continue
		}
		t.index[chunk] = uint16(q)
		t.refs[q]++
		t.refs[p]--
		if t.refs[p] == 0 {
			t.free = append(t.free, p)
		}
		return
	}
}

// pageHash is FNV-1a over the page words.
func pageHash(page []uint32) uint32 {
	h := uint32(2166136261)
	for _, w := range page {
		h ^= w
		h *= 16777619
	}
	return h
}

func pagesEqual(a, b []uint32) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
