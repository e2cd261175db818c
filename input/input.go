// Package input provides the character cursor abstraction the matchers
// pull from.
//
// The engines never touch a haystack directly: they consume characters one
// at a time through a Cursor and rewind through Reset. Two implementations
// are provided, a UTF-8 decoding cursor and a byte-per-character ASCII
// cursor; callers pick one per haystack. All operations are O(1).
package input

import "unicode/utf8"

// Cursor yields characters one at a time together with their byte offsets.
type Cursor interface {
	// Next returns the next character and advances past it.
	// ok is false when the cursor is exhausted.
	Next() (r rune, ok bool)

	// Pos returns the current byte offset: the offset the next character
	// starts at for forward cursors, or the offset the most recently
	// yielded character started at for backward cursors.
	Pos() int

	// Reset repositions the cursor to a previously observed offset.
	// Resetting to an offset that was never observed is undefined.
	Reset(pos int)
}

// Source is a forward cursor over a full haystack that can also open
// backward cursors over text it has already passed. It is what the
// bidirectional matcher and the backtracking engine require.
type Source interface {
	Cursor

	// Size returns the total haystack length in bytes.
	Size() int

	// LoopBack returns a cursor yielding the characters strictly before
	// pos in reverse order. Its Pos starts at pos and decreases.
	LoopBack(pos int) Cursor
}

// Bytes is a UTF-8 decoding cursor over a byte slice.
type Bytes struct {
	data []byte
	pos  int
}

// New creates a forward UTF-8 cursor over data.
func New(data []byte) *Bytes {
	return &Bytes{data: data}
}

// Next decodes the next rune. Invalid bytes decode as utf8.RuneError with
// width one, same as the standard library.
func (b *Bytes) Next() (rune, bool) {
	if b.pos >= len(b.data) {
		return 0, false
	}
	r, size := utf8.DecodeRune(b.data[b.pos:])
	b.pos += size
	return r, true
}

// Pos returns the byte offset of the next rune.
func (b *Bytes) Pos() int { return b.pos }

// Reset repositions the cursor.
func (b *Bytes) Reset(pos int) { b.pos = pos }

// Size returns the haystack length in bytes.
func (b *Bytes) Size() int { return len(b.data) }

// LoopBack opens a backward cursor over the runes before pos.
func (b *Bytes) LoopBack(pos int) Cursor {
	return &bytesBack{data: b.data, pos: pos}
}

// bytesBack decodes runes right to left.
type bytesBack struct {
	data []byte
	pos  int
}

func (b *bytesBack) Next() (rune, bool) {
	if b.pos <= 0 {
		return 0, false
	}
	r, size := utf8.DecodeLastRune(b.data[:b.pos])
	b.pos -= size
	return r, true
}

func (b *bytesBack) Pos() int      { return b.pos }
func (b *bytesBack) Reset(pos int) { b.pos = pos }

// ASCII is a byte-per-character cursor. It must only be used on haystacks
// known to contain no bytes >= 0x80; with that guarantee it matches the
// UTF-8 cursor exactly while skipping rune decoding.
type ASCII struct {
	data []byte
	pos  int
}

// NewASCII creates a forward ASCII cursor over data.
func NewASCII(data []byte) *ASCII {
	return &ASCII{data: data}
}

// Next returns the next byte as a rune.
func (a *ASCII) Next() (rune, bool) {
	if a.pos >= len(a.data) {
		return 0, false
	}
	r := rune(a.data[a.pos])
	a.pos++
	return r, true
}

// Pos returns the byte offset of the next character.
func (a *ASCII) Pos() int { return a.pos }

// Reset repositions the cursor.
func (a *ASCII) Reset(pos int) { a.pos = pos }

// Size returns the haystack length in bytes.
func (a *ASCII) Size() int { return len(a.data) }

// LoopBack opens a backward cursor over the bytes before pos.
func (a *ASCII) LoopBack(pos int) Cursor {
	return &asciiBack{data: a.data, pos: pos}
}

type asciiBack struct {
	data []byte
	pos  int
}

func (a *asciiBack) Next() (rune, bool) {
	if a.pos <= 0 {
		return 0, false
	}
	a.pos--
	return rune(a.data[a.pos]), true
}

func (a *asciiBack) Pos() int      { return a.pos }
func (a *asciiBack) Reset(pos int) { a.pos = pos }
