package msvc

// Cursor is a forward-only view over the unconsumed suffix of a
// mangled name. Every parse step advances it; no step moves it
// backward. A step that fails may still have consumed part of its
// input, so callers that care about position on failure must read
// Offset before and after.
type Cursor struct {
	full string
	pos  int
}

// NewCursor returns a cursor positioned at the start of name.
func NewCursor(name string) *Cursor {
	return &Cursor{full: name}
}

// Empty reports whether the whole input has been consumed.
func (c *Cursor) Empty() bool { return c.pos >= len(c.full) }

// Len returns the number of unconsumed bytes.
func (c *Cursor) Len() int {
	if c.Empty() {
		return 0
	}
	return len(c.full) - c.pos
}

// Offset returns how many bytes have been consumed so far.
func (c *Cursor) Offset() int { return c.pos }

// Rest returns the unconsumed suffix.
func (c *Cursor) Rest() string { return c.full[min(c.pos, len(c.full)):] }

// Peek returns the next byte without consuming it, or 0 at the end.
func (c *Cursor) Peek() byte {
	if c.Empty() {
		return 0
	}
	return c.full[c.pos]
}

// PeekAt returns the byte i positions ahead, or 0 past the end.
func (c *Cursor) PeekAt(i int) byte {
	if c.pos+i >= len(c.full) {
		return 0
	}
	return c.full[c.pos+i]
}

// Consume returns the next byte and advances past it, or 0 at the end.
func (c *Cursor) Consume() byte {
	if c.Empty() {
		return 0
	}
	b := c.full[c.pos]
	c.pos++
	return b
}

// ConsumeByte advances past ch if it is next and reports whether it did.
func (c *Cursor) ConsumeByte(ch byte) bool {
	if c.Peek() != ch {
		return false
	}
	c.pos++
	return true
}

// ConsumeFront advances past prefix if the remaining input starts with
// it and reports whether it did.
func (c *Cursor) ConsumeFront(prefix string) bool {
	if len(prefix) > c.Len() {
		return false
	}
	if c.full[c.pos:c.pos+len(prefix)] != prefix {
		return false
	}
	c.pos += len(prefix)
	return true
}

// Advance unconditionally consumes n bytes (clamped to the end).
func (c *Cursor) Advance(n int) {
	c.pos += n
	if c.pos > len(c.full) {
		c.pos = len(c.full)
	}
}
