// Package arena provides bump allocation for one demangling attempt.
//
// Every AST node and every piece of interned text produced while
// decoding a single symbol lives in one Arena. Nothing is released
// individually; the whole arena is dropped as a unit once the printer
// has consumed the tree.
package arena

// BlockSize is the default capacity of a byte block. Requests larger
// than this get a dedicated block sized to the request.
const BlockSize = 4096

type block struct {
	buf  []byte
	used int
}

// Arena serves aligned byte allocations from an append-only list of
// fixed-capacity blocks and keeps every allocated AST node alive until
// the arena itself is dropped. Blocks are never resized or moved, so
// storage handed out earlier stays valid across later allocations.
//
// An Arena is not safe for concurrent use; each demangling attempt
// owns its own.
type Arena struct {
	blocks []block

	// Node slots. Holding the boxed nodes here ties their lifetime to
	// the arena's, matching the release-all-at-once model without raw
	// pointer arithmetic.
	nodes []any
}

// New returns an arena with one empty block of the default capacity.
func New() *Arena {
	a := &Arena{}
	a.addBlock(BlockSize)
	return a
}

func (a *Arena) addBlock(capacity int) {
	a.blocks = append(a.blocks, block{buf: make([]byte, capacity)})
}

// Alloc carves size bytes out of the current block, first skipping
// whatever padding is needed so the returned slice starts at an
// address aligned to align (which must be a power of two). If the
// request does not fit in the current block's tail, a new block sized
// max(BlockSize, size) is appended and becomes current.
func (a *Arena) Alloc(size, align int) []byte {
	if size == 0 {
		return nil
	}
	if align < 1 {
		align = 1
	}

	cur := &a.blocks[len(a.blocks)-1]
	aligned := (cur.used + align - 1) &^ (align - 1)
	if aligned+size > len(cur.buf) {
		capacity := BlockSize
		if size > capacity {
			capacity = size
		}
		a.addBlock(capacity)
		cur = &a.blocks[len(a.blocks)-1]
		aligned = 0
	}

	cur.used = aligned + size
	return cur.buf[aligned : aligned+size : aligned+size]
}

// InternString copies s into arena storage and returns the copy.
func (a *Arena) InternString(s string) string {
	if len(s) == 0 {
		return ""
	}
	buf := a.Alloc(len(s), 1)
	copy(buf, s)
	return string(buf)
}

// Blocks reports how many blocks the arena currently holds.
func (a *Arena) Blocks() int { return len(a.blocks) }

// keep ties v's lifetime to the arena.
func (a *Arena) keep(v any) { a.nodes = append(a.nodes, v) }

// NewIn allocates a node slot owned by the arena and returns a pointer
// to it. The slot is valid until the arena is dropped; there is no way
// to free it earlier.
func NewIn[T any](a *Arena) *T {
	p := new(T)
	a.keep(p)
	return p
}
