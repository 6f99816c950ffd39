package arena

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocServesFromCurrentBlock(t *testing.T) {
	a := New()
	require.Equal(t, 1, a.Blocks())

	b1 := a.Alloc(16, 1)
	b2 := a.Alloc(16, 1)
	require.Len(t, b1, 16)
	require.Len(t, b2, 16)
	assert.Equal(t, 1, a.Blocks(), "small allocations should share the first block")
}

func TestAllocOverflowAppendsBlock(t *testing.T) {
	a := New()
	first := a.Alloc(BlockSize-8, 1)
	copy(first, bytes.Repeat([]byte{0xAB}, len(first)))

	// Does not fit in the 8 remaining bytes.
	second := a.Alloc(64, 1)
	require.Len(t, second, 64)
	assert.Equal(t, 2, a.Blocks())

	// Previously handed-out storage must not move or change.
	assert.Equal(t, bytes.Repeat([]byte{0xAB}, BlockSize-8), first)
}

func TestAllocOversizedRequestGetsDedicatedBlock(t *testing.T) {
	a := New()
	a.Alloc(8, 1)

	big := a.Alloc(3*BlockSize, 1)
	require.Len(t, big, 3*BlockSize)
	assert.Equal(t, 2, a.Blocks(), "oversized request should append one block sized to it")

	// The oversized block is current; a follow-up that does not fit in
	// its tail appends again.
	a.Alloc(1, 1)
	assert.Equal(t, 3, a.Blocks())
}

func TestAllocZeroReturnsNil(t *testing.T) {
	a := New()
	assert.Nil(t, a.Alloc(0, 8))
	assert.Equal(t, 1, a.Blocks())
}

func TestAllocAlignmentPadding(t *testing.T) {
	a := New()
	a.Alloc(3, 1)
	b := a.Alloc(8, 8)
	require.Len(t, b, 8)
	// 3 used, padded to 8, plus 8: the next unaligned byte starts at 16.
	next := a.Alloc(1, 1)
	require.Len(t, next, 1)
	assert.Equal(t, 1, a.Blocks())
}

func TestInternString(t *testing.T) {
	a := New()
	s := a.InternString("operator<<")
	assert.Equal(t, "operator<<", s)
	assert.Equal(t, "", a.InternString(""))
}

func TestInternStringStableAcrossOverflow(t *testing.T) {
	a := New()
	s := a.InternString("vector")
	for i := 0; i < 1024; i++ {
		a.Alloc(64, 8)
	}
	assert.Equal(t, "vector", s)
	assert.Greater(t, a.Blocks(), 1)
}

func TestNewInKeepsNodeAlive(t *testing.T) {
	a := New()
	p := NewIn[struct{ N int }](a)
	p.N = 42
	q := NewIn[struct{ N int }](a)
	q.N = 7
	assert.Equal(t, 42, p.N)
	assert.Equal(t, 7, q.N)
}
