package asyncio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuffer_NewBufferFromSliceCopies(t *testing.T) {
	src := []byte("hello")
	b := NewBufferFromSlice(src)
	src[0] = 'H'

	assert.Equal(t, "hello", string(b.Bytes()))
	assert.Equal(t, 5, b.Len())
}

func TestBuffer_SliceSharesStorage(t *testing.T) {
	b := NewBuffer([]byte("abcdef"))
	sub := b.Slice(2, 4)
	sub.Bytes()[0] = 'X'

	assert.Equal(t, "abXdef", string(b.Bytes()))
}

func TestBuffer_CloneIsIndependent(t *testing.T) {
	b := NewBuffer([]byte("abc"))
	clone := b.Clone()
	clone.Bytes()[0] = 'Z'

	assert.Equal(t, "abc", string(b.Bytes()))
	assert.Equal(t, "Zbc", string(clone.Bytes()))
}
