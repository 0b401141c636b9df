package asyncio

// Buffer is a simple owned byte buffer, used as the payload type for
// Stream/Pipe/File read and write requests.
type Buffer struct {
	data []byte
}

// NewBuffer wraps data directly (no copy); the caller gives up ownership.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

// NewBufferFromSlice copies src into a new Buffer.
func NewBufferFromSlice(src []byte) *Buffer {
	data := make([]byte, len(src))
	copy(data, src)
	return &Buffer{data: data}
}

// Bytes returns the buffer's underlying data. The caller must not retain
// it past the buffer's next mutation.
func (b *Buffer) Bytes() []byte { return b.data }

// Len returns the number of bytes currently stored.
func (b *Buffer) Len() int { return len(b.data) }

// Cap returns the buffer's capacity.
func (b *Buffer) Cap() int { return cap(b.data) }

// Slice returns a new Buffer sharing the underlying array over [from:to).
func (b *Buffer) Slice(from, to int) *Buffer {
	return &Buffer{data: b.data[from:to]}
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	return NewBufferFromSlice(b.data)
}
