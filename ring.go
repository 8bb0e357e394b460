package xcompress

import "fmt"

// A RingBuffer is a fixed-capacity FIFO byte store. Bytes are appended at the
// end, dropped from the front, and read by their index relative to the
// current front. The capacity is a power of two, so positions in the backing
// array are found by masking.
type RingBuffer struct {
	buf   []byte
	mask  int
	start int
	size  int
}

// NewRingBuffer returns an empty RingBuffer that can hold capacity bytes.
// The capacity must be a positive power of two.
func NewRingBuffer(capacity int) (*RingBuffer, error) {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		return nil, fmt.Errorf("ring buffer capacity %d is not a power of two", capacity)
	}
	return &RingBuffer{
		buf:  make([]byte, capacity),
		mask: capacity - 1,
	}, nil
}

// Len returns the number of bytes stored.
func (r *RingBuffer) Len() int { return r.size }

// Cap returns the capacity.
func (r *RingBuffer) Cap() int { return len(r.buf) }

// Free returns how many more bytes can be appended.
func (r *RingBuffer) Free() int { return len(r.buf) - r.size }

// Reset empties the buffer without releasing its storage.
func (r *RingBuffer) Reset() {
	r.start = 0
	r.size = 0
}

// Append adds p to the end of the buffer. It fails with ErrCapacityExceeded,
// leaving the buffer unchanged, if p does not fit.
func (r *RingBuffer) Append(p []byte) error {
	if len(p) > r.Free() {
		return fmt.Errorf("%w: appending %d bytes with %d free", ErrCapacityExceeded, len(p), r.Free())
	}
	end := (r.start + r.size) & r.mask
	n := copy(r.buf[end:], p)
	copy(r.buf, p[n:])
	r.size += len(p)
	return nil
}

// AppendByte adds b to the end of the buffer.
func (r *RingBuffer) AppendByte(b byte) error {
	if r.size == len(r.buf) {
		return fmt.Errorf("%w: ring buffer is full", ErrCapacityExceeded)
	}
	r.buf[(r.start+r.size)&r.mask] = b
	r.size++
	return nil
}

// Drop discards the n oldest bytes.
func (r *RingBuffer) Drop(n int) error {
	if n < 0 || n > r.size {
		return fmt.Errorf("%w: dropping %d bytes of %d", ErrCapacityExceeded, n, r.size)
	}
	r.start = (r.start + n) & r.mask
	r.size -= n
	return nil
}

// Get returns the byte at index i, counted from the oldest byte.
func (r *RingBuffer) Get(i int) (byte, error) {
	if i < 0 || i >= r.size {
		return 0, fmt.Errorf("%w: index %d out of range [0,%d)", ErrCapacityExceeded, i, r.size)
	}
	return r.buf[(r.start+i)&r.mask], nil
}

// at is Get without the bounds check, for callers that have already
// established 0 <= i < Len().
func (r *RingBuffer) at(i int) byte {
	return r.buf[(r.start+i)&r.mask]
}
