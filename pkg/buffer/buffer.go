package buffer

import (
	"errors"
	"fmt"
	"math"
)

// ErrTooLarge is returned when a write would grow a Bounded buffer past
// its limit.
var ErrTooLarge = errors.New("buffer: size limit exceeded")

// Bounded is a growable buffer with a hard upper bound on its length.
//
// Writes are all-or-nothing: either every element of p is appended or the
// buffer is left exactly as it was. The zero value is not usable; create
// buffers with N or Bytes.
//
// Bounded is not safe for concurrent use.
type Bounded[T any] struct {
	buf   []T
	limit int
}

// N creates a Bounded buffer that holds at most limit elements.
// A limit <= 0 means no bound other than math.MaxInt.
func N[T any](limit int) *Bounded[T] {
	if limit <= 0 {
		limit = math.MaxInt
	}
	return &Bounded[T]{limit: limit}
}

// Bytes creates a Bounded byte buffer limited to limit bytes.
func Bytes(limit int) *Bounded[byte] {
	return N[byte](limit)
}

// Write appends p to the buffer.
//
// Returns ErrTooLarge (wrapped with the sizes involved) if the result would
// exceed the limit; nothing is appended in that case.
func (b *Bounded[T]) Write(p []T) (n int, err error) {
	if len(p) > b.limit-len(b.buf) {
		return 0, fmt.Errorf("buffer: grow %d by %d past limit %d: %w",
			len(b.buf), len(p), b.limit, ErrTooLarge)
	}
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// Grow ensures room for n more elements without another allocation,
// subject to the limit.
func (b *Bounded[T]) Grow(n int) error {
	if n > b.limit-len(b.buf) {
		return fmt.Errorf("buffer: reserve %d past limit %d: %w", n, b.limit, ErrTooLarge)
	}
	if cap(b.buf)-len(b.buf) < n {
		grown := make([]T, len(b.buf), len(b.buf)+n)
		copy(grown, b.buf)
		b.buf = grown
	}
	return nil
}

// Len returns the number of buffered elements.
func (b *Bounded[T]) Len() int {
	return len(b.buf)
}

// Limit returns the maximum number of elements the buffer accepts.
func (b *Bounded[T]) Limit() int {
	return b.limit
}

// Bytes returns the buffered elements. The slice aliases the buffer and is
// only valid until the next Write, Grow, Reset or Take.
func (b *Bounded[T]) Bytes() []T {
	return b.buf
}

// Take returns the buffered elements and empties the buffer. The returned
// slice belongs to the caller; the buffer starts fresh storage on the next
// write.
func (b *Bounded[T]) Take() []T {
	out := b.buf
	b.buf = nil
	return out
}

// Reset discards the buffered elements.
func (b *Bounded[T]) Reset() {
	clear(b.buf)
	b.buf = b.buf[:0]
}
