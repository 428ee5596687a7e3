// Package buffer provides the size-bounded growable buffer used to collect
// encoded output.
//
// Bounded grows by amortized appends like a slice, but unlike bytes.Buffer
// it never panics when it cannot grow: a write that would take it past its
// limit fails with ErrTooLarge and leaves the contents untouched. Take hands
// the accumulated storage to the caller and leaves the buffer empty, so a
// returned slice is never aliased by later writes.
//
// Example usage:
//
//	acc := buffer.Bytes(1 << 20)
//	if _, err := page.WriteTo(acc); err != nil {
//	    // errors.Is(err, buffer.ErrTooLarge)
//	}
//	out := acc.Take()
package buffer
