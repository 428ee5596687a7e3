package oggenc

import "sync/atomic"

// SerialCounter hands out Ogg stream serial numbers in sequence.
// It is safe for concurrent use.
type SerialCounter struct {
	next atomic.Int32
}

// NewSerialCounter creates a counter whose first serial number is start.
func NewSerialCounter(start int32) *SerialCounter {
	c := &SerialCounter{}
	c.next.Store(start)
	return c
}

// Next returns the next serial number. The sequence wraps at math.MaxInt32.
func (c *SerialCounter) Next() int32 {
	return c.next.Add(1) - 1
}

// DefaultSerials numbers streams created without WithSerial or WithSerials.
var DefaultSerials = NewSerialCounter(1)
