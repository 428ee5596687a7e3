package oggenc

import "math"

// EncoderName is written as the ENCODER comment of every stream.
const EncoderName = "pcmogg"

// DefaultFragmentLimit caps a single fragment so its size fits an int32.
const DefaultFragmentLimit = math.MaxInt32

// Option configures an Encoder.
type Option func(*options)

type options struct {
	serial   *int32
	serials  *SerialCounter
	comments []Comment
	limit    int
	backend  Backend
}

func newOptions(opts []Option) options {
	o := options{
		serials: DefaultSerials,
		limit:   DefaultFragmentLimit,
		backend: VorbisBackend,
	}
	o.comments = append(o.comments, Comment{Key: "ENCODER", Value: EncoderName})
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o *options) nextSerial() int32 {
	if o.serial != nil {
		return *o.serial
	}
	return o.serials.Next()
}

// WithSerial sets the stream serial number explicitly.
func WithSerial(serial int32) Option {
	return func(o *options) {
		o.serial = &serial
	}
}

// WithSerials draws the serial number from c instead of DefaultSerials.
// WithSerial takes precedence.
func WithSerials(c *SerialCounter) Option {
	return func(o *options) {
		if c != nil {
			o.serials = c
		}
	}
}

// WithTag adds a user comment to the stream. Repeated keys are kept.
func WithTag(key, value string) Option {
	return func(o *options) {
		o.comments = append(o.comments, Comment{Key: key, Value: value})
	}
}

// WithFragmentLimit caps the size in bytes of any fragment. Values <= 0 or
// above DefaultFragmentLimit select DefaultFragmentLimit.
func WithFragmentLimit(n int) Option {
	return func(o *options) {
		if n <= 0 || n > DefaultFragmentLimit {
			n = DefaultFragmentLimit
		}
		o.limit = n
	}
}

// WithBackend replaces the libvorbis/libogg pair.
func WithBackend(b Backend) Option {
	return func(o *options) {
		if b != nil {
			o.backend = b
		}
	}
}
