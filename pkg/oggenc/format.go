package oggenc

import (
	"errors"
	"fmt"
)

var (
	// ErrInit is returned by New when the format is rejected, either by
	// validation or by the codec.
	ErrInit = errors.New("oggenc: unsupported format")

	// ErrOutOfMemory is returned when a fragment would grow past the
	// fragment limit. The fragment is dropped; the encoder stays usable.
	ErrOutOfMemory = errors.New("oggenc: fragment too large")

	// ErrMalformedInput is returned when a chunk does not hold a whole
	// number of frames. Nothing is consumed.
	ErrMalformedInput = errors.New("oggenc: chunk is not frame aligned")

	// ErrInvalidHandle is returned by calls on a nil or closed encoder.
	ErrInvalidHandle = errors.New("oggenc: invalid encoder")
)

// Format is the immutable audio format of one stream.
type Format struct {
	// Channels is the number of interleaved channels, at least 1.
	Channels int
	// SampleRate is in Hz and must be positive.
	SampleRate int
	// Quality is the VBR quality, nominally 0.0 to 1.0. Out-of-range values
	// are left to the codec to clamp or reject.
	Quality float32
}

func (f Format) validate() error {
	if f.Channels < 1 {
		return fmt.Errorf("%w: %d channels", ErrInit, f.Channels)
	}
	if f.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInit, f.SampleRate)
	}
	return nil
}

// String returns a human-readable string representation of the format.
func (f Format) String() string {
	return fmt.Sprintf("audio/vorbis; rate=%d; channels=%d; quality=%.2f", f.SampleRate, f.Channels, f.Quality)
}

// Phase is the lifecycle phase of an Encoder.
type Phase int

const (
	// HeaderPending: the codec is ready, the header has not been delivered.
	HeaderPending Phase = iota
	// Streaming: the header was delivered and audio chunks are accepted.
	Streaming
	// Finished: end of input was signalled and the stream is complete.
	Finished
	// Closed: codec resources were released.
	Closed
)

func (p Phase) String() string {
	switch p {
	case HeaderPending:
		return "header-pending"
	case Streaming:
		return "streaming"
	case Finished:
		return "finished"
	case Closed:
		return "closed"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}
