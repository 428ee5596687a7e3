package pcm

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrPartialFrame is returned when a stream ends in the middle of a frame.
var ErrPartialFrame = errors.New("pcm: stream ends with a partial frame")

// DefaultChunk is the chunk duration used when NewReader gets a
// non-positive one.
const DefaultChunk = 100 * time.Millisecond

// FrameReader yields interleaved float32 samples in chunks of whole frames.
// Read returns io.EOF at the end of the stream.
type FrameReader interface {
	Format() Format
	Read() ([]float32, error)
}

// Reader reads interleaved float32 samples from a raw PCM stream in chunks
// of whole frames.
type Reader struct {
	r      io.Reader
	format Format
	buf    []byte
	out    []float32
	frames int64
}

// NewReader creates a Reader that returns at most chunk worth of frames per
// Read. Chunks shorter than one frame are rounded up to one frame.
func NewReader(r io.Reader, format Format, chunk time.Duration) *Reader {
	if chunk <= 0 {
		chunk = DefaultChunk
	}
	size := max(format.BytesInDuration(chunk), int64(format.BytesPerFrame()))
	return &Reader{
		r:      r,
		format: format,
		buf:    make([]byte, size),
	}
}

// Format returns the format of the underlying stream.
func (r *Reader) Format() Format {
	return r.format
}

// Frames returns the number of frames read so far.
func (r *Reader) Frames() int64 {
	return r.frames
}

// Read returns the next chunk of samples. The slice is reused by the next
// call. At the end of the stream Read returns io.EOF; a stream that stops
// inside a frame returns the whole frames first and then ErrPartialFrame.
func (r *Reader) Read() ([]float32, error) {
	n, err := io.ReadFull(r.r, r.buf)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		if tail := n % r.format.BytesPerFrame(); tail != 0 {
			if n -= tail; n == 0 {
				return nil, fmt.Errorf("%w: %d trailing bytes", ErrPartialFrame, tail)
			}
			// Whole frames go out now; the next call reports the tail.
			r.r = &tailReader{tail: tail}
		}
	default:
		return nil, err
	}
	r.out = r.format.Encoding.Decode(r.out[:0], r.buf[:n])
	r.frames += int64(n / r.format.BytesPerFrame())
	return r.out, nil
}

var _ FrameReader = (*Reader)(nil)

// tailReader reports a partial frame once the whole frames before it have
// been consumed.
type tailReader struct {
	tail int
}

func (t *tailReader) Read([]byte) (int, error) {
	return 0, fmt.Errorf("%w: %d trailing bytes", ErrPartialFrame, t.tail)
}

// ReadAll reads the whole stream into memory.
func ReadAll(r io.Reader, format Format) ([]float32, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if tail := len(data) % format.BytesPerFrame(); tail != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrPartialFrame, tail)
	}
	return format.Encoding.Decode(make([]float32, 0, len(data)/format.Encoding.BytesPerSample()), data), nil
}
