package pcm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Encoding is the sample encoding of raw PCM bytes.
type Encoding int

const (
	// F32LE is 32-bit IEEE float, little-endian, nominal range [-1, 1].
	F32LE Encoding = iota
	// S16LE is 16-bit signed integer, little-endian.
	S16LE
)

// ErrUnknownEncoding is returned by ParseEncoding for unrecognized names.
var ErrUnknownEncoding = errors.New("pcm: unknown sample encoding")

// ParseEncoding parses an encoding name such as "f32le" or "s16le".
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "f32le", "f32", "float32":
		return F32LE, nil
	case "s16le", "s16", "l16", "int16":
		return S16LE, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEncoding, s)
}

// BytesPerSample returns the size of one scalar sample.
func (e Encoding) BytesPerSample() int {
	switch e {
	case F32LE:
		return 4
	case S16LE:
		return 2
	}
	panic("pcm: invalid sample encoding")
}

// String returns the canonical encoding name.
func (e Encoding) String() string {
	switch e {
	case F32LE:
		return "f32le"
	case S16LE:
		return "s16le"
	}
	return fmt.Sprintf("Encoding(%d)", int(e))
}

// Format describes a raw interleaved PCM stream.
type Format struct {
	Encoding   Encoding
	Channels   int
	SampleRate int
}

// Validate reports whether the format can describe a stream.
func (f Format) Validate() error {
	if f.Channels < 1 {
		return fmt.Errorf("pcm: invalid channel count %d", f.Channels)
	}
	if f.SampleRate <= 0 {
		return fmt.Errorf("pcm: invalid sample rate %d", f.SampleRate)
	}
	if f.Encoding != F32LE && f.Encoding != S16LE {
		return fmt.Errorf("pcm: invalid sample encoding %d", int(f.Encoding))
	}
	return nil
}

// BytesPerFrame returns the size of one frame (one sample per channel).
func (f Format) BytesPerFrame() int {
	return f.Encoding.BytesPerSample() * f.Channels
}

// FramesInDuration returns the number of frames in the given duration.
func (f Format) FramesInDuration(d time.Duration) int64 {
	return int64(time.Duration(f.SampleRate) * d / time.Second)
}

// BytesInDuration returns the number of bytes in the given duration.
func (f Format) BytesInDuration(d time.Duration) int64 {
	return f.FramesInDuration(d) * int64(f.BytesPerFrame())
}

// Duration returns the duration of the given number of bytes.
func (f Format) Duration(bytes int64) time.Duration {
	frames := bytes / int64(f.BytesPerFrame())
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

// BytesRate returns the byte rate of the audio data.
func (f Format) BytesRate() int {
	return f.SampleRate * f.BytesPerFrame()
}

// String returns a human-readable string representation of the format.
func (f Format) String() string {
	return fmt.Sprintf("%s; rate=%d; channels=%d", f.Encoding, f.SampleRate, f.Channels)
}

// Decode appends the samples in src to dst as float32 and returns the
// extended slice. A trailing partial sample in src is ignored.
func (e Encoding) Decode(dst []float32, src []byte) []float32 {
	switch e {
	case F32LE:
		for i := 0; i+4 <= len(src); i += 4 {
			dst = append(dst, math.Float32frombits(binary.LittleEndian.Uint32(src[i:])))
		}
	case S16LE:
		for i := 0; i+2 <= len(src); i += 2 {
			dst = append(dst, float32(int16(binary.LittleEndian.Uint16(src[i:])))/32768)
		}
	default:
		panic("pcm: invalid sample encoding")
	}
	return dst
}

// Encode appends samples to dst in the given encoding and returns the
// extended slice. S16LE output is clipped to [-1, 1].
func (e Encoding) Encode(dst []byte, samples []float32) []byte {
	switch e {
	case F32LE:
		for _, s := range samples {
			dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(s))
		}
	case S16LE:
		for _, s := range samples {
			v := max(-1, min(1, s)) * 32767
			dst = binary.LittleEndian.AppendUint16(dst, uint16(int16(v)))
		}
	default:
		panic("pcm: invalid sample encoding")
	}
	return dst
}
