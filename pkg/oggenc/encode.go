package oggenc

import (
	"errors"
	"fmt"
	"io"

	"github.com/haivivi/pcmogg/pkg/audio/pcm"
	"github.com/haivivi/pcmogg/pkg/buffer"
)

// EncodeAll encodes a complete interleaved PCM buffer into one fragment
// holding the whole Ogg Vorbis stream. The fragment limit applies to the
// combined output.
func EncodeAll(format Format, samples []float32, opts ...Option) (*Fragment, error) {
	enc, err := New(format, opts...)
	if err != nil {
		return nil, err
	}
	defer enc.Close()

	out := buffer.Bytes(enc.acc.Limit())
	steps := []func() (*Fragment, error){
		enc.TakeHeader,
		func() (*Fragment, error) { return enc.Feed(samples) },
		enc.Finish,
	}
	for _, step := range steps {
		frag, err := step()
		if err != nil {
			return nil, err
		}
		_, err = out.Write(frag.Bytes())
		frag.Release()
		if err != nil {
			return nil, outOfMemory(err)
		}
	}
	return &Fragment{data: out.Take()}, nil
}

// EncodeTo reads r to the end and writes the encoded stream to w, one
// fragment per chunk. It returns the number of bytes written.
//
// The channel count and sample rate of format must match the reader.
func EncodeTo(w io.Writer, format Format, r pcm.FrameReader, opts ...Option) (int64, error) {
	if in := r.Format(); in.Channels != format.Channels || in.SampleRate != format.SampleRate {
		return 0, fmt.Errorf("%w: input is %d ch %d Hz, output is %d ch %d Hz",
			ErrInit, in.Channels, in.SampleRate, format.Channels, format.SampleRate)
	}
	enc, err := New(format, opts...)
	if err != nil {
		return 0, err
	}
	defer enc.Close()

	var written int64
	emit := func(frag *Fragment, err error) error {
		if err != nil {
			return err
		}
		defer frag.Release()
		n, err := frag.WriteTo(w)
		written += n
		return err
	}

	if err := emit(enc.TakeHeader()); err != nil {
		return written, err
	}
	for {
		samples, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, pcm.ErrPartialFrame) {
			return written, fmt.Errorf("%w: %w", ErrMalformedInput, err)
		}
		if err != nil {
			return written, fmt.Errorf("oggenc: read input: %w", err)
		}
		if err := emit(enc.Feed(samples)); err != nil {
			return written, err
		}
	}
	err = emit(enc.Finish())
	return written, err
}
