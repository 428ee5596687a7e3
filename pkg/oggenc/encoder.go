package oggenc

import (
	"errors"
	"fmt"

	"github.com/haivivi/pcmogg/pkg/audio/codec/ogg"
	"github.com/haivivi/pcmogg/pkg/buffer"
)

// noCopy makes go vet flag copies of an Encoder.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Encoder encodes one Ogg Vorbis stream.
// Must call Close() when done to release the codec.
type Encoder struct {
	_ noCopy

	format   Format
	serial   int32
	analyzer Analyzer
	muxer    Muxer
	acc      *buffer.Bounded[byte]

	phase         Phase
	headerEmitted bool
	eos           bool
	inputDone     bool
	header        []byte
	// lost is set when Finish dropped pages after end of input; the
	// stream can no longer reach its end-of-stream page.
	lost error

	packet ogg.Packet
	page   ogg.Page
}

// New creates an encoder for format. Formats with no channels or a
// non-positive sample rate, and formats the codec rejects, fail with
// ErrInit.
func New(format Format, opts ...Option) (*Encoder, error) {
	if err := format.validate(); err != nil {
		return nil, err
	}
	o := newOptions(opts)
	serial := o.nextSerial()
	analyzer, muxer, err := o.backend(format, serial, o.comments)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInit, format, err)
	}
	return &Encoder{
		format:   format,
		serial:   serial,
		analyzer: analyzer,
		muxer:    muxer,
		acc:      buffer.Bytes(o.limit),
	}, nil
}

// Format returns the stream format.
func (e *Encoder) Format() Format {
	if e == nil {
		return Format{}
	}
	return e.format
}

// Serial returns the Ogg stream serial number.
func (e *Encoder) Serial() int32 {
	if e == nil {
		return 0
	}
	return e.serial
}

// Phase returns the lifecycle phase. A nil encoder reports Closed.
func (e *Encoder) Phase() Phase {
	if e == nil {
		return Closed
	}
	return e.phase
}

// HeaderEmitted reports whether the header pages were delivered.
func (e *Encoder) HeaderEmitted() bool {
	return e != nil && e.headerEmitted
}

// EOS reports whether the end-of-stream page was produced.
func (e *Encoder) EOS() bool {
	return e != nil && e.eos
}

// Close releases the codec. Safe to call multiple times.
func (e *Encoder) Close() error {
	if e == nil {
		return ErrInvalidHandle
	}
	if e.phase == Closed {
		return nil
	}
	e.phase = Closed
	e.analyzer.Close()
	e.muxer.Clear()
	e.acc.Reset()
	e.header = nil
	return nil
}

func (e *Encoder) usable() error {
	if e == nil || e.phase == Closed {
		return ErrInvalidHandle
	}
	return nil
}

// TakeHeader returns the identification, comment and setup header pages on
// the first call and an empty fragment afterwards.
func (e *Encoder) TakeHeader() (*Fragment, error) {
	if err := e.usable(); err != nil {
		return nil, err
	}
	if e.phase != HeaderPending {
		return &Fragment{}, nil
	}
	if e.header == nil {
		header, err := e.buildHeader()
		if err != nil {
			return nil, err
		}
		e.header = header
	}
	// The header stays cached until it fits, so a retry never re-emits
	// header packets.
	if _, err := e.acc.Write(e.header); err != nil {
		return nil, outOfMemory(err)
	}
	e.header = nil
	e.headerEmitted = true
	e.phase = Streaming
	return e.take(), nil
}

func (e *Encoder) buildHeader() ([]byte, error) {
	ident, comment, setup, err := e.analyzer.HeaderOut()
	if err != nil {
		return nil, fmt.Errorf("oggenc: header out: %w", err)
	}
	for _, p := range []*ogg.Packet{&ident, &comment, &setup} {
		if err := e.muxer.PacketIn(p); err != nil {
			return nil, fmt.Errorf("oggenc: header packet in: %w", err)
		}
	}
	// Flush so the first audio packet starts on a fresh page.
	out := buffer.Bytes(0)
	for e.muxer.Flush(&e.page) {
		if _, err := e.page.WriteTo(out); err != nil {
			return nil, fmt.Errorf("oggenc: header page: %w", err)
		}
	}
	return out.Take(), nil
}

// Feed encodes one chunk of interleaved samples and returns the pages that
// became ready, possibly none. len(pcm) must be a multiple of the channel
// count.
//
// Before the header was delivered Feed returns the header and ignores pcm.
// After Finish it returns an empty fragment.
func (e *Encoder) Feed(pcm []float32) (frag *Fragment, err error) {
	if err := e.usable(); err != nil {
		return nil, err
	}
	channels := e.format.Channels
	if len(pcm)%channels != 0 {
		return nil, fmt.Errorf("%w: %d samples for %d channels", ErrMalformedInput, len(pcm), channels)
	}
	switch {
	case e.phase == HeaderPending:
		return e.TakeHeader()
	case e.phase == Finished:
		return &Fragment{}, nil
	case e.lost != nil:
		return nil, e.lost
	}

	defer e.rollback(&err, e.eos)
	for base := 0; ; {
		frames := nextSlice(len(pcm)-base, channels, sliceFrames)
		if frames == 0 {
			break
		}
		deinterleave(e.analyzer.Buffer(frames), pcm, base, frames, channels)
		if err := e.analyzer.Wrote(frames); err != nil {
			return nil, fmt.Errorf("oggenc: analysis wrote: %w", err)
		}
		if err := e.drain(); err != nil {
			return nil, err
		}
		base += frames * channels
	}
	return e.take(), nil
}

// Finish signals end of input and returns the remaining pages through the
// end-of-stream page. Before the header was delivered it returns the header
// instead; after Finish it returns an empty fragment.
//
// A Finish that fails after end of input was signalled has lost pages of
// the tail; every later Feed or Finish returns that error and the encoder
// never reports Finished.
func (e *Encoder) Finish() (frag *Fragment, err error) {
	if err := e.usable(); err != nil {
		return nil, err
	}
	switch {
	case e.phase == HeaderPending:
		return e.TakeHeader()
	case e.phase == Finished:
		return &Fragment{}, nil
	case e.lost != nil:
		return nil, e.lost
	}

	defer e.rollback(&err, e.eos)
	defer func() {
		if err != nil && e.inputDone {
			e.lost = fmt.Errorf("oggenc: end of stream lost: %w", err)
		}
	}()
	if !e.inputDone {
		if err := e.analyzer.Wrote(0); err != nil {
			return nil, fmt.Errorf("oggenc: end of input: %w", err)
		}
		e.inputDone = true
	}
	if err := e.drain(); err != nil {
		return nil, err
	}
	for !e.eos && e.muxer.Flush(&e.page) {
		if err := e.appendPage(); err != nil {
			return nil, err
		}
	}
	if !e.eos {
		return nil, fmt.Errorf("oggenc: no end-of-stream page after end of input")
	}
	e.phase = Finished
	return e.take(), nil
}

// drain moves every ready block through packets into pages, in the order
// the codec produces them.
func (e *Encoder) drain() error {
	for {
		ok, err := e.analyzer.BlockOut()
		if err != nil {
			return fmt.Errorf("oggenc: block out: %w", err)
		}
		if !ok {
			return nil
		}
		for e.analyzer.FlushPacket(&e.packet) {
			if err := e.muxer.PacketIn(&e.packet); err != nil {
				return fmt.Errorf("oggenc: packet in: %w", err)
			}
			for !e.eos && e.muxer.PageOut(&e.page) {
				if err := e.appendPage(); err != nil {
					return err
				}
			}
		}
	}
}

func (e *Encoder) appendPage() error {
	// Reserve header and body together so a page never lands half-written.
	if err := e.acc.Grow(e.page.Len()); err != nil {
		return outOfMemory(err)
	}
	if _, err := e.page.WriteTo(e.acc); err != nil {
		if errors.Is(err, buffer.ErrTooLarge) {
			return outOfMemory(err)
		}
		return fmt.Errorf("oggenc: append page: %w", err)
	}
	if e.page.IsEOS() {
		e.eos = true
	}
	return nil
}

// rollback drops the in-progress fragment and restores eos to its value
// before a failed call. The phase only advances on success.
func (e *Encoder) rollback(err *error, eos bool) {
	if *err == nil {
		return
	}
	e.acc.Reset()
	e.eos = eos
}

func (e *Encoder) take() *Fragment {
	return &Fragment{data: e.acc.Take()}
}

func outOfMemory(err error) error {
	return fmt.Errorf("%w: %w", ErrOutOfMemory, err)
}
