package oggenc

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/jfreymuth/oggvorbis"

	"github.com/haivivi/pcmogg/pkg/audio/pcm"
)

func sine(frames, channels, rate int) []float32 {
	out := make([]float32, 0, frames*channels)
	for j := range frames {
		for c := range channels {
			freq := 440.0 * float64(c+1)
			out = append(out, float32(0.4*math.Sin(2*math.Pi*freq*float64(j)/float64(rate))))
		}
	}
	return out
}

func TestVorbis_Silence(t *testing.T) {
	format := Format{Channels: 1, SampleRate: 44100, Quality: 0.5}
	enc, err := New(format, WithSerial(1))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer enc.Close()

	var stream bytes.Buffer

	header, err := enc.TakeHeader()
	if err != nil {
		t.Fatalf("TakeHeader failed: %v", err)
	}
	if header.Len() == 0 {
		t.Fatal("header fragment is empty")
	}
	header.WriteTo(&stream)
	header.Release()

	data, err := enc.Feed(make([]float32, 2048))
	if err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
	t.Logf("Feed produced %d bytes", data.Len())
	data.WriteTo(&stream)
	data.Release()

	tail, err := enc.Finish()
	if err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if tail.Len() == 0 {
		t.Fatal("Finish returned an empty fragment")
	}
	pages := readPages(t, tail.Bytes())
	if !pages[len(pages)-1].eos {
		t.Error("Finish fragment does not end with an EOS page")
	}
	tail.WriteTo(&stream)
	tail.Release()
	t.Logf("Encoded %d bytes", stream.Len())

	samples, got, err := oggvorbis.ReadAll(bytes.NewReader(stream.Bytes()))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.SampleRate != 44100 || got.Channels != 1 {
		t.Errorf("decoded format = %d Hz %d ch, want 44100 Hz mono", got.SampleRate, got.Channels)
	}
	if len(samples) < 2048 {
		t.Errorf("decoded %d samples, want at least 2048", len(samples))
	}
	for i, s := range samples {
		if math.Abs(float64(s)) > 1e-3 {
			t.Fatalf("sample %d = %v, want near silence", i, s)
		}
	}
}

func TestVorbis_HalfFrame(t *testing.T) {
	format := Format{Channels: 2, SampleRate: 48000, Quality: 1.0}
	enc, err := New(format)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer enc.Close()

	if _, err := enc.TakeHeader(); err != nil {
		t.Fatalf("TakeHeader failed: %v", err)
	}
	if _, err := enc.Feed([]float32{0.25}); !errors.Is(err, ErrMalformedInput) {
		t.Errorf("Feed(1 sample) error = %v, want ErrMalformedInput", err)
	}
	if !enc.HeaderEmitted() || enc.EOS() {
		t.Errorf("flags changed: header %v, eos %v", enc.HeaderEmitted(), enc.EOS())
	}

	if _, err := EncodeAll(format, []float32{0.25}); !errors.Is(err, ErrMalformedInput) {
		t.Errorf("EncodeAll(1 sample) error = %v, want ErrMalformedInput", err)
	}
}

func TestVorbis_InitErrors(t *testing.T) {
	tests := []struct {
		name   string
		format Format
	}{
		{"quality below range", Format{Channels: 1, SampleRate: 44100, Quality: -1}},
		{"no channels", Format{Channels: 0, SampleRate: 44100, Quality: 0.5}},
		{"no rate", Format{Channels: 2, SampleRate: 0, Quality: 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := New(tt.format)
			if !errors.Is(err, ErrInit) {
				enc.Close()
				t.Fatalf("New() error = %v, want ErrInit", err)
			}
		})
	}
}

func TestVorbis_Equivalence(t *testing.T) {
	const (
		channels = 2
		rate     = 44100
		frames   = 10000
	)
	format := Format{Channels: channels, SampleRate: rate, Quality: 0.4}
	input := sine(frames, channels, rate)

	whole, err := EncodeAll(format, input, WithSerial(42))
	if err != nil {
		t.Fatalf("EncodeAll failed: %v", err)
	}
	t.Logf("EncodeAll produced %d bytes", whole.Len())

	for _, split := range [][]int{
		{1, 333, 1024, 4000, 4642},
		{5000, 5000},
		{9999, 1},
	} {
		enc, err := New(format, WithSerial(42))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		var out bytes.Buffer
		header, _ := enc.TakeHeader()
		header.WriteTo(&out)
		base := 0
		for _, n := range split {
			frag, err := enc.Feed(input[base : base+n*channels])
			if err != nil {
				t.Fatalf("split %v: Feed failed: %v", split, err)
			}
			frag.WriteTo(&out)
			base += n * channels
		}
		tail, err := enc.Finish()
		if err != nil {
			t.Fatalf("split %v: Finish failed: %v", split, err)
		}
		tail.WriteTo(&out)
		enc.Close()

		if !bytes.Equal(out.Bytes(), whole.Bytes()) {
			t.Errorf("split %v: streaming output (%d bytes) differs from EncodeAll (%d bytes)",
				split, out.Len(), whole.Len())
		}
	}

	samples, got, err := oggvorbis.ReadAll(bytes.NewReader(whole.Bytes()))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.Channels != channels || got.SampleRate != rate {
		t.Errorf("decoded format = %d Hz %d ch", got.SampleRate, got.Channels)
	}
	if len(samples) < frames*channels {
		t.Errorf("decoded %d samples, want at least %d", len(samples), frames*channels)
	}
}

func TestVorbis_Comments(t *testing.T) {
	out, err := EncodeAll(Format{Channels: 1, SampleRate: 22050, Quality: 0.3}, sine(4096, 1, 22050),
		WithTag("TITLE", "tone"))
	if err != nil {
		t.Fatalf("EncodeAll failed: %v", err)
	}
	pages := readPages(t, out.Bytes())
	var comment []byte
	for _, p := range pages {
		for _, pkt := range p.packets {
			if pkt[0] == 3 {
				comment = pkt
			}
		}
	}
	for _, tag := range []string{"ENCODER=pcmogg", "TITLE=tone"} {
		if !bytes.Contains(comment, []byte(tag)) {
			t.Errorf("comment header is missing %q", tag)
		}
	}
}

func TestEncodeTo(t *testing.T) {
	const rate = 16000
	format := Format{Channels: 1, SampleRate: rate, Quality: 0.5}
	input := sine(rate, 1, rate)
	raw := pcm.F32LE.Encode(nil, input)

	want, err := EncodeAll(format, input, WithSerial(5))
	if err != nil {
		t.Fatalf("EncodeAll failed: %v", err)
	}

	r := pcm.NewReader(bytes.NewReader(raw), pcm.Format{Encoding: pcm.F32LE, Channels: 1, SampleRate: rate}, 0)
	var out bytes.Buffer
	n, err := EncodeTo(&out, format, r, WithSerial(5))
	if err != nil {
		t.Fatalf("EncodeTo failed: %v", err)
	}
	if n != int64(out.Len()) {
		t.Errorf("EncodeTo returned %d, wrote %d", n, out.Len())
	}
	if !bytes.Equal(out.Bytes(), want.Bytes()) {
		t.Errorf("EncodeTo output (%d bytes) differs from EncodeAll (%d bytes)", out.Len(), want.Len())
	}

	mismatch := pcm.NewReader(bytes.NewReader(raw), pcm.Format{Encoding: pcm.F32LE, Channels: 2, SampleRate: rate}, 0)
	if _, err := EncodeTo(&out, format, mismatch); !errors.Is(err, ErrInit) {
		t.Errorf("EncodeTo channel mismatch = %v, want ErrInit", err)
	}

	partial := pcm.NewReader(bytes.NewReader(raw[:10]), pcm.Format{Encoding: pcm.F32LE, Channels: 1, SampleRate: rate}, 0)
	if _, err := EncodeTo(&bytes.Buffer{}, format, partial); !errors.Is(err, ErrMalformedInput) {
		t.Errorf("EncodeTo partial frame = %v, want ErrMalformedInput", err)
	}
}
