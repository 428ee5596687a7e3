package oggenc

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/haivivi/pcmogg/pkg/audio/codec/ogg"
)

// fakeAnalyzer emits one fixed-size packet per blockFrames frames of input
// and records everything the encoder hands it.
type fakeAnalyzer struct {
	channels    int
	blockFrames int
	packetSize  int

	planes   [][]float32
	received [][]float32
	slices   []int
	pending  int
	eof      bool
	flushed  bool
	granule  int64
	packetNo int64
	queue    []ogg.Packet

	headerCalls int
	closed      bool
}

func newFakeAnalyzer(channels int) *fakeAnalyzer {
	return &fakeAnalyzer{
		channels:    channels,
		blockFrames: 256,
		packetSize:  600,
		received:    make([][]float32, channels),
		packetNo:    3,
	}
}

func (a *fakeAnalyzer) Channels() int { return a.channels }

func (a *fakeAnalyzer) HeaderOut() (ident, comment, setup ogg.Packet, err error) {
	a.headerCalls++
	ident = ogg.NewPacket([]byte("\x01fake-ident"), 0, 0, true, false)
	comment = ogg.NewPacket([]byte("\x03fake-comment"), 0, 1, false, false)
	setup = ogg.NewPacket(bytes.Repeat([]byte{5}, 300), 0, 2, false, false)
	return ident, comment, setup, nil
}

func (a *fakeAnalyzer) Buffer(frames int) [][]float32 {
	a.planes = make([][]float32, a.channels)
	for c := range a.planes {
		a.planes[c] = make([]float32, frames)
	}
	return a.planes
}

func (a *fakeAnalyzer) Wrote(frames int) error {
	if frames == 0 {
		a.eof = true
		return nil
	}
	for c := range a.channels {
		a.received[c] = append(a.received[c], a.planes[c][:frames]...)
	}
	a.slices = append(a.slices, frames)
	a.pending += frames
	return nil
}

func (a *fakeAnalyzer) BlockOut() (bool, error) {
	switch {
	case a.pending >= a.blockFrames:
		a.pending -= a.blockFrames
		a.enqueue(a.blockFrames, false)
		return true, nil
	case a.eof && !a.flushed:
		a.flushed = true
		a.enqueue(a.pending, true)
		a.pending = 0
		return true, nil
	}
	return false, nil
}

func (a *fakeAnalyzer) enqueue(frames int, eos bool) {
	a.granule += int64(frames)
	data := bytes.Repeat([]byte{byte(a.packetNo)}, a.packetSize)
	a.queue = append(a.queue, ogg.NewPacket(data, a.granule, a.packetNo, false, eos))
	a.packetNo++
}

func (a *fakeAnalyzer) FlushPacket(p *ogg.Packet) bool {
	if len(a.queue) == 0 {
		return false
	}
	*p = a.queue[0]
	a.queue = a.queue[1:]
	return true
}

func (a *fakeAnalyzer) Close() { a.closed = true }

// fakeBackend pairs a fakeAnalyzer with a real libogg stream and records
// what the encoder asked for.
type fakeBackend struct {
	analyzer *fakeAnalyzer
	serial   int32
	comments []Comment
	calls    int
	err      error
}

func (b *fakeBackend) new(format Format, serial int32, comments []Comment) (Analyzer, Muxer, error) {
	b.calls++
	if b.err != nil {
		return nil, nil, b.err
	}
	b.serial = serial
	b.comments = comments
	b.analyzer = newFakeAnalyzer(format.Channels)
	stream, err := ogg.NewStreamState(serial)
	if err != nil {
		return nil, nil, err
	}
	return b.analyzer, stream, nil
}

func newFakeEncoder(t *testing.T, channels int, opts ...Option) (*Encoder, *fakeBackend) {
	t.Helper()
	b := &fakeBackend{}
	opts = append([]Option{WithSerial(1234)}, opts...)
	opts = append(opts, WithBackend(b.new))
	enc, err := New(Format{Channels: channels, SampleRate: 48000, Quality: 0.5}, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { enc.Close() })
	return enc, b
}

// ramp returns frames interleaved frames where channel c of frame j holds
// c*1000 + j.
func ramp(frames, channels int) []float32 {
	out := make([]float32, 0, frames*channels)
	for j := range frames {
		for c := range channels {
			out = append(out, float32(c*1000+j))
		}
	}
	return out
}

type oggPage struct {
	serial  int32
	bos     bool
	eos     bool
	granule int64
	packets [][]byte
}

// readPages splits an Ogg stream into pages and the packets completed on
// each page.
func readPages(t *testing.T, data []byte) []oggPage {
	t.Helper()
	dec, err := ogg.NewDecoder(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewDecoder failed: %v", err)
	}
	defer dec.Close()

	var (
		pages  []oggPage
		stream *ogg.StreamState
		packet ogg.Packet
	)
	for {
		page, err := dec.ReadPage()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadPage failed: %v", err)
		}
		if stream == nil {
			if stream, err = ogg.NewStreamState(page.SerialNo()); err != nil {
				t.Fatalf("NewStreamState failed: %v", err)
			}
			defer stream.Clear()
		}
		if err := stream.PageIn(page); err != nil {
			t.Fatalf("PageIn failed: %v", err)
		}
		p := oggPage{
			serial:  page.SerialNo(),
			bos:     page.IsBOS(),
			eos:     page.IsEOS(),
			granule: page.GranulePos(),
		}
		for {
			err := stream.PacketOut(&packet)
			if errors.Is(err, ogg.ErrNoPacket) {
				break
			}
			if err != nil {
				t.Fatalf("PacketOut failed: %v", err)
			}
			p.packets = append(p.packets, packet.Data())
		}
		pages = append(pages, p)
	}
	if dec.Skipped() != 0 {
		t.Errorf("decoder skipped %d bytes of garbage", dec.Skipped())
	}
	return pages
}
