package oggenc

import (
	"github.com/haivivi/pcmogg/pkg/audio/codec/ogg"
	"github.com/haivivi/pcmogg/pkg/audio/codec/vorbis"
)

// Analyzer is the compressor half of the codec: it takes planar samples
// and turns them into header and audio packets.
type Analyzer interface {
	Channels() int
	// HeaderOut returns the identification, comment and setup packets.
	HeaderOut() (ident, comment, setup ogg.Packet, err error)
	// Buffer returns Channels() planes of frames samples each to write
	// the next input into.
	Buffer(frames int) [][]float32
	// Wrote commits frames samples per plane. Zero marks end of input.
	Wrote(frames int) error
	// BlockOut analyses the next complete block, reporting false when more
	// input is needed.
	BlockOut() (bool, error)
	FlushPacket(p *ogg.Packet) bool
	Close()
}

// Muxer is the container half: it frames packets into Ogg pages.
type Muxer interface {
	PacketIn(p *ogg.Packet) error
	// PageOut returns a page once enough data has accumulated.
	PageOut(pg *ogg.Page) bool
	// Flush forces out a page with whatever is pending.
	Flush(pg *ogg.Page) bool
	Clear()
}

var (
	_ Analyzer = (*vorbis.Encoder)(nil)
	_ Muxer    = (*ogg.StreamState)(nil)
)

// Comment is a Vorbis user comment such as TITLE or ARTIST.
type Comment struct {
	Key   string
	Value string
}

// Backend creates the codec pair for a new stream.
type Backend func(format Format, serial int32, comments []Comment) (Analyzer, Muxer, error)

// VorbisBackend pairs a libvorbis encoder with a libogg stream.
func VorbisBackend(format Format, serial int32, comments []Comment) (Analyzer, Muxer, error) {
	opts := make([]vorbis.Option, 0, len(comments))
	for _, c := range comments {
		opts = append(opts, vorbis.WithComment(c.Key, c.Value))
	}
	enc, err := vorbis.NewEncoder(format.Channels, format.SampleRate, format.Quality, opts...)
	if err != nil {
		return nil, nil, err
	}
	stream, err := ogg.NewStreamState(serial)
	if err != nil {
		enc.Close()
		return nil, nil, err
	}
	return enc, stream, nil
}
