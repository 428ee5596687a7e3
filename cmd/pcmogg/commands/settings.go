package commands

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/pcmogg/pkg/audio/pcm"
	"github.com/haivivi/pcmogg/pkg/cli"
	"github.com/haivivi/pcmogg/pkg/oggenc"
)

// Defaults for settings neither a flag nor the profile sets.
const (
	defaultChannels   = 2
	defaultSampleRate = 48000
	defaultQuality    = 0.5
	defaultEncoding   = "f32le"
)

// settings is the merged result of flags, profile and defaults.
type settings struct {
	format   oggenc.Format
	input    pcm.Format
	chunk    time.Duration
	limit    int
	serial   *int32
	tags     map[string]string
	tagOrder []string
}

func addFormatFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("channels", defaultChannels, "number of interleaved channels")
	f.Int("rate", defaultSampleRate, "sample rate in Hz")
	f.Float32("quality", defaultQuality, "Vorbis VBR quality, 0.0 to 1.0")
	f.String("format", defaultEncoding, "input sample encoding: f32le or s16le")
}

// addStreamFlags adds the flags shared by local and remote encoding.
func addStreamFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("chunk-ms", int(pcm.DefaultChunk/time.Millisecond), "streaming read size in milliseconds")
	f.Int32("serial", 0, "Ogg stream serial number (default: next in sequence)")
}

// addEncoderFlags adds the flags of a local encoder.
func addEncoderFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("fragment-limit", 0, "maximum size of one encoded fragment in bytes (0: no limit)")
	f.StringArray("tag", nil, "Vorbis comment KEY=VALUE, repeatable")
}

// resolveSettings merges flags over profile values over defaults. Only
// flags the user set override the profile.
func resolveSettings(cmd *cobra.Command, p *cli.Profile) (settings, error) {
	f := cmd.Flags()
	var s settings

	s.format.Channels, _ = f.GetInt("channels")
	if !f.Changed("channels") && p.Channels > 0 {
		s.format.Channels = p.Channels
	}
	s.format.SampleRate, _ = f.GetInt("rate")
	if !f.Changed("rate") && p.SampleRate > 0 {
		s.format.SampleRate = p.SampleRate
	}
	s.format.Quality, _ = f.GetFloat32("quality")
	if !f.Changed("quality") && p.Quality != nil {
		s.format.Quality = *p.Quality
	}

	name, _ := f.GetString("format")
	if !f.Changed("format") && p.Encoding != "" {
		name = p.Encoding
	}
	enc, err := pcm.ParseEncoding(name)
	if err != nil {
		return s, err
	}
	s.input = pcm.Format{Encoding: enc, Channels: s.format.Channels, SampleRate: s.format.SampleRate}
	if err := s.input.Validate(); err != nil {
		return s, err
	}

	if f.Lookup("chunk-ms") != nil {
		ms, _ := f.GetInt("chunk-ms")
		if !f.Changed("chunk-ms") && p.ChunkMS > 0 {
			ms = p.ChunkMS
		}
		s.chunk = time.Duration(ms) * time.Millisecond
	}
	if f.Changed("serial") {
		serial, _ := f.GetInt32("serial")
		s.serial = &serial
	}
	if f.Lookup("tag") == nil {
		return s, nil
	}

	s.limit, _ = f.GetInt("fragment-limit")
	if !f.Changed("fragment-limit") && p.FragmentLimit > 0 {
		s.limit = p.FragmentLimit
	}

	s.tags = maps.Clone(p.Tags)
	if s.tags == nil {
		s.tags = make(map[string]string)
	}
	s.tagOrder = slices.Sorted(maps.Keys(s.tags))
	raw, _ := f.GetStringArray("tag")
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return s, fmt.Errorf("invalid --tag %q, want KEY=VALUE", kv)
		}
		if _, seen := s.tags[key]; !seen {
			s.tagOrder = append(s.tagOrder, key)
		}
		s.tags[key] = value
	}
	return s, nil
}

// options returns the encoder options for s.
func (s settings) options() []oggenc.Option {
	var opts []oggenc.Option
	if s.serial != nil {
		opts = append(opts, oggenc.WithSerial(*s.serial))
	}
	if s.limit > 0 {
		opts = append(opts, oggenc.WithFragmentLimit(s.limit))
	}
	for _, key := range s.tagOrder {
		opts = append(opts, oggenc.WithTag(key, s.tags[key]))
	}
	return opts
}
