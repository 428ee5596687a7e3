package commands

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jfreymuth/oggvorbis"
	"github.com/spf13/cobra"

	"github.com/haivivi/pcmogg/pkg/audio/codec/ogg"
	"github.com/haivivi/pcmogg/pkg/cli"
)

// pageInfo describes one Ogg page.
type pageInfo struct {
	Serial   int32 `json:"serial" yaml:"serial"`
	Sequence int64 `json:"sequence" yaml:"sequence"`
	Granule  int64 `json:"granule" yaml:"granule"`
	Packets  int   `json:"packets" yaml:"packets"`
	Size     int   `json:"size" yaml:"size"`
	BOS      bool  `json:"bos,omitempty" yaml:"bos,omitempty"`
	EOS      bool  `json:"eos,omitempty" yaml:"eos,omitempty"`
}

// decodeInfo is what an independent Vorbis decoder makes of the stream.
type decodeInfo struct {
	SampleRate int    `json:"sample_rate" yaml:"sample_rate"`
	Channels   int    `json:"channels" yaml:"channels"`
	Frames     int64  `json:"frames" yaml:"frames"`
	Duration   string `json:"duration" yaml:"duration"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

type inspectResult struct {
	File    string      `json:"file" yaml:"file"`
	Bytes   int64       `json:"bytes" yaml:"bytes"`
	Streams []int32     `json:"streams" yaml:"streams"`
	Resyncs int         `json:"resyncs" yaml:"resyncs"`
	Pages   []pageInfo  `json:"pages" yaml:"pages"`
	Decoded *decodeInfo `json:"decoded,omitempty" yaml:"decoded,omitempty"`
}

func (r *inspectResult) Table() cli.Table {
	status := "ok"
	if r.Resyncs > 0 {
		status = fmt.Sprintf("%d resyncs", r.Resyncs)
	}
	if n := len(r.Pages); n == 0 || !r.Pages[n-1].EOS {
		status = "no end of stream"
	}
	t := cli.Table{
		Title:  r.File,
		Status: status,
		Rows: []cli.Row{
			{Label: "size", Value: cli.FormatBytes(r.Bytes)},
			{Label: "streams", Value: fmt.Sprint(r.Streams)},
			{Label: "pages", Value: strconv.Itoa(len(r.Pages))},
		},
	}
	if d := r.Decoded; d != nil {
		value := fmt.Sprintf("%d Hz, %d ch, %s", d.SampleRate, d.Channels, d.Duration)
		if d.Error != "" {
			value = d.Error
		}
		t.Rows = append(t.Rows, cli.Row{Label: "decoded", Value: value})
	}
	for _, p := range r.Pages {
		flags := ""
		if p.BOS {
			flags += " BOS"
		}
		if p.EOS {
			flags += " EOS"
		}
		t.Rows = append(t.Rows, cli.Row{
			Label: fmt.Sprintf("page %d", p.Sequence),
			Value: fmt.Sprintf("serial=%d granule=%d packets=%d size=%d%s", p.Serial, p.Granule, p.Packets, p.Size, flags),
		})
	}
	return t
}

func newInspectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "List the pages of an Ogg stream",
		Long: `Scan an Ogg file page by page and report serial numbers, sequence
numbers, granule positions and BOS/EOS flags. With --decode the stream is
also decoded by an independent Vorbis decoder to check it plays.

The file may be a local path, s3://bucket/key or - for stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decode, _ := cmd.Flags().GetBool("decode")
			p, err := a.profile()
			if err != nil {
				return err
			}
			in, err := a.openInput(cmd.Context(), args[0], a.s3Config(p))
			if err != nil {
				return err
			}
			defer in.Close()
			data, err := io.ReadAll(in)
			if err != nil {
				return err
			}

			result, err := inspect(data)
			if err != nil {
				return err
			}
			result.File = args[0]
			if decode {
				result.Decoded = decodeVorbis(data)
			}
			return a.print(result)
		},
	}
	cmd.Flags().Bool("decode", false, "decode the stream to check it")
	return cmd
}

// inspect lists the pages of an Ogg stream held in memory.
func inspect(data []byte) (*inspectResult, error) {
	dec, err := ogg.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	r := &inspectResult{Bytes: int64(len(data)), Streams: []int32{}, Pages: []pageInfo{}}
	seen := make(map[int32]bool)
	for {
		page, err := dec.ReadPage()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		info := pageInfo{
			Serial:   page.SerialNo(),
			Sequence: page.PageNo(),
			Granule:  page.GranulePos(),
			Packets:  page.Packets(),
			Size:     page.Len(),
			BOS:      page.IsBOS(),
			EOS:      page.IsEOS(),
		}
		if !seen[info.Serial] {
			seen[info.Serial] = true
			r.Streams = append(r.Streams, info.Serial)
		}
		r.Pages = append(r.Pages, info)
	}
	r.Resyncs = dec.Skipped()
	return r, nil
}

func decodeVorbis(data []byte) *decodeInfo {
	samples, format, err := oggvorbis.ReadAll(bytes.NewReader(data))
	if err != nil {
		return &decodeInfo{Error: err.Error()}
	}
	d := &decodeInfo{SampleRate: format.SampleRate, Channels: format.Channels}
	if format.Channels > 0 && format.SampleRate > 0 {
		d.Frames = int64(len(samples) / format.Channels)
		d.Duration = cli.FormatDuration(time.Duration(d.Frames) * time.Second / time.Duration(format.SampleRate))
	}
	return d
}
