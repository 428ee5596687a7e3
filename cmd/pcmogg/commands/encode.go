package commands

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/pcmogg/pkg/audio/pcm"
	"github.com/haivivi/pcmogg/pkg/cli"
	"github.com/haivivi/pcmogg/pkg/oggenc"
	"github.com/haivivi/pcmogg/pkg/storage"
)

// encodeResult summarises one encoded stream.
type encodeResult struct {
	Input    string `json:"input" yaml:"input"`
	Output   string `json:"output" yaml:"output"`
	Session  string `json:"session,omitempty" yaml:"session,omitempty"`
	Serial   *int32 `json:"serial,omitempty" yaml:"serial,omitempty"`
	Format   string `json:"format" yaml:"format"`
	Mode     string `json:"mode" yaml:"mode"`
	Frames   int64  `json:"frames" yaml:"frames"`
	Bytes    int64  `json:"bytes" yaml:"bytes"`
	Duration string `json:"duration" yaml:"duration"`
	Bitrate  string `json:"bitrate" yaml:"bitrate"`
	Elapsed  string `json:"elapsed" yaml:"elapsed"`
}

func newEncodeResult(in, out, mode string, s settings, frames, bytes int64, elapsed time.Duration) *encodeResult {
	audio := time.Duration(0)
	if s.format.SampleRate > 0 {
		audio = time.Duration(frames) * time.Second / time.Duration(s.format.SampleRate)
	}
	return &encodeResult{
		Input:    in,
		Output:   out,
		Serial:   s.serial,
		Format:   s.format.String(),
		Mode:     mode,
		Frames:   frames,
		Bytes:    bytes,
		Duration: cli.FormatDuration(audio),
		Bitrate:  cli.FormatBitrate(bytes, audio),
		Elapsed:  cli.FormatDuration(elapsed),
	}
}

func (r *encodeResult) Table() cli.Table {
	t := cli.Table{
		Title:  r.Output,
		Status: r.Mode,
		Rows: []cli.Row{
			{Label: "input", Value: r.Input},
			{Label: "format", Value: r.Format},
			{Label: "audio", Value: fmt.Sprintf("%s (%d frames)", r.Duration, r.Frames)},
			{Label: "size", Value: fmt.Sprintf("%s at %s", cli.FormatBytes(r.Bytes), r.Bitrate)},
			{Label: "elapsed", Value: r.Elapsed},
		},
	}
	if r.Session != "" {
		t.Rows = append(t.Rows, cli.Row{Label: "session", Value: r.Session})
	}
	if r.Serial != nil {
		t.Rows = append(t.Rows, cli.Row{Label: "serial", Value: strconv.FormatInt(int64(*r.Serial), 10)})
	}
	return t
}

func newEncodeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode raw PCM into Ogg Vorbis",
		Long: `Encode interleaved raw PCM into an Ogg Vorbis stream.

By default the whole input is read into memory and encoded in one call.
With --stream the input is encoded chunk by chunk as it is read, which
suits live captures and inputs larger than memory.

Examples:
  pcmogg encode -i take.pcm -o take.ogg --channels 2 --rate 48000 --quality 0.6
  pcmogg encode -i s3://raw/take.pcm -o s3://encoded/take.ogg -p prod
  cat take.pcm | pcmogg encode --stream --chunk-ms 20 > take.ogg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _ := cmd.Flags().GetString("input")
			output, _ := cmd.Flags().GetString("output")
			stream, _ := cmd.Flags().GetBool("stream")

			p, err := a.profile()
			if err != nil {
				return err
			}
			s, err := resolveSettings(cmd, p)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cfg := a.s3Config(p)

			in, err := a.openInput(ctx, input, cfg)
			if err != nil {
				return err
			}
			defer in.Close()
			out, err := a.openOutput(ctx, output, cfg)
			if err != nil {
				return err
			}

			a.logger.Debug("encoding", "format", s.format, "input", s.input, "stream", stream)
			start := time.Now()
			var (
				frames int64
				n      int64
				mode   = "one-shot"
			)
			if stream {
				mode = "stream"
				r := pcm.NewReader(in, s.input, s.chunk)
				n, err = oggenc.EncodeTo(out, s.format, r, s.options()...)
				frames = r.Frames()
			} else {
				var samples []float32
				if samples, err = pcm.ReadAll(in, s.input); err == nil {
					frames = int64(len(samples) / s.format.Channels)
					n, err = encodeAll(out, s, samples)
				}
			}
			if err := finishOutput(out, err); err != nil {
				return err
			}
			return a.printTo(a.summaryWriter(output),
				newEncodeResult(input, output, mode, s, frames, n, time.Since(start)))
		},
	}
	cmd.Flags().StringP("input", "i", storage.Stdio, "input location: path, s3://bucket/key or - for stdin")
	cmd.Flags().StringP("output", "o", storage.Stdio, "output location: path, s3://bucket/key or - for stdout")
	cmd.Flags().Bool("stream", false, "encode while reading instead of reading the whole input first")
	addFormatFlags(cmd)
	addStreamFlags(cmd)
	addEncoderFlags(cmd)
	return cmd
}

func encodeAll(w io.Writer, s settings, samples []float32) (int64, error) {
	frag, err := oggenc.EncodeAll(s.format, samples, s.options()...)
	if err != nil {
		return 0, err
	}
	defer frag.Release()
	return frag.WriteTo(w)
}
