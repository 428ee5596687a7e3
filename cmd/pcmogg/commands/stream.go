package commands

import (
	"errors"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/pcmogg/pkg/audio/pcm"
	"github.com/haivivi/pcmogg/pkg/storage"
	"github.com/haivivi/pcmogg/pkg/wsencode"
)

const defaultServer = "ws://localhost:8080"

func newStreamCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Encode through a remote 'pcmogg serve'",
		Long: `Send raw PCM to a pcmogg WebSocket server chunk by chunk and write the
returned Ogg Vorbis stream as it arrives.

Examples:
  pcmogg stream --url ws://encoder:8080 -i take.pcm -o take.ogg
  arecord -f FLOAT_LE -c 1 -r 16000 -t raw | pcmogg stream --channels 1 --rate 16000 -o live.ogg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _ := cmd.Flags().GetString("input")
			output, _ := cmd.Flags().GetString("output")
			server, _ := cmd.Flags().GetString("url")

			p, err := a.profile()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("url") && p.Server != "" {
				server = p.Server
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

			var dialOpts []wsencode.DialOption
			if s.serial != nil {
				dialOpts = append(dialOpts, wsencode.WithDialSerial(*s.serial))
			}
			start := time.Now()
			c, err := wsencode.Dial(ctx, server, s.format, out, dialOpts...)
			if err != nil {
				return finishOutput(out, err)
			}
			defer c.Close()
			a.logger.Debug("session opened", "server", server, "session", c.Session(), "serial", c.Serial())

			r := pcm.NewReader(in, s.input, s.chunk)
			var n int64
			if err = sendAll(c, r); err == nil {
				n, err = c.Finish(ctx)
			} else {
				// Stop the reader goroutine before the output is discarded.
				c.Close()
			}
			if err := finishOutput(out, err); err != nil {
				return err
			}

			serial := c.Serial()
			s.serial = &serial
			result := newEncodeResult(input, output, "remote", s, r.Frames(), n, time.Since(start))
			result.Session = c.Session()
			return a.printTo(a.summaryWriter(output), result)
		},
	}
	cmd.Flags().String("url", defaultServer, "server URL (default: profile server)")
	cmd.Flags().StringP("input", "i", storage.Stdio, "input location: path, s3://bucket/key or - for stdin")
	cmd.Flags().StringP("output", "o", storage.Stdio, "output location: path, s3://bucket/key or - for stdout")
	addFormatFlags(cmd)
	addStreamFlags(cmd)
	return cmd
}

// sendAll streams r to the server chunk by chunk.
func sendAll(c *wsencode.Client, r pcm.FrameReader) error {
	for {
		samples, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := c.Send(samples); err != nil {
			return err
		}
	}
}
