package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/pcmogg/pkg/cli"
	"github.com/haivivi/pcmogg/pkg/storage"
)

const appName = "pcmogg"

// app carries the global flags and the streams commands read and write.
type app struct {
	cfgFile     string
	profileName string
	format      string
	verbose     bool

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	config *cli.Config
	logger *slog.Logger
}

// Execute runs the CLI with the process streams.
func Execute() error {
	return newRootCmd(&app{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}).Execute()
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "pcmogg",
		Short: "Streaming PCM to Ogg Vorbis encoder",
		Long: `pcmogg - encode raw float32 or int16 PCM into Ogg Vorbis.

Input and output may be local files, '-' for stdin/stdout, or objects in
an S3-compatible bucket (s3://bucket/key).

Configuration is stored in ~/.pcmogg/pcmogg/ and supports named profiles
holding format presets and storage settings, similar to kubectl contexts.

Examples:
  # Encode a stereo 48 kHz float32 recording
  pcmogg encode -i take.pcm -o take.ogg --channels 2 --rate 48000

  # Encode 16-bit mono from stdin while it is being captured
  arecord -f S16_LE -r 16000 -t raw | pcmogg encode --format s16le --channels 1 --rate 16000 --stream -o memo.ogg

  # Run the WebSocket server with a journal and an S3 archive
  pcmogg serve --addr :8080 --archive s3://recordings/sessions
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is ~/.pcmogg/pcmogg/config.yaml)")
	flags.StringVarP(&a.profileName, "profile", "p", "", "profile name to use (default: current profile)")
	flags.StringVar(&a.format, "output-format", "yaml", "summary format: yaml, json or table")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newEncodeCmd(a),
		newServeCmd(a),
		newStreamCmd(a),
		newInspectCmd(a),
		newSessionsCmd(a),
		newConfigCmd(a),
	)
	return root
}

func (a *app) init() error {
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.logger)

	if _, err := cli.ParseOutputFormat(a.format); err != nil {
		return err
	}
	cfg, err := cli.LoadConfigWithPath(appName, a.cfgFile)
	if err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	a.config = cfg
	return nil
}

// profile returns the selected profile, or an empty one when none is
// selected and no current profile is set.
func (a *app) profile() (*cli.Profile, error) {
	p, err := a.config.ResolveProfile(a.profileName)
	if errors.Is(err, cli.ErrNoProfile) {
		return &cli.Profile{}, nil
	}
	return p, err
}

func (a *app) s3Config(p *cli.Profile) storage.S3Config {
	if p.S3 == nil {
		return storage.S3Config{}
	}
	return *p.S3
}

// print writes a command summary in the selected output format.
func (a *app) print(result any) error {
	return a.printTo(a.stdout, result)
}

// printTo writes a summary to w, for commands whose stdout carries audio.
func (a *app) printTo(w io.Writer, result any) error {
	format, _ := cli.ParseOutputFormat(a.format)
	return cli.Output(result, cli.OutputOptions{Format: format, Writer: w})
}
