package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/haivivi/pcmogg/pkg/cli"
	"github.com/haivivi/pcmogg/pkg/storage"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long: `Manage CLI configuration and profiles.

Profiles hold encoding presets and storage settings; select one with -p
or make it current with 'config use-profile'. Flags always override the
profile.

Configuration is stored in ~/.pcmogg/pcmogg/config.yaml`,
	}
	cmd.AddCommand(
		newConfigAddProfileCmd(a),
		newConfigDeleteProfileCmd(a),
		newConfigUseProfileCmd(a),
		newConfigListProfilesCmd(a),
		newConfigShowCmd(a),
	)
	return cmd
}

func newConfigAddProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-profile <name>",
		Short: "Add or replace a profile",
		Long: `Add a profile with the specified name, from flags or from a YAML/JSON
file. Flags given together with --from override the file.

Example:
  pcmogg config add-profile voice --channels 1 --rate 16000 --quality 0.4 --format s16le
  pcmogg config add-profile prod --archive s3://recordings/sessions --s3-region eu-west-1
  pcmogg config add-profile music --from music.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			p := &cli.Profile{}
			if from, _ := f.GetString("from"); from != "" {
				var err error
				if p, err = cli.LoadProfile(from); err != nil {
					return err
				}
			}

			if f.Changed("channels") {
				p.Channels, _ = f.GetInt("channels")
			}
			if f.Changed("rate") {
				p.SampleRate, _ = f.GetInt("rate")
			}
			if f.Changed("quality") {
				q, _ := f.GetFloat32("quality")
				p.Quality = &q
			}
			if f.Changed("format") {
				p.Encoding, _ = f.GetString("format")
			}
			if f.Changed("chunk-ms") {
				p.ChunkMS, _ = f.GetInt("chunk-ms")
			}
			if f.Changed("fragment-limit") {
				p.FragmentLimit, _ = f.GetInt("fragment-limit")
			}
			if f.Changed("server") {
				p.Server, _ = f.GetString("server")
			}
			if f.Changed("archive") {
				p.Archive, _ = f.GetString("archive")
			}
			tags, _ := f.GetStringToString("tag")
			for k, v := range tags {
				p.SetTag(k, v)
			}

			s3 := storage.S3Config{}
			if p.S3 != nil {
				s3 = *p.S3
			}
			s3Changed := false
			for flag, dst := range map[string]*string{
				"s3-region":            &s3.Region,
				"s3-endpoint":          &s3.Endpoint,
				"s3-access-key-id":     &s3.AccessKeyID,
				"s3-secret-access-key": &s3.SecretAccessKey,
			} {
				if f.Changed(flag) {
					*dst, _ = f.GetString(flag)
					s3Changed = true
				}
			}
			if f.Changed("s3-path-style") {
				s3.PathStyle, _ = f.GetBool("s3-path-style")
				s3Changed = true
			}
			if s3Changed {
				p.S3 = &s3
			}

			if err := a.config.AddProfile(args[0], p); err != nil {
				return err
			}
			cli.PrintSuccess("Profile %q saved", args[0])
			return nil
		},
	}
	f := cmd.Flags()
	f.String("from", "", "read the profile from a YAML or JSON file")
	f.Int("channels", 0, "number of channels")
	f.Int("rate", 0, "sample rate in Hz")
	f.Float32("quality", 0, "Vorbis VBR quality, 0.0 to 1.0")
	f.String("format", "", "input sample encoding: f32le or s16le")
	f.Int("chunk-ms", 0, "streaming read size in milliseconds")
	f.Int("fragment-limit", 0, "maximum size of one encoded fragment in bytes")
	f.String("server", "", "WebSocket server for 'pcmogg stream'")
	f.String("archive", "", "archive root for 'pcmogg serve'")
	f.StringToString("tag", nil, "Vorbis comments KEY=VALUE")
	f.String("s3-region", "", "S3 region")
	f.String("s3-endpoint", "", "S3 endpoint URL for S3-compatible services")
	f.String("s3-access-key-id", "", "S3 access key ID (default: AWS_ACCESS_KEY_ID)")
	f.String("s3-secret-access-key", "", "S3 secret access key (default: AWS_SECRET_ACCESS_KEY)")
	f.Bool("s3-path-style", false, "use path-style S3 addressing")
	return cmd
}

func newConfigDeleteProfileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-profile <name>",
		Short: "Delete a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.config.DeleteProfile(args[0]); err != nil {
				return err
			}
			cli.PrintSuccess("Profile %q deleted", args[0])
			return nil
		},
	}
}

func newConfigUseProfileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "use-profile <name>",
		Short: "Set the current profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.config.UseProfile(args[0]); err != nil {
				return err
			}
			cli.PrintSuccess("Switched to profile %q", args[0])
			return nil
		},
	}
}

func newConfigListProfilesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list-profiles",
		Aliases: []string{"get-profiles"},
		Short:   "List all profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.config
			if len(cfg.Profiles) == 0 {
				fmt.Fprintln(a.stdout, "No profiles configured")
				return nil
			}

			w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CURRENT\tNAME\tCHANNELS\tRATE\tQUALITY\tARCHIVE")
			for _, name := range cfg.ListProfiles() {
				p := cfg.Profiles[name]
				current := ""
				if name == cfg.CurrentProfile {
					current = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", current, name,
					orDefault(p.Channels), orDefault(p.SampleRate), qualityString(p.Quality), p.Archive)
			}
			return w.Flush()
		},
	}
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [name]",
		Short: "Show a profile (default: the current one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := a.profileName
			if len(args) == 1 {
				name = args[0]
			}
			p, err := a.config.ResolveProfile(name)
			if err != nil {
				return fmt.Errorf("%w (config file: %s)", err, a.config.Path())
			}
			return a.print(p.Masked())
		},
	}
}

func orDefault(v int) string {
	if v == 0 {
		return "(default)"
	}
	return fmt.Sprint(v)
}

func qualityString(q *float32) string {
	if q == nil {
		return "(default)"
	}
	return fmt.Sprintf("%.2f", *q)
}
