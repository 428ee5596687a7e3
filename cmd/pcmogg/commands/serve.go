package commands

import (
	"context"
	"errors"
	"maps"
	"net"
	"net/http"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/pcmogg/pkg/cli"
	"github.com/haivivi/pcmogg/pkg/journal"
	"github.com/haivivi/pcmogg/pkg/oggenc"
	"github.com/haivivi/pcmogg/pkg/storage"
	"github.com/haivivi/pcmogg/pkg/wsencode"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the WebSocket encode server",
		Long: `Run a WebSocket server that encodes one Ogg Vorbis stream per
connection at ` + wsencode.Path + `.

Every session is recorded in a journal database (see 'pcmogg sessions').
With --archive each session's stream is also stored as <session>.ogg under
a directory or S3 prefix.

Examples:
  pcmogg serve --addr :8080
  pcmogg serve --archive s3://recordings/sessions -p prod`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			archive, _ := cmd.Flags().GetString("archive")
			journalDir, _ := cmd.Flags().GetString("journal")
			noJournal, _ := cmd.Flags().GetBool("no-journal")
			readLimit, _ := cmd.Flags().GetInt64("read-limit")

			p, err := a.profile()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("archive") {
				archive = p.Archive
			}

			opts := []wsencode.ServerOption{
				wsencode.WithLogger(a.logger),
				wsencode.WithReadLimit(readLimit),
				wsencode.WithSerials(oggenc.NewSerialCounter(int32(time.Now().Unix()))),
			}
			if p.FragmentLimit > 0 {
				opts = append(opts, wsencode.WithEncoderOptions(oggenc.WithFragmentLimit(p.FragmentLimit)))
			}
			for _, key := range slices.Sorted(maps.Keys(p.Tags)) {
				opts = append(opts, wsencode.WithEncoderOptions(oggenc.WithTag(key, p.Tags[key])))
			}

			if archive != "" {
				loc, err := storage.ParseRoot(archive)
				if err != nil {
					return err
				}
				store, err := storage.Open(loc, a.s3Config(p))
				if err != nil {
					return err
				}
				opts = append(opts, wsencode.WithArchive(store))
				a.logger.Info("archiving sessions", "root", loc)
			}

			if !noJournal {
				if journalDir == "" {
					paths, err := cli.NewPaths(appName)
					if err != nil {
						return err
					}
					journalDir = paths.JournalDir()
				}
				j, err := journal.OpenBadger(journal.BadgerOptions{Dir: journalDir, Logger: a.logger})
				if err != nil {
					return err
				}
				defer j.Close()
				opts = append(opts, wsencode.WithJournal(j))
				a.logger.Info("journal opened", "dir", journalDir)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a, addr, wsencode.NewServer(opts...))
		},
	}
	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().String("archive", "", "archive root: directory or s3://bucket/prefix (default: profile archive)")
	cmd.Flags().String("journal", "", "journal database directory (default: ~/.pcmogg/pcmogg/data/journal)")
	cmd.Flags().Bool("no-journal", false, "do not record sessions")
	cmd.Flags().Int64("read-limit", wsencode.DefaultReadLimit, "maximum size of one client message in bytes")
	return cmd
}

// serve runs the HTTP server until ctx is cancelled.
func serve(ctx context.Context, a *app, addr string, srv *wsencode.Server) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	httpSrv := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.logger.Info("listening", "addr", ln.Addr().String(), "path", wsencode.Path)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if err := srv.Wait(shutdownCtx); err != nil {
		a.logger.Warn("sessions still running at exit", "error", err)
	}
	return nil
}
