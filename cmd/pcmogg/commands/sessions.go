package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/pcmogg/pkg/cli"
	"github.com/haivivi/pcmogg/pkg/journal"
)

// sessionList renders journal records one row per session.
type sessionList []*journal.Record

func (l sessionList) Table() cli.Table {
	t := cli.Table{Title: "sessions", Status: fmt.Sprintf("%d", len(l))}
	for _, r := range l {
		value := fmt.Sprintf("%-9s %d ch %d Hz  %s  %s", r.Status, r.Channels, r.SampleRate,
			cli.FormatBytes(r.Bytes), cli.FormatDuration(r.Duration()))
		if r.Error != "" {
			value += "  " + r.Error
		}
		t.Rows = append(t.Rows, cli.Row{Label: r.ID, Value: value})
	}
	return t
}

func newSessionsCmd(a *app) *cobra.Command {
	var dir string
	openJournal := func() (journal.Store, error) {
		if dir == "" {
			paths, err := cli.NewPaths(appName)
			if err != nil {
				return nil, err
			}
			dir = paths.JournalDir()
		}
		return journal.OpenBadger(journal.BadgerOptions{Dir: dir, Logger: a.logger})
	}

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Browse the server session journal",
		Long: `List, show and delete the sessions recorded by 'pcmogg serve'.

The journal cannot be opened while the server holding it is running.`,
	}
	cmd.PersistentFlags().StringVar(&dir, "journal", "", "journal database directory (default: ~/.pcmogg/pcmogg/data/journal)")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List sessions, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := openJournal()
			if err != nil {
				return err
			}
			defer j.Close()

			list := sessionList{}
			for r, err := range j.List(cmd.Context()) {
				if err != nil {
					return err
				}
				list = append(list, r)
			}
			return a.print(list)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show one session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := openJournal()
			if err != nil {
				return err
			}
			defer j.Close()

			r, err := j.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			return a.print(r)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete sessions from the journal",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := openJournal()
			if err != nil {
				return err
			}
			defer j.Close()

			for _, id := range args {
				if err := j.Delete(cmd.Context(), id); err != nil {
					return err
				}
				cli.PrintSuccess("Session %s deleted", id)
			}
			return nil
		},
	})
	return cmd
}
