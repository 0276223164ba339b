package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"BigPictureWatch/internal/recorder"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:           "history",
		Short:         "List recent assembly runs from the run ledger",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return fmt.Errorf("invalid -n %d: must be positive", limit)
			}
			a, err := newApp(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			runs, err := a.rec.Recent(limit)
			if err != nil {
				return err
			}
			return writeHistory(cmd.OutOrStdout(), runs)
		},
	}

	cmd.Flags().IntVarP(&limit, "number", "n", 10, "number of runs to show")
	return cmd
}

func writeHistory(w io.Writer, runs []recorder.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "no runs recorded")
		return err
	}
	if _, err := fmt.Fprintf(w, "%-36s %-19s %-6s %-5s %6s  %s\n", "ID", "STARTED", "STATUS", "CACHE", "SERIES", "ERROR"); err != nil {
		return err
	}
	for _, r := range runs {
		cached := "no"
		if r.CacheHit {
			cached = "yes"
		}
		if _, err := fmt.Fprintf(w, "%-36s %-19s %-6s %-5s %6d  %s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Status, cached, r.SeriesCount, r.Error); err != nil {
			return err
		}
	}
	return nil
}
