package cli

import (
	"time"

	"github.com/spf13/cobra"

	"BigPictureWatch/internal/report"
)

// NewSummaryCommand creates the summary command.
func NewSummaryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "summary",
		Short:         "Assemble (cache-backed) and print the latest value of every series",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := newApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			ds, err := a.sched.RunNow(ctx)
			if err != nil {
				return err
			}
			return report.Summary(cmd.OutOrStdout(), ds, time.Now())
		},
	}
}
