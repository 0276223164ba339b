package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewAssembleCommand creates the assemble command.
func NewAssembleCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "assemble",
		Short: "Assemble today's dataset once",
		Long: `Loads today's cached dataset, or downloads and derives every series and
caches the result. Exits non-zero naming the first series that failed.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAssemble(cmd, rootOpts)
		},
	}
}

func runAssemble(cmd *cobra.Command, opts *RootOptions) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	_, err = a.sched.RunNow(ctx)
	return err
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
