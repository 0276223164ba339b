package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"BigPictureWatch/internal/scheduler"
)

// NewDaemonCommand creates the daemon command.
func NewDaemonCommand(rootOpts *RootOptions) *cobra.Command {
	var runOnStart bool

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Assemble on a daily cron schedule until interrupted",
		Long: `Registers the daily assembly at schedule.daily_cron and runs until SIGINT or
SIGTERM. When Telegram is configured, run reports are pushed to the chat and
the bot answers /run, /summary, /history and /series NAME.`,
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

			if err := a.sched.RegisterDaily(a.cfg.Schedule.DailyCron); err != nil {
				return err
			}
			a.sched.Start()
			defer a.sched.Stop()

			if a.telegram != nil {
				go a.telegram.StartPolling(ctx, a.sched.HandleCommand)
				a.log.Info().Msg("telegram polling started")
			}
			if runOnStart {
				go func() {
					_, err := a.sched.RunNow(ctx)
					switch {
					case errors.Is(err, scheduler.ErrAlreadyRunning):
						a.log.Info().Msg("assembly already running, start run skipped")
					case err != nil:
						a.log.Error().Err(err).Msg("assembly on start failed")
					}
				}()
			}

			a.log.Info().Str("cron", a.cfg.Schedule.DailyCron).Msg("BigPictureWatch is running, press Ctrl+C to stop")
			<-ctx.Done()
			a.log.Info().Msg("shutdown signal received, stopping")
			return nil
		},
	}

	cmd.Flags().BoolVar(&runOnStart, "run-on-start", false, "assemble once immediately")
	return cmd
}
