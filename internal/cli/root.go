package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// DefaultConfigPath is used when neither --config nor CONFIG_PATH is set.
const DefaultConfigPath = "configs/config.yaml"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
}

// NewRootCommand creates the root command for the bigpicture CLI. Without
// a subcommand it behaves like "assemble".
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "bigpicture",
		Short: "BigPictureWatch - macro and market dataset assembler",
		Long: `Downloads macroeconomic and market series from FRED, Yahoo Finance and
multpl.com, derives ratios and spreads, and caches the assembled dataset
for the rest of the day.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAssemble(cmd, opts)
		},
	}

	configPath := DefaultConfigPath
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		configPath = v
	}
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", configPath, "config file (env CONFIG_PATH)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(NewAssembleCommand(opts))
	cmd.AddCommand(NewSummaryCommand(opts))
	cmd.AddCommand(NewDaemonCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}
