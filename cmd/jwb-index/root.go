package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}
	ctx := newCommandContext(flags)

	rootCmd := &cobra.Command{
		Use:           "jwb-index",
		Short:         "Index and download the JW Broadcasting catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig(cmd)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Configuration file path")
	pf.StringSliceVarP(&flags.categories, "category", "c", nil, "Category key to index (repeatable; replaces configured seeds)")
	pf.StringSliceVar(&flags.exclude, "exclude", nil, "Category key to skip when discovered (repeatable; replaces configured list)")
	pf.StringVarP(&flags.language, "lang", "l", "", "Language code")
	pf.IntVarP(&flags.quality, "quality", "Q", 0, "Maximum video resolution")
	pf.BoolVar(&flags.hardSubtitles, "hard-subtitles", false, "Prefer renditions with burned-in subtitles")
	pf.StringVar(&flags.since, "since", "", "Skip media published before this date (YYYY-MM-DD)")
	pf.CountVarP(&flags.quiet, "quiet", "q", "Reduce output (repeat for less)")

	rootCmd.AddCommand(newCrawlCommand(ctx))
	rootCmd.AddCommand(newDownloadCommand(ctx))
	rootCmd.AddCommand(newOutputCommand(ctx))
	rootCmd.AddCommand(newLanguagesCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	closeAfterRun(rootCmd, ctx.closeLog)
	return rootCmd
}

// closeAfterRun makes every command call release when its RunE returns,
// whether or not it failed.
func closeAfterRun(cmd *cobra.Command, release func()) {
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(c *cobra.Command, args []string) error {
			defer release()
			return run(c, args)
		}
	}
	for _, child := range cmd.Commands() {
		closeAfterRun(child, release)
	}
}
