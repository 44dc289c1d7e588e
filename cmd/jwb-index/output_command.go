package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"jwbindex/internal/config"
	"jwbindex/internal/output"
)

func newOutputCommand(ctx *commandContext) *cobra.Command {
	var dir string
	var toStdout bool

	cmd := &cobra.Command{
		Use:       "output [mode]",
		Short:     "Index the configured categories and write an index",
		Long:      "Write the crawl result as " + strings.Join(output.Modes, ", ") + ". The mode defaults to output.mode from the configuration.",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: output.Modes,
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, cfg, logger, err := ctx.commandSetup(cmd)
			if err != nil {
				return err
			}
			mode := cfg.Output.Mode
			if len(args) == 1 {
				mode = args[0]
			}
			outDir := cfg.Paths.OutputDir
			if strings.TrimSpace(dir) != "" {
				if outDir, err = config.ExpandPath(dir); err != nil {
					return err
				}
			}
			opts := output.Options{Dir: outDir, MediaDir: cfg.Paths.DownloadDir, Logger: logger}
			if toStdout {
				if mode != "txt" && mode != "json" {
					return fmt.Errorf("--stdout supports txt and json, not %s", mode)
				}
				opts.Out = cmd.OutOrStdout()
			}
			writer, err := output.New(mode, opts)
			if err != nil {
				return err
			}

			roots, _, err := ctx.crawlWithClient(runCtx, cfg, logger)
			if err != nil {
				return err
			}
			if err := writer.Write(roots); err != nil {
				return err
			}
			if !toStdout && cfg.Crawl.Quiet < 2 {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s index to %s\n", mode, outDir)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Output directory (overrides paths.output_dir)")
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "Print txt or json output instead of writing a file")
	return cmd
}
