package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"jwbindex/internal/config"
	"jwbindex/internal/download"
	"jwbindex/internal/history"
	"jwbindex/internal/logging"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var dir string
	var subtitles bool
	var noProgress bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Index the configured categories and download their media",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, cfg, logger, err := ctx.commandSetup(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("dir") {
				if cfg.Paths.DownloadDir, err = config.ExpandPath(dir); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("subtitles") {
				cfg.Download.Subtitles = subtitles
			}

			store, err := history.Open(runCtx, cfg.Paths.HistoryDB)
			if err != nil {
				return err
			}
			defer store.Close()

			roots, _, err := ctx.crawlWithClient(runCtx, cfg, logger)
			if err != nil {
				return err
			}

			stderr := cmd.ErrOrStderr()
			downloader, err := download.New(download.Options{
				Dir:            cfg.Paths.DownloadDir,
				Subtitles:      cfg.Download.Subtitles,
				Checksums:      cfg.Download.Checksums,
				KeepFreeBytes:  cfg.KeepFreeBytes(),
				UserAgent:      cfg.API.UserAgent,
				Progress:       !noProgress && cfg.Crawl.Quiet == 0 && isTerminal(stderr),
				ProgressWriter: stderr,
			}, store, logger)
			if err != nil {
				return err
			}

			summary, runErr := downloader.Run(runCtx, roots)
			logger.Info("download run finished",
				logging.Int("downloaded", summary.Downloaded),
				logging.Int("skipped", summary.Skipped),
				logging.Int("failed", summary.Failed),
				logging.String("transferred", humanize.IBytes(uint64(summary.Bytes))),
			)
			if jsonOutput {
				if err := writeJSON(cmd, summary); err != nil {
					return err
				}
			} else if cfg.Crawl.Quiet < 2 {
				printDownloadSummary(cmd, summary)
			}
			if runErr != nil {
				return runErr
			}
			if summary.Failed > 0 {
				return fmt.Errorf("%s failed to download", plural(summary.Failed, "file"))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Download directory (overrides paths.download_dir)")
	cmd.Flags().BoolVar(&subtitles, "subtitles", false, "Also download subtitle tracks")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the run summary as JSON")
	return cmd
}

func printDownloadSummary(cmd *cobra.Command, summary download.Summary) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader("Download summary", colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Directory", statusInfo, summary.Dir, colorize))
	fmt.Fprintln(out, renderStatusLine("Downloaded", statusOK,
		fmt.Sprintf("%d (%s)", summary.Downloaded, humanize.IBytes(uint64(summary.Bytes))), colorize))
	fmt.Fprintln(out, renderStatusLine("Already present", statusInfo, fmt.Sprintf("%d", summary.Skipped), colorize))
	if summary.Subtitles > 0 {
		fmt.Fprintln(out, renderStatusLine("Subtitles", statusInfo, fmt.Sprintf("%d", summary.Subtitles), colorize))
	}
	failedKind := statusOK
	if summary.Failed > 0 {
		failedKind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Failed", failedKind, fmt.Sprintf("%d", summary.Failed), colorize))
}

func isTerminal(w any) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
