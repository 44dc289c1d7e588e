package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"jwbindex/internal/catalog"
)

func newCrawlCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var showMedia bool

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Index the configured categories and print the tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, cfg, logger, err := ctx.commandSetup(cmd)
			if err != nil {
				return err
			}
			roots, stats, err := ctx.crawlWithClient(runCtx, cfg, logger)
			if err != nil {
				return err
			}
			if jsonOutput {
				if roots == nil {
					roots = []*catalog.Category{}
				}
				return writeJSON(cmd, roots)
			}
			out := cmd.OutOrStdout()
			for _, root := range roots {
				printTree(out, root, 0, showMedia)
			}
			if cfg.Crawl.Quiet < 1 {
				fmt.Fprintf(cmd.ErrOrStderr(), "Indexed %s, %s (%d skipped, %d before cutoff)\n",
					plural(stats.Fetched, "category"), plural(stats.Media, "media item"), stats.Skipped, stats.DateFiltered)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the tree as JSON")
	cmd.Flags().BoolVar(&showMedia, "media", false, "List media items under each category")
	return cmd
}

// printTree writes cat and its contents as an indented outline.
func printTree(out io.Writer, cat *catalog.Category, depth int, showMedia bool) {
	indent := strings.Repeat("  ", depth)
	label := fmt.Sprintf("%s%s (%s)", indent, displayName(cat), cat.Key)
	if !cat.Expanded {
		fmt.Fprintln(out, label+" [not indexed]")
		return
	}
	media := cat.Media()
	if len(media) > 0 {
		label += fmt.Sprintf(" - %s", plural(len(media), "media item"))
	}
	fmt.Fprintln(out, label)
	for _, entry := range cat.Contents {
		switch e := entry.(type) {
		case *catalog.Category:
			printTree(out, e, depth+1, showMedia)
		case *catalog.Media:
			if showMedia {
				fmt.Fprintf(out, "%s  * %s%s\n", indent, e.Name, mediaSuffix(e))
			}
		}
	}
}

func displayName(cat *catalog.Category) string {
	if name := strings.TrimSpace(cat.Name); name != "" {
		return name
	}
	return cat.Key
}

func mediaSuffix(m *catalog.Media) string {
	var parts []string
	if !m.Published.IsZero() {
		parts = append(parts, m.Published.Format("2006-01-02"))
	}
	if m.Size > 0 {
		parts = append(parts, humanize.IBytes(uint64(m.Size)))
	}
	if len(parts) == 0 {
		return ""
	}
	return " [" + strings.Join(parts, ", ") + "]"
}
