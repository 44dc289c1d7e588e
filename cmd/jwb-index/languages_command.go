package main

import (
	"strings"

	"github.com/spf13/cobra"
)

func newLanguagesCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var filter string

	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List the catalog languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, cfg, logger, err := ctx.commandSetup(cmd)
			if err != nil {
				return err
			}
			client, err := ctx.newClient(cfg, logger)
			if err != nil {
				return err
			}
			langs, err := client.Languages(runCtx)
			if err != nil {
				return err
			}
			if needle := strings.ToLower(strings.TrimSpace(filter)); needle != "" {
				kept := langs[:0]
				for _, lang := range langs {
					if strings.Contains(strings.ToLower(lang.Name), needle) ||
						strings.Contains(strings.ToLower(lang.Vernacular), needle) ||
						strings.EqualFold(lang.Code, needle) {
						kept = append(kept, lang)
					}
				}
				langs = kept
			}
			if jsonOutput {
				return writeJSON(cmd, langs)
			}

			rows := make([][]string, 0, len(langs))
			for _, lang := range langs {
				rows = append(rows, []string{lang.Code, lang.Locale, lang.Name, lang.Vernacular, yesNo(lang.RTL)})
			}
			table := renderTable([]string{"Code", "Locale", "Name", "Vernacular", "RTL"}, rows, nil)
			_, err = cmd.OutOrStdout().Write([]byte(table + "\n"))
			return err
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print languages as JSON")
	cmd.Flags().StringVar(&filter, "filter", "", "Only show languages whose code or name matches")
	return cmd
}
