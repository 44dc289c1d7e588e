package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"jwbindex/internal/preflight"
	"jwbindex/internal/services"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var offline bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check directories, free space and catalog reachability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, cfg, logger, err := ctx.commandSetup(cmd)
			if err != nil {
				return err
			}
			var results []preflight.Result
			if offline {
				results = preflight.RunAll(runCtx, cfg, nil)
			} else {
				client, err := ctx.newClient(cfg, logger)
				if err != nil {
					return err
				}
				results = preflight.RunAll(runCtx, cfg, client)
			}

			if jsonOutput {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("Preflight", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, r := range results {
					kind := statusOK
					if !r.Passed {
						kind = statusError
					}
					fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
				}
			}
			if preflight.Failed(results) {
				return services.Wrap(services.ErrConfiguration, "cli", "status", "", errors.New("preflight checks failed"))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the catalog API probe")
	return cmd
}
