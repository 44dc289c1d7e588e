package main

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"jwbindex/internal/catalog"
	"jwbindex/internal/logging"
	"jwbindex/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog index over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, cfg, logger, err := ctx.commandSetup(cmd)
			if err != nil {
				return err
			}
			if strings.TrimSpace(bind) != "" {
				cfg.Server.Bind = strings.TrimSpace(bind)
			}
			client, err := ctx.newClient(cfg, logger)
			if err != nil {
				return err
			}
			crawl := func(reqCtx context.Context) ([]*catalog.Category, error) {
				roots, _, err := ctx.crawl(reqCtx, cfg, logger, client)
				return roots, err
			}

			gin.SetMode(gin.ReleaseMode)
			refresh := time.Duration(cfg.Server.RefreshMinutes) * time.Minute
			srv, err := server.New(cfg.Server.Bind, crawl, refresh, logger, server.WithFlushHook(client.Flush))
			if err != nil {
				return err
			}
			logger.Info("serving catalog index",
				logging.String("bind", cfg.Server.Bind),
				logging.Duration("refresh", refresh),
			)
			return srv.Run(runCtx)
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (overrides server.bind)")
	return cmd
}
