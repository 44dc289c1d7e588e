package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"jwbindex/internal/catalog"
	"jwbindex/internal/config"
	"jwbindex/internal/logging"
	"jwbindex/internal/mediator"
	"jwbindex/internal/services"
)

const runLogPattern = "jwb-index-*.log"

// globalFlags holds the persistent flags that override configuration.
type globalFlags struct {
	configPath    string
	categories    []string
	exclude       []string
	language      string
	quality       int
	hardSubtitles bool
	since         string
	quiet         int
}

type commandContext struct {
	flags *globalFlags
	runID string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
	runLog     *logging.RunLog
	loggerErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{
		flags: flags,
		runID: uuid.NewString(),
	}
}

func (c *commandContext) ensureConfig(cmd *cobra.Command) (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(strings.TrimSpace(c.flags.configPath))
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "cli", "load config", "", err)
			return
		}
		if err := c.applyOverrides(cmd, cfg); err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
		c.configExists = exists
	})
	return c.config, c.configErr
}

// applyOverrides folds explicitly set flags into cfg and revalidates.
func (c *commandContext) applyOverrides(cmd *cobra.Command, cfg *config.Config) error {
	changed := func(name string) bool {
		flag := cmd.Flags().Lookup(name)
		return flag != nil && flag.Changed
	}
	if changed("category") {
		cfg.Crawl.Categories = trimAll(c.flags.categories)
	}
	if changed("exclude") {
		cfg.Crawl.Exclude = trimAll(c.flags.exclude)
	}
	if changed("lang") {
		cfg.Crawl.Language = strings.TrimSpace(c.flags.language)
	}
	if changed("quality") {
		cfg.Crawl.Quality = c.flags.quality
	}
	if changed("hard-subtitles") {
		cfg.Crawl.HardSubtitles = c.flags.hardSubtitles
	}
	if changed("since") {
		cfg.Crawl.MinDate = strings.TrimSpace(c.flags.since)
	}
	cfg.Crawl.Quiet += c.flags.quiet
	if err := cfg.Validate(); err != nil {
		return services.Wrap(services.ErrValidation, "cli", "flags", "", err)
	}
	return nil
}

func (c *commandContext) configValue() *config.Config {
	return c.config
}

// ensureLogger builds the run logger and prunes expired run logs.
func (c *commandContext) ensureLogger(cmd *cobra.Command) (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg := c.configValue()
		logger, runLog, err := logging.NewFromConfig(cfg, c.runID, cmd.ErrOrStderr())
		if err != nil {
			c.loggerErr = err
			return
		}
		c.runLog = runLog
		if cfg != nil {
			if removed := logging.CleanupOldLogs(logger, cfg.Paths.LogDir, runLogPattern, cfg.Logging.RetentionDays, runLog.Path); removed > 0 {
				logger.Debug("pruned run logs", logging.Int("removed", removed))
			}
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// closeLog releases the run log file once the command is done.
func (c *commandContext) closeLog() {
	if err := c.runLog.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close run log: %v\n", err)
	}
}

// commandSetup returns the config, logger and a context tagged with the run id.
func (c *commandContext) commandSetup(cmd *cobra.Command) (context.Context, *config.Config, *slog.Logger, error) {
	cfg, err := c.ensureConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := c.ensureLogger(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return services.WithRunID(ctx, c.runID), cfg, logger, nil
}

func (c *commandContext) newClient(cfg *config.Config, logger *slog.Logger) (*mediator.Client, error) {
	return mediator.New(cfg.API.BaseURL,
		mediator.WithUserAgent(cfg.API.UserAgent),
		mediator.WithTimeout(cfg.RequestTimeout()),
		mediator.WithCacheTTL(cfg.CacheTTL()),
		mediator.WithLogger(logger),
	)
}

func crawlOptions(cfg *config.Config) (catalog.Options, error) {
	minDate, err := cfg.MinDate()
	if err != nil {
		return catalog.Options{}, services.Wrap(services.ErrValidation, "cli", "crawl options", "", err)
	}
	return catalog.Options{
		Categories:    cfg.Crawl.Categories,
		Exclude:       cfg.Crawl.Exclude,
		Language:      cfg.Crawl.Language,
		Quality:       cfg.Crawl.Quality,
		HardSubtitles: cfg.Crawl.HardSubtitles,
		MinDate:       minDate,
		BaseURL:       cfg.API.BaseURL,
	}, nil
}

// crawl runs one full crawl with the effective configuration.
func (c *commandContext) crawl(ctx context.Context, cfg *config.Config, logger *slog.Logger, fetcher catalog.Fetcher) ([]*catalog.Category, catalog.Stats, error) {
	opts, err := crawlOptions(cfg)
	if err != nil {
		return nil, catalog.Stats{}, err
	}
	crawler := catalog.NewCrawler(fetcher, opts, logger)
	roots, err := crawler.Crawl(ctx)
	return roots, crawler.Stats(), err
}

// crawlWithClient builds a client from cfg and crawls.
func (c *commandContext) crawlWithClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]*catalog.Category, catalog.Stats, error) {
	client, err := c.newClient(cfg, logger)
	if err != nil {
		return nil, catalog.Stats{}, err
	}
	return c.crawl(ctx, cfg, logger, client)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
