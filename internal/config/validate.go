package config

import (
	"errors"
	"fmt"
	"slices"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCrawl(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCrawl() error {
	if len(c.Crawl.Categories) == 0 {
		return errors.New("crawl.categories must include at least one category key")
	}
	if c.Crawl.Quality <= 0 {
		return errors.New("crawl.quality must be positive (e.g. 720)")
	}
	if _, err := c.MinDate(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateOutput() error {
	if !slices.Contains(OutputModes, c.Output.Mode) {
		return fmt.Errorf("output.mode: unsupported value %q (expected one of %v)", c.Output.Mode, OutputModes)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
