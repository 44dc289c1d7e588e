package preflight

import (
	"context"

	"jwbindex/internal/catalog"
	"jwbindex/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes every preflight check for the given config. fetcher is
// used for the catalog probe; a nil fetcher skips it.
func RunAll(ctx context.Context, cfg *config.Config, fetcher catalog.Fetcher) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Download directory", cfg.Paths.DownloadDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckFreeSpace("Free space", cfg.Paths.DownloadDir, cfg.KeepFreeBytes()),
	}

	if fetcher != nil && len(cfg.Crawl.Categories) > 0 {
		url := catalog.CategoryURL(cfg.API.BaseURL, cfg.Crawl.Language, cfg.Crawl.Categories[0])
		results = append(results, CheckCatalog(ctx, fetcher, url))
	}

	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
