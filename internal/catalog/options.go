package catalog

import (
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the root of the catalog API.
const DefaultBaseURL = "https://data.jw-api.org/mediator/v1"

// Options holds the settings a crawl consumes.
type Options struct {
	// Categories are the seed keys, crawled in order.
	Categories []string
	// Exclude lists keys that are never queued when discovered as sub-categories.
	Exclude  []string
	Language string
	// Quality is the rendition resolution ceiling.
	Quality       int
	HardSubtitles bool
	// MinDate drops media first published before it; zero disables the filter.
	MinDate time.Time
	BaseURL string
}

// CategoryURL returns the detailed lookup URL for one category key.
func CategoryURL(base, lang, key string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return base + "/categories/" + url.PathEscape(lang) + "/" + url.PathEscape(key) + "?detailed=1&clientType=www"
}
