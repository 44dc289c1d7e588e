package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"jwbindex/internal/logging"
	"jwbindex/internal/rendition"
	"jwbindex/internal/services"
)

// Fetcher retrieves the body of a URL. Implementations report a missing
// category with an error matching services.ErrNotFound.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// NotFoundError reports a category key the catalog does not know.
type NotFoundError struct {
	Key string
	Err error
}

func (e *NotFoundError) Error() string { return e.Key + " not found" }

func (e *NotFoundError) Unwrap() error { return e.Err }

// Stats summarises one crawl.
type Stats struct {
	Fetched      int
	Media        int
	Skipped      int
	DateFiltered int
}

// Crawler expands seed categories into a tree. A Crawler is not safe for
// concurrent use; create one per crawl.
type Crawler struct {
	fetcher Fetcher
	opts    Options
	logger  *slog.Logger
	seeds   map[string]struct{}
	exclude map[string]struct{}
	stats   Stats
}

// NewCrawler constructs a crawler for the given options.
func NewCrawler(fetcher Fetcher, opts Options, logger *slog.Logger) *Crawler {
	c := &Crawler{
		fetcher: fetcher,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "crawler"),
		seeds:   make(map[string]struct{}, len(opts.Categories)),
		exclude: make(map[string]struct{}, len(opts.Exclude)),
	}
	for _, key := range opts.Categories {
		c.seeds[key] = struct{}{}
	}
	for _, key := range opts.Exclude {
		c.exclude[key] = struct{}{}
	}
	return c
}

// Stats returns counters for the most recent crawl.
func (c *Crawler) Stats() Stats {
	return c.stats
}

// Crawl fetches every seed and, breadth-first, every sub-category reachable
// from them. It returns the seed categories in seed order. A missing key or
// any fetch failure aborts the crawl.
func (c *Crawler) Crawl(ctx context.Context) ([]*Category, error) {
	if c.fetcher == nil {
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "crawl", "no fetcher configured", nil)
	}
	c.stats = Stats{}

	queue := newWorkQueue()
	roots := make([]*Category, 0, len(c.opts.Categories))
	for _, key := range c.opts.Categories {
		node := &Category{Key: key}
		if queue.push(key, node) {
			roots = append(roots, node)
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, ok := queue.pop()
		if !ok {
			break
		}
		if err := c.expand(ctx, queue, next); err != nil {
			return nil, err
		}
	}

	c.logger.Debug("crawl complete",
		logging.Int("categories", c.stats.Fetched),
		logging.Int("media", c.stats.Media),
		logging.Int("skipped", c.stats.Skipped),
		logging.String(logging.FieldEventType, "crawl_complete"),
	)
	return roots, nil
}

func (c *Crawler) expand(ctx context.Context, queue *workQueue, item pending) error {
	lookup := CategoryURL(c.opts.BaseURL, c.opts.Language, item.key)
	body, err := c.fetcher.Fetch(services.WithCategory(ctx, item.key), lookup)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return &NotFoundError{Key: item.key, Err: err}
		}
		return services.Wrap(services.ErrTransport, "catalog", "fetch "+item.key, "category lookup failed", err)
	}
	c.stats.Fetched++

	payload, err := decodeCategory(body)
	if err != nil {
		return services.Wrap(services.ErrDecode, "catalog", "decode "+item.key, "invalid category document", err)
	}

	node := item.node
	node.Key = payload.Key
	node.Name = payload.Name
	_, node.Home = c.seeds[payload.Key]
	node.Expanded = true

	logger := c.logger.With(logging.String(logging.FieldCategory, node.Key))
	logger.Info(fmt.Sprintf("indexing: %s (%s)", node.Key, node.Name),
		logging.Int("queued", queue.len()),
		logging.String(logging.FieldEventType, "category_indexing"),
	)

	for _, sub := range payload.Subcategories {
		child := &Category{Key: sub.Key, Name: sub.Name}
		node.Contents = append(node.Contents, child)
		if _, excluded := c.exclude[sub.Key]; excluded {
			continue
		}
		queue.push(sub.Key, child)
	}

	hidden := payload.webExcluded()
	for _, mp := range payload.Media {
		if hidden {
			c.stats.Skipped++
			logger.Debug("media hidden from web; skipping",
				logging.String("title", mp.Title),
				logging.String(logging.FieldEventType, "media_web_excluded"),
			)
			continue
		}
		media, keep := c.buildMedia(logger, mp)
		if !keep {
			continue
		}
		c.stats.Media++
		node.Contents = append(node.Contents, media)
	}
	return nil
}

// buildMedia selects a rendition and applies the date filter. It reports
// false when the item must not be added.
func (c *Crawler) buildMedia(logger *slog.Logger, mp mediaPayload) (*Media, bool) {
	file, err := c.chooseFile(mp)
	if err != nil {
		c.stats.Skipped++
		logger.Info("no media files found for: "+mp.Title,
			logging.String(logging.FieldEventType, "media_no_files"),
		)
		return nil, false
	}

	media := &Media{
		URL:         file.URL,
		Name:        mp.Title,
		MD5:         file.Checksum,
		Size:        file.Size,
		SubtitleURL: file.SubtitleURL,
	}

	if mp.FirstPublished == nil {
		return media, true
	}
	published, err := parsePublished(*mp.FirstPublished)
	if err != nil {
		logger.Info("could not get timestamp on: "+mp.Title,
			logging.String("first_published", *mp.FirstPublished),
			logging.String(logging.FieldEventType, "media_timestamp_invalid"),
		)
		return media, true
	}
	if !c.opts.MinDate.IsZero() && published.Before(c.opts.MinDate) {
		c.stats.DateFiltered++
		return nil, false
	}
	media.Published = published
	return media, true
}

func (c *Crawler) chooseFile(mp mediaPayload) (rendition.File, error) {
	files := mp.renditions()
	if mp.Type == "audio" {
		if len(files) == 0 {
			return rendition.File{}, rendition.ErrNoCandidates
		}
		return files[0], nil
	}
	return rendition.Select(files, c.opts.Quality, c.opts.HardSubtitles)
}
