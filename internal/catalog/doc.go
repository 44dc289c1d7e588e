// Package catalog crawls the remote category tree and builds the in-memory
// index of categories and media.
//
// A crawl starts from the configured seed keys and expands every discovered
// sub-category breadth-first. Each key is fetched at most once: a work queue
// paired with a queued-or-visited set drives the traversal, while the
// resulting tree is assembled separately from Category and Media nodes.
// Sub-categories that are excluded, or that were already queued through
// another parent, still appear as placeholder leaves so the tree reflects the
// catalog's structure.
//
// Media renditions are chosen with the rendition package. Audio items use
// their first stream. Items without files are skipped, and items published
// before the configured cutoff are dropped.
//
// Key entry points:
//   - NewCrawler / Crawler.Crawl: run a crawl against a Fetcher
//   - Walk / Find: traverse a finished tree
//   - CategoryURL: build the lookup URL for one key
package catalog
