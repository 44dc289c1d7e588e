// Package history persists facts about completed downloads in SQLite.
//
// The Store records one row per downloaded file (keyed by filename) so later
// runs can skip files that were fetched before, even after they were moved
// out of the download directory. Only download facts are stored; the crawl
// tree itself is rebuilt on every run.
//
// Schema changes append a step to migrations in schema.go. Open applies any
// pending steps and refuses databases written by a newer build.
package history
