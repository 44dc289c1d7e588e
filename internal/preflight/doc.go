// Package preflight runs environment checks before a crawl or download:
// configured directories must be usable, the download volume must have room
// above the free space floor, and the catalog API must answer for the first
// seed category.
package preflight
