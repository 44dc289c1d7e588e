// Package download fetches the media files of a crawl result into a local
// directory.
//
// A Downloader walks the expanded categories, skips files that already exist
// or that the history store remembers, and streams the rest one at a time
// through a ".part" file. Size and MD5 are verified against the catalog before
// the part file is renamed into place. A lock file in the target directory
// keeps two runs from writing the same files, and a free-space floor stops the
// run before the disk fills up.
package download
