// Package output renders a crawl result into browsable indexes.
//
// Writers exist for a plain URL list (txt), M3U playlists, static HTML pages
// rendered from an embedded pug template, a filesystem tree of symlinks into
// the download directory, and a JSON dump of the tree. Every writer emits one
// unit per expanded category; placeholder categories are referenced but never
// written, so links to excluded categories dangle until they are crawled.
package output
