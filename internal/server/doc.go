// Package server exposes the crawled catalog over HTTP.
//
// The tree is produced by a caller-supplied crawl function and cached in
// memory for the configured refresh interval. Requests arriving after the
// entry expires trigger a fresh crawl; concurrent requests wait on the same
// crawl rather than starting their own. The JSON API mirrors the json output
// mode and the browsable pages reuse the html output template.
package server
