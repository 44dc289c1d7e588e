// Package main hosts the jwb-index CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration, applies flag
// overrides, runs a catalog crawl and hands the result to the downloader,
// the index writers, or the HTTP server. It centralizes configuration
// resolution, run ids, and structured logging setup so subcommands can
// focus on presenting results.
//
// Keep this package lean: add functionality to the internal packages first
// and surface it here through dedicated commands or flags.
package main
