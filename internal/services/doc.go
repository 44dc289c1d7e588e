// Package services defines shared utilities consumed by the crawler, the
// downloader and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers and category keys for
//     logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (not found, transport, decode, configuration) so callers can branch on
//     errors.Is instead of parsing messages.
//
// Use these helpers when wiring new components so error handling and
// observability stay uniform across the tool.
package services
