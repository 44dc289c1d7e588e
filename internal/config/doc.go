// Package config loads, normalizes, and validates jwb-index configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// JWB_LANGUAGE. The Config type centralizes every knob the crawler, the
// downloader and the CLI need, so seed categories, quality preferences and
// output directories are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
