// Package textutil sanitizes catalog names for safe filesystem and playlist
// use.
//
// Category and media titles come from the catalog verbatim: they may carry
// path separators, control characters, or decomposed Unicode. Names are
// normalized to NFC before filtering so the same title always produces the
// same on-disk name.
package textutil
