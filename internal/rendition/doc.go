// Package rendition picks the single best encoded variant of a media item.
//
// This package has no dependencies on the rest of the module and performs no
// I/O. Each candidate file is scored by:
//  1. Resolution, taken from a "360p"-style label or the frame height, worth
//     one point per ten lines.
//  2. A 200 point bonus when the resolution fits under the quality ceiling.
//  3. A 100 point bonus when the hard-coded subtitle flag equals the caller's
//     preference. An unknown flag never matches.
//
// The highest score wins. Equal scores resolve to the candidate that appears
// last in the input.
//
// Primary entry point:
//   - Select: ranks candidates and returns the winner or ErrNoCandidates
package rendition
