package rendition

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	fitsCeilingBonus     = 200
	subtitleMatchesBonus = 100
)

// ErrNoCandidates reports that a media item offered no files to choose from.
var ErrNoCandidates = errors.New("no candidate files")

// File describes one downloadable encoding of a media item.
type File struct {
	URL         string `json:"url"`
	Checksum    string `json:"checksum,omitempty"`
	Size        int64  `json:"size,omitempty"`
	Label       string `json:"label,omitempty"`
	FrameHeight int    `json:"frame_height,omitempty"`
	// Subtitled reports hard-coded video subtitles; nil when the catalog does
	// not say.
	Subtitled   *bool  `json:"subtitled,omitempty"`
	SubtitleURL string `json:"subtitle_url,omitempty"`
}

// Select returns the highest ranked file. Candidates with equal rank resolve to
// the one appearing later in files.
func Select(files []File, ceiling int, preferSubtitled bool) (File, error) {
	if len(files) == 0 {
		return File{}, ErrNoCandidates
	}

	ranked := make([]candidate, 0, len(files))
	for _, file := range files {
		ranked = append(ranked, candidate{file: file, rank: Rank(file, ceiling, preferSubtitled)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].rank < ranked[j].rank
	})
	return ranked[len(ranked)-1].file, nil
}

// Rank scores a single file against the quality ceiling and subtitle preference.
func Rank(file File, ceiling int, preferSubtitled bool) int {
	res := Resolution(file)
	rank := floorDiv(res, 10)
	if res > 0 && res <= ceiling {
		rank += fitsCeilingBonus
	}
	if file.Subtitled != nil && *file.Subtitled == preferSubtitled {
		rank += subtitleMatchesBonus
	}
	return rank
}

// Resolution returns the vertical resolution advertised by the file label
// minus its last character ("720p" yields 720), falling back to the frame
// height. Zero means unknown.
func Resolution(file File) int {
	if label := file.Label; label != "" {
		_, size := utf8.DecodeLastRuneInString(label)
		if res, err := strconv.Atoi(strings.TrimSpace(label[:len(label)-size])); err == nil {
			return res
		}
	}
	return file.FrameHeight
}

type candidate struct {
	file File
	rank int
}

// floorDiv rounds toward negative infinity so malformed negative labels rank
// below zero-resolution files.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
