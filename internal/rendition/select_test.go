package rendition

import (
	"errors"
	"testing"
)

func boolPtr(v bool) *bool { return &v }

func TestSelectPicksHighestResolutionUnderCeiling(t *testing.T) {
	files := []File{
		{URL: "https://cdn.example/v_240P.mp4", Label: "240p", Subtitled: boolPtr(false)},
		{URL: "https://cdn.example/v_360P.mp4", Label: "360p", Subtitled: boolPtr(false)},
		{URL: "https://cdn.example/v_480P.mp4", Label: "480p", Subtitled: boolPtr(false)},
	}

	got, err := Select(files, 360, false)
	if err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	if got.Label != "360p" {
		t.Fatalf("expected 360p to be selected, got %q", got.Label)
	}
}

func TestSelectEmptyListFails(t *testing.T) {
	got, err := Select(nil, 720, false)
	if !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("expected ErrNoCandidates, got %v", err)
	}
	if got != (File{}) {
		t.Fatalf("expected zero file on failure, got %#v", got)
	}
	if _, err := Select([]File{}, 720, true); !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("expected ErrNoCandidates for empty slice, got %v", err)
	}
}

func TestSelectTieReturnsLaterCandidate(t *testing.T) {
	files := []File{
		{URL: "first", Label: "720p"},
		{URL: "second", Label: "720p"},
		{URL: "third", Label: "240p"},
	}
	got, err := Select(files, 720, false)
	if err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	if got.URL != "second" {
		t.Fatalf("expected later equal-ranked file, got %q", got.URL)
	}
}

func TestSelectPrefersMatchingSubtitleFlag(t *testing.T) {
	files := []File{
		{URL: "plain", Label: "720p", Subtitled: boolPtr(false)},
		{URL: "subbed", Label: "720p", Subtitled: boolPtr(true)},
	}
	got, err := Select(files, 720, false)
	if err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	if got.URL != "plain" {
		t.Fatalf("expected unsubtitled file, got %q", got.URL)
	}

	got, err = Select(files, 720, true)
	if err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	if got.URL != "subbed" {
		t.Fatalf("expected subtitled file, got %q", got.URL)
	}
}

func TestSelectFallsBackToRawResolutionAboveCeiling(t *testing.T) {
	files := []File{
		{URL: "1080", Label: "1080p"},
		{URL: "720", Label: "720p"},
	}
	got, err := Select(files, 360, false)
	if err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	if got.URL != "1080" {
		t.Fatalf("expected highest raw resolution when nothing fits, got %q", got.URL)
	}
}

func TestRankBonuses(t *testing.T) {
	fitting := File{Label: "360p", Subtitled: boolPtr(false)}
	if got := Rank(fitting, 360, false); got != 336 {
		t.Fatalf("expected 336 for fitting matching file, got %d", got)
	}
	if got := Rank(fitting, 240, false); got != 136 {
		t.Fatalf("expected 136 when above ceiling, got %d", got)
	}
	if got := Rank(fitting, 360, true); got != 236 {
		t.Fatalf("expected 236 when subtitle preference differs, got %d", got)
	}

	bare := File{Label: "1080p"}
	if got := Rank(bare, 360, false); got != 108 {
		t.Fatalf("expected 108 for unmatched file, got %d", got)
	}
	if Rank(fitting, 360, false) <= Rank(bare, 360, false) {
		t.Fatal("expected fitting matching file to outrank file missing both bonuses")
	}
}

func TestRankUnknownSubtitleFlagNeverMatches(t *testing.T) {
	unknown := File{Label: "480p"}
	if got := Rank(unknown, 480, false); got != 248 {
		t.Fatalf("expected no subtitle bonus for nil flag with false preference, got %d", got)
	}
	if got := Rank(unknown, 480, true); got != 248 {
		t.Fatalf("expected no subtitle bonus for nil flag with true preference, got %d", got)
	}
}

func TestResolutionFallbacks(t *testing.T) {
	cases := []struct {
		name string
		file File
		want int
	}{
		{name: "label", file: File{Label: "720p", FrameHeight: 480}, want: 720},
		{name: "frame height", file: File{FrameHeight: 480}, want: 480},
		{name: "bad label", file: File{Label: "HD", FrameHeight: 540}, want: 540},
		{name: "single char label", file: File{Label: "p"}, want: 0},
		{name: "multibyte suffix", file: File{Label: "720р", FrameHeight: 360}, want: 720},
		{name: "leading space", file: File{Label: " 480p", FrameHeight: 360}, want: 480},
		{name: "trailing space", file: File{Label: "720p ", FrameHeight: 360}, want: 360},
		{name: "nothing", file: File{}, want: 0},
	}
	for _, tc := range cases {
		if got := Resolution(tc.file); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestRankZeroResolutionGetsNoCeilingBonus(t *testing.T) {
	if got := Rank(File{}, 720, true); got != 0 {
		t.Fatalf("expected zero rank for file without resolution, got %d", got)
	}
}
