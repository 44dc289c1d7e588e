package catalog

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCategoryURL(t *testing.T) {
	got := CategoryURL("https://data.jw-api.org/mediator/v1/", "E", "VideoOnDemand")
	want := "https://data.jw-api.org/mediator/v1/categories/E/VideoOnDemand?detailed=1&clientType=www"
	if got != want {
		t.Fatalf("unexpected url:\n got %s\nwant %s", got, want)
	}
	if got := CategoryURL("", "S", "Latest"); !strings.HasPrefix(got, DefaultBaseURL+"/categories/S/Latest") {
		t.Fatalf("expected default base, got %s", got)
	}
}

func TestMediaFilenameAndExistsIn(t *testing.T) {
	m := &Media{URL: "https://cdn.test/path/to/video_720P.mp4?token=abc"}
	if m.Filename() != "video_720P.mp4" {
		t.Fatalf("unexpected filename %q", m.Filename())
	}

	dir := t.TempDir()
	if m.ExistsIn(dir) {
		t.Fatal("file should not exist yet")
	}
	if err := os.WriteFile(filepath.Join(dir, "video_720P.mp4"), nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !m.ExistsIn(dir) {
		t.Fatal("expected file to exist")
	}
	if (&Media{}).ExistsIn(dir) {
		t.Fatal("media without url must never exist")
	}
}

func sampleTree() []*Category {
	shared := &Media{URL: "https://cdn.test/shared.mp4", Name: "shared"}
	leaf := &Category{Key: "Leaf", Name: "Leaf", Expanded: true, Contents: []Entry{shared}}
	placeholder := &Category{Key: "Leaf", Name: "Leaf"}
	a := &Category{Key: "A", Name: "A", Expanded: true, Contents: []Entry{leaf, &Media{URL: "https://cdn.test/a.mp4"}}}
	b := &Category{Key: "B", Name: "B", Expanded: true, Contents: []Entry{placeholder, shared}}
	root := &Category{Key: "Root", Name: "Root", Home: true, Expanded: true, Contents: []Entry{a, b}}
	return []*Category{root}
}

func TestWalkVisitsExpandedBreadthFirst(t *testing.T) {
	var keys []string
	err := Walk(sampleTree(), func(c *Category) error {
		keys = append(keys, c.Key)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk returned error: %v", err)
	}
	if got := strings.Join(keys, ","); got != "Root,A,B,Leaf" {
		t.Fatalf("unexpected walk order: %s", got)
	}
}

func TestWalkStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	visits := 0
	err := Walk(sampleTree(), func(*Category) error {
		visits++
		return boom
	})
	if !errors.Is(err, boom) || visits != 1 {
		t.Fatalf("expected walk to stop after first error, visits=%d err=%v", visits, err)
	}
}

func TestFindReturnsExpandedNode(t *testing.T) {
	roots := sampleTree()
	leaf, ok := Find(roots, "Leaf")
	if !ok || !leaf.Expanded {
		t.Fatalf("expected expanded Leaf, got %+v", leaf)
	}
	if _, ok := Find(roots, "Nope"); ok {
		t.Fatal("unexpected match")
	}
}

func TestAllMediaDeduplicatesByFilename(t *testing.T) {
	media := AllMedia(sampleTree())
	var names []string
	for _, m := range media {
		names = append(names, m.Filename())
	}
	if got := strings.Join(names, ","); got != "a.mp4,shared.mp4" {
		t.Fatalf("unexpected media list: %s", got)
	}
}

func TestCategoryJSON(t *testing.T) {
	published := time.Date(2020, 5, 6, 7, 8, 9, 0, time.UTC)
	cat := &Category{Key: "K", Name: "Name", Home: true, Expanded: true, Contents: []Entry{
		&Category{Key: "Sub", Name: "Sub"},
		&Media{URL: "https://cdn.test/m.mp4", Name: "M", Size: 10, Published: published},
	}}
	data, err := json.Marshal(cat)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded struct {
		Type     string           `json:"type"`
		Key      string           `json:"key"`
		Home     bool             `json:"home"`
		Contents []map[string]any `json:"contents"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Type != "category" || decoded.Key != "K" || !decoded.Home {
		t.Fatalf("unexpected category json: %s", data)
	}
	if len(decoded.Contents) != 2 || decoded.Contents[0]["type"] != "category" || decoded.Contents[1]["type"] != "media" {
		t.Fatalf("unexpected contents: %s", data)
	}
	if decoded.Contents[1]["filename"] != "m.mp4" || decoded.Contents[1]["published"] != "2020-05-06T07:08:09Z" {
		t.Fatalf("unexpected media json: %v", decoded.Contents[1])
	}
}

func TestParsePublishedStripsFraction(t *testing.T) {
	got, err := parsePublished("2018-11-30T22:15:00.123Z")
	if err != nil {
		t.Fatalf("parsePublished: %v", err)
	}
	want := time.Date(2018, 11, 30, 22, 15, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Fatalf("got %s want %s", got, want)
	}
	if _, err := parsePublished("2018-11-30T22:15:00Z"); err == nil {
		t.Fatal("a bare Z suffix is not stripped and must fail to parse")
	}
}

func TestWorkQueueDeduplicates(t *testing.T) {
	q := newWorkQueue()
	if !q.push("a", nil) || !q.push("b", nil) {
		t.Fatal("expected first pushes to succeed")
	}
	if q.push("a", nil) {
		t.Fatal("expected duplicate push to be rejected")
	}
	first, _ := q.pop()
	if first.key != "a" || !q.has("a") {
		t.Fatalf("expected FIFO order with a remembered, got %q", first.key)
	}
	if q.push("a", nil) {
		t.Fatal("popped keys must stay seen")
	}
	if q.len() != 1 {
		t.Fatalf("expected one pending key, got %d", q.len())
	}
}
