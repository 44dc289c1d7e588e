package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"jwbindex/internal/catalog"
	"jwbindex/internal/logging"
	"jwbindex/internal/services"
)

// sampleRoots builds Root -> (Talks, Hidden placeholder, media a, media b),
// Talks -> (media b).
func sampleRoots() []*catalog.Category {
	a := &catalog.Media{URL: "https://cdn.test/a.mp4", Name: "Alpha", Size: 2048, Published: time.Date(2021, 4, 5, 0, 0, 0, 0, time.Local)}
	b := &catalog.Media{URL: "https://cdn.test/b.mp4", Name: "Beta\nsecond line"}
	talks := &catalog.Category{Key: "Talks", Name: "Talks: Public", Expanded: true, Contents: []catalog.Entry{b}}
	hidden := &catalog.Category{Key: "Hidden", Name: "Hidden"}
	root := &catalog.Category{Key: "Root", Name: "Root", Home: true, Expanded: true, Contents: []catalog.Entry{talks, hidden, a, b}}
	return []*catalog.Category{root}
}

func newWriter(t *testing.T, mode string, opts Options) Writer {
	t.Helper()
	opts.Logger = logging.NewNop()
	w, err := New(mode, opts)
	if err != nil {
		t.Fatalf("New(%s) returned error: %v", mode, err)
	}
	return w
}

func TestNewRejectsUnknownMode(t *testing.T) {
	_, err := New("pdf", Options{Dir: t.TempDir()})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := New("m3u", Options{}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error without dir, got %v", err)
	}
	if _, err := New("filesystem", Options{Dir: t.TempDir()}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error without media dir, got %v", err)
	}
}

func TestTxtListsEachURLOnce(t *testing.T) {
	var buf bytes.Buffer
	if err := newWriter(t, "txt", Options{Out: &buf}).Write(sampleRoots()); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	want := "https://cdn.test/a.mp4\nhttps://cdn.test/b.mp4\n"
	if buf.String() != want {
		t.Fatalf("unexpected txt output:\n%s", buf.String())
	}
}

func TestTxtWritesFile(t *testing.T) {
	dir := t.TempDir()
	if err := newWriter(t, "txt", Options{Dir: dir}).Write(sampleRoots()); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "urls.txt"))
	if err != nil {
		t.Fatalf("read urls.txt: %v", err)
	}
	if strings.Count(string(data), "\n") != 2 {
		t.Fatalf("unexpected urls.txt: %q", data)
	}
}

func TestM3UPlaylistPerExpandedCategory(t *testing.T) {
	dir := t.TempDir()
	mediaDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(mediaDir, "a.mp4"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := newWriter(t, "m3u", Options{Dir: dir, MediaDir: mediaDir}).Write(sampleRoots()); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "Hidden.m3u")); !os.IsNotExist(err) {
		t.Fatal("placeholders must not get a playlist")
	}
	data, err := os.ReadFile(filepath.Join(dir, "Root.m3u"))
	if err != nil {
		t.Fatalf("read Root.m3u: %v", err)
	}
	text := string(data)
	rel, _ := filepath.Rel(dir, filepath.Join(mediaDir, "a.mp4"))
	for _, want := range []string{
		"#EXTM3U\n#PLAYLIST:Root\n",
		"#EXTINF:-1,Talks: Public\nTalks.m3u\n",
		"#EXTINF:-1,Hidden\nHidden.m3u\n",
		"#EXTINF:-1,Alpha\n" + filepath.ToSlash(rel) + "\n",
		"#EXTINF:-1,Beta second line\nhttps://cdn.test/b.mp4\n",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in playlist:\n%s", want, text)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "Talks.m3u")); err != nil {
		t.Fatalf("expected Talks playlist: %v", err)
	}
}

func TestJSONWritesTree(t *testing.T) {
	var buf bytes.Buffer
	if err := newWriter(t, "json", Options{Out: &buf}).Write(sampleRoots()); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != 1 || decoded[0]["key"] != "Root" {
		t.Fatalf("unexpected json: %s", buf.String())
	}
	contents := decoded[0]["contents"].([]any)
	if len(contents) != 4 {
		t.Fatalf("expected four entries, got %d", len(contents))
	}

	buf.Reset()
	if err := newWriter(t, "json", Options{Out: &buf}).Write(nil); err != nil {
		t.Fatalf("Write(nil) returned error: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Fatalf("expected empty array, got %q", buf.String())
	}
}

func TestFilesystemLinksMediaAndSubcategories(t *testing.T) {
	dir := t.TempDir()
	mediaDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(mediaDir, "a.mp4"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	w := newWriter(t, "filesystem", Options{Dir: dir, MediaDir: mediaDir})
	if err := w.Write(sampleRoots()); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	rootDir := filepath.Join(dir, "Root")
	target, err := os.Readlink(filepath.Join(rootDir, "a.mp4"))
	if err != nil || target != filepath.Join(mediaDir, "a.mp4") {
		t.Fatalf("unexpected media link %q (%v)", target, err)
	}
	if _, err := os.Lstat(filepath.Join(rootDir, "b.mp4")); !os.IsNotExist(err) {
		t.Fatal("media that was not downloaded must not be linked")
	}
	talksLink, err := os.Readlink(filepath.Join(rootDir, "Talks- Public"))
	if err != nil || talksLink != filepath.Join("..", "Talks- Public") {
		t.Fatalf("unexpected sub-category link %q (%v)", talksLink, err)
	}
	if info, err := os.Stat(filepath.Join(rootDir, "Talks- Public")); err != nil || !info.IsDir() {
		t.Fatalf("sub-category link should resolve to a directory: %v", err)
	}
	if _, err := os.Lstat(filepath.Join(rootDir, "Hidden")); err != nil {
		t.Fatalf("placeholder link should exist even though it dangles: %v", err)
	}
	if _, err := os.Stat(filepath.Join(rootDir, "Hidden")); !os.IsNotExist(err) {
		t.Fatal("placeholder link should dangle")
	}

	// A second run replaces links in place.
	if err := w.Write(sampleRoots()); err != nil {
		t.Fatalf("second Write returned error: %v", err)
	}
}

func TestDirNamesDisambiguateCollisions(t *testing.T) {
	one := &catalog.Category{Key: "One", Name: "Same", Expanded: true}
	two := &catalog.Category{Key: "Two", Name: "Same", Expanded: true}
	root := &catalog.Category{Key: "Root", Name: "Root", Expanded: true, Contents: []catalog.Entry{one, two}}
	names := dirNames([]*catalog.Category{root})
	if names.lookup(one) != "Same" || names.lookup(two) != "Same (Two)" {
		t.Fatalf("unexpected names %q %q", names.lookup(one), names.lookup(two))
	}
	placeholder := &catalog.Category{Key: "Two", Name: "Same"}
	if names.lookup(placeholder) != "Same (Two)" {
		t.Fatal("placeholders must resolve to the expanded category's directory")
	}
}

func TestHTMLPages(t *testing.T) {
	dir := t.TempDir()
	if err := newWriter(t, "html", Options{Dir: dir}).Write(sampleRoots()); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "Root.html"))
	if err != nil {
		t.Fatalf("read Root.html: %v", err)
	}
	page := string(data)
	for _, want := range []string{"<title>Root</title>", `href="Talks.html"`, `href="https://cdn.test/a.mp4"`, "Alpha", "2021-04-05"} {
		if !strings.Contains(page, want) {
			t.Fatalf("expected %q in page:\n%s", want, page)
		}
	}
	index, err := os.ReadFile(filepath.Join(dir, "index.html"))
	if err != nil {
		t.Fatalf("read index.html: %v", err)
	}
	if !strings.Contains(string(index), `href="Root.html"`) {
		t.Fatalf("index should link seed categories:\n%s", index)
	}
}

func TestCategoryPageEscapesNames(t *testing.T) {
	cat := &catalog.Category{Key: "K", Name: "<b>bold</b>", Expanded: true}
	var buf bytes.Buffer
	if err := RenderPage(&buf, CategoryPage(cat, func(k string) string { return k }, func(m *catalog.Media) string { return m.URL })); err != nil {
		t.Fatalf("RenderPage returned error: %v", err)
	}
	if strings.Contains(buf.String(), "<b>bold</b>") {
		t.Fatalf("expected html escaping, got:\n%s", buf.String())
	}
}
