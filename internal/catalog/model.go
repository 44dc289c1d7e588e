package catalog

import (
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"
)

// Entry is a child of a Category: either a *Category or a *Media.
type Entry interface {
	entry()
}

// Category is one node of the catalog tree.
type Category struct {
	Key  string
	Name string
	// Home is true when Key was one of the crawl's seed keys.
	Home bool
	// Expanded is false for placeholders whose key was excluded or expanded
	// under another parent.
	Expanded bool
	Contents []Entry
}

func (*Category) entry() {}

// Subcategories returns the category children in document order.
func (c *Category) Subcategories() []*Category {
	var out []*Category
	for _, e := range c.Contents {
		if sub, ok := e.(*Category); ok {
			out = append(out, sub)
		}
	}
	return out
}

// Media returns the media children in document order.
func (c *Category) Media() []*Media {
	var out []*Media
	for _, e := range c.Contents {
		if m, ok := e.(*Media); ok {
			out = append(out, m)
		}
	}
	return out
}

// Media is a single publishable item with its chosen rendition.
type Media struct {
	URL  string
	Name string
	// MD5 is the catalog checksum; empty when absent.
	MD5 string
	// Size is the file size in bytes; zero when absent.
	Size int64
	// Published is the first-published time; zero when absent or unparseable.
	Published   time.Time
	SubtitleURL string
}

func (*Media) entry() {}

// Filename returns the last path segment of the media URL.
func (m *Media) Filename() string {
	return filenameFromURL(m.URL)
}

// SubtitleFilename returns the last path segment of the subtitle URL, or "".
func (m *Media) SubtitleFilename() string {
	if m.SubtitleURL == "" {
		return ""
	}
	return filenameFromURL(m.SubtitleURL)
}

// ExistsIn reports whether the media file is present in dir.
func (m *Media) ExistsIn(dir string) bool {
	name := m.Filename()
	if name == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}

// Timestamp returns the publish time in seconds since the epoch.
func (m *Media) Timestamp() (int64, bool) {
	if m.Published.IsZero() {
		return 0, false
	}
	return m.Published.Unix(), true
}

func filenameFromURL(raw string) string {
	p := raw
	if parsed, err := url.Parse(raw); err == nil {
		p = parsed.Path
	}
	base := path.Base(p)
	if base == "." || base == "/" {
		return ""
	}
	return base
}
