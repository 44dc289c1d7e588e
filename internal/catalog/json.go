package catalog

import (
	"encoding/json"
	"time"
)

type categoryJSON struct {
	Type     string            `json:"type"`
	Key      string            `json:"key"`
	Name     string            `json:"name"`
	Home     bool              `json:"home"`
	Expanded bool              `json:"expanded"`
	Contents []json.RawMessage `json:"contents"`
}

type mediaJSON struct {
	Type        string     `json:"type"`
	Name        string     `json:"name"`
	URL         string     `json:"url"`
	Filename    string     `json:"filename"`
	MD5         string     `json:"md5,omitempty"`
	Size        int64      `json:"size,omitempty"`
	Published   *time.Time `json:"published,omitempty"`
	SubtitleURL string     `json:"subtitle_url,omitempty"`
}

// MarshalJSON renders the category and its contents with a "type"
// discriminator on every entry.
func (c *Category) MarshalJSON() ([]byte, error) {
	out := categoryJSON{
		Type:     "category",
		Key:      c.Key,
		Name:     c.Name,
		Home:     c.Home,
		Expanded: c.Expanded,
		Contents: make([]json.RawMessage, 0, len(c.Contents)),
	}
	for _, e := range c.Contents {
		raw, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		out.Contents = append(out.Contents, raw)
	}
	return json.Marshal(out)
}

// MarshalJSON renders the media item with its derived filename.
func (m *Media) MarshalJSON() ([]byte, error) {
	out := mediaJSON{
		Type:        "media",
		Name:        m.Name,
		URL:         m.URL,
		Filename:    m.Filename(),
		MD5:         m.MD5,
		Size:        m.Size,
		SubtitleURL: m.SubtitleURL,
	}
	if !m.Published.IsZero() {
		published := m.Published
		out.Published = &published
	}
	return json.Marshal(out)
}
