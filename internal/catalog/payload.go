package catalog

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"jwbindex/internal/rendition"
)

// webExcludeTag marks a media collection hidden from the web client.
const webExcludeTag = "WebExclude"

const publishedLayout = "2006-01-02T15:04:05"

var fractionalZulu = regexp.MustCompile(`\.[0-9]+Z$`)

type categoryResponse struct {
	Category categoryPayload `json:"category"`
}

type categoryPayload struct {
	Key           string               `json:"key"`
	Name          string               `json:"name"`
	Tags          []string             `json:"tags"`
	Subcategories []subcategoryPayload `json:"subcategories"`
	Media         []mediaPayload       `json:"media"`
}

type subcategoryPayload struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

type mediaPayload struct {
	Type           string        `json:"type"`
	Title          string        `json:"title"`
	FirstPublished *string       `json:"firstPublished"`
	Files          []filePayload `json:"files"`
}

type filePayload struct {
	URL         string           `json:"progressiveDownloadURL"`
	Checksum    string           `json:"checksum"`
	Size        looseInt         `json:"filesize"`
	Label       looseString      `json:"label"`
	FrameHeight looseInt         `json:"frameHeight"`
	Subtitled   looseBool        `json:"subtitled"`
	Subtitles   *subtitlePayload `json:"subtitles"`
}

type subtitlePayload struct {
	URL string `json:"url"`
}

// looseInt accepts a JSON number, a numeric string, or null. Anything
// unparseable decodes to zero.
type looseInt int64

func (v *looseInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = 0
		return nil
	}
	text := strings.Trim(string(data), `"`)
	if n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64); err == nil {
		*v = looseInt(n)
		return nil
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
		*v = looseInt(int64(f))
		return nil
	}
	*v = 0
	return nil
}

// looseString keeps JSON strings only. Any other value decodes to "", which
// makes ranking fall back to the frame height.
type looseString string

func (v *looseString) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		*v = ""
		return nil
	}
	*v = looseString(text)
	return nil
}

// looseBool is set only by a JSON true or false. Anything else leaves it
// unknown.
type looseBool struct {
	value *bool
}

func (v *looseBool) UnmarshalJSON(data []byte) error {
	v.value = nil
	switch string(bytes.TrimSpace(data)) {
	case "true":
		b := true
		v.value = &b
	case "false":
		b := false
		v.value = &b
	}
	return nil
}

func (c categoryPayload) webExcluded() bool {
	for _, tag := range c.Tags {
		if tag == webExcludeTag {
			return true
		}
	}
	return false
}

func (f filePayload) rendition() rendition.File {
	file := rendition.File{
		URL:         f.URL,
		Checksum:    f.Checksum,
		Size:        int64(f.Size),
		Label:       string(f.Label),
		FrameHeight: int(f.FrameHeight),
		Subtitled:   f.Subtitled.value,
	}
	if f.Subtitles != nil {
		file.SubtitleURL = f.Subtitles.URL
	}
	return file
}

func (m mediaPayload) renditions() []rendition.File {
	files := make([]rendition.File, 0, len(m.Files))
	for _, f := range m.Files {
		files = append(files, f.rendition())
	}
	return files
}

func decodeCategory(body []byte) (categoryPayload, error) {
	var resp categoryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return categoryPayload{}, err
	}
	return resp.Category, nil
}

// parsePublished parses a firstPublished value such as
// "2019-03-04T12:00:00.000Z". The fractional zulu suffix is dropped and the
// remainder is read as local time.
func parsePublished(value string) (time.Time, error) {
	trimmed := fractionalZulu.ReplaceAllString(value, "")
	return time.ParseInLocation(publishedLayout, trimmed, time.Local)
}
