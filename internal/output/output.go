package output

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"jwbindex/internal/catalog"
	"jwbindex/internal/logging"
	"jwbindex/internal/services"
	"jwbindex/internal/textutil"
)

// Modes lists the supported writer modes.
var Modes = []string{"txt", "m3u", "html", "filesystem", "json"}

// Writer renders a crawl result.
type Writer interface {
	Write(roots []*catalog.Category) error
}

// Options configures the writers.
type Options struct {
	// Dir receives the generated files.
	Dir string
	// MediaDir is where downloaded media lives. Media present there is linked
	// locally; everything else links to its URL.
	MediaDir string
	// Out, when set, receives txt and json output instead of a file in Dir.
	Out    io.Writer
	Logger *slog.Logger
}

// New returns the writer for mode.
func New(mode string, opts Options) (Writer, error) {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if opts.Out == nil && strings.TrimSpace(opts.Dir) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "output", mode, "output directory required", nil)
	}
	opts.Logger = logging.NewComponentLogger(opts.Logger, "output")
	base := writerBase{opts: opts}
	switch mode {
	case "txt":
		return &txtWriter{writerBase: base}, nil
	case "m3u":
		return &m3uWriter{writerBase: base}, nil
	case "html":
		return &htmlWriter{writerBase: base}, nil
	case "filesystem":
		if opts.MediaDir == "" {
			return nil, services.Wrap(services.ErrConfiguration, "output", mode, "media directory required", nil)
		}
		return &filesystemWriter{writerBase: base}, nil
	case "json":
		return &jsonWriter{writerBase: base}, nil
	default:
		return nil, services.Wrap(services.ErrValidation, "output", "new", fmt.Sprintf("unsupported mode %q (expected one of %v)", mode, Modes), nil)
	}
}

type writerBase struct {
	opts Options
}

func (b writerBase) ensureDir() error {
	if err := os.MkdirAll(b.opts.Dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return nil
}

// mediaTarget returns the local path of m relative to dir when it has been
// downloaded, else its URL.
func (b writerBase) mediaTarget(m *catalog.Media, dir string) string {
	if b.opts.MediaDir == "" || !m.ExistsIn(b.opts.MediaDir) {
		return m.URL
	}
	local := filepath.Join(b.opts.MediaDir, m.Filename())
	if rel, err := filepath.Rel(dir, local); err == nil {
		return filepath.ToSlash(rel)
	}
	return local
}

// pageName is the file stem used for a category's playlist or page.
func pageName(key string) string {
	if name := textutil.SanitizeFileName(key); name != "" {
		return name
	}
	return textutil.SanitizeToken(key)
}
