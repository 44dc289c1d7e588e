package output

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/eknkc/pug"

	"jwbindex/internal/catalog"
	"jwbindex/internal/fileutil"
	"jwbindex/internal/logging"
)

//go:embed templates/page.pug
var pageTemplate []byte

// Link is one entry on a rendered page.
type Link struct {
	Name string
	Href string
	Meta string
}

// Page is the data the page template renders.
type Page struct {
	Title      string
	Categories []Link
	Media      []Link
	IndexHref  string
	Generated  string
}

var (
	compileOnce sync.Once
	compiled    *template.Template
	compileErr  error
)

// Template returns the compiled page template.
func Template() (*template.Template, error) {
	compileOnce.Do(func() {
		compiled, compileErr = compileTemplate()
	})
	return compiled, compileErr
}

// pug compiles from a path, so the embedded source is staged in a temp dir.
func compileTemplate() (*template.Template, error) {
	dir, err := os.MkdirTemp("", "jwb-index-pug-")
	if err != nil {
		return nil, fmt.Errorf("stage template: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "page.pug")
	if err := os.WriteFile(path, pageTemplate, 0o600); err != nil {
		return nil, fmt.Errorf("stage template: %w", err)
	}
	tpl, err := pug.CompileFile(path, pug.Options{})
	if err != nil {
		return nil, fmt.Errorf("compile page template: %w", err)
	}
	return tpl, nil
}

// RenderPage executes the page template into w.
func RenderPage(w io.Writer, page Page) error {
	tpl, err := Template()
	if err != nil {
		return err
	}
	return tpl.Execute(w, page)
}

// CategoryPage builds the page for one category. categoryHref maps a child
// key to its link; mediaHref maps a media item to its link.
func CategoryPage(cat *catalog.Category, categoryHref func(key string) string, mediaHref func(*catalog.Media) string) Page {
	page := Page{Title: cat.Name, Generated: generatedLabel()}
	if page.Title == "" {
		page.Title = cat.Key
	}
	for _, entry := range cat.Contents {
		switch e := entry.(type) {
		case *catalog.Category:
			page.Categories = append(page.Categories, Link{Name: e.Name, Href: categoryHref(e.Key)})
		case *catalog.Media:
			page.Media = append(page.Media, Link{Name: e.Name, Href: mediaHref(e), Meta: mediaMeta(e)})
		}
	}
	return page
}

// IndexPage builds the landing page listing the seed categories.
func IndexPage(roots []*catalog.Category, categoryHref func(key string) string) Page {
	page := Page{Title: "JW Broadcasting index", Generated: generatedLabel()}
	for _, root := range roots {
		name := root.Name
		if name == "" {
			name = root.Key
		}
		page.Categories = append(page.Categories, Link{Name: name, Href: categoryHref(root.Key)})
	}
	return page
}

func mediaMeta(m *catalog.Media) string {
	var parts []string
	if !m.Published.IsZero() {
		parts = append(parts, m.Published.Format("2006-01-02"))
	}
	if m.Size > 0 {
		parts = append(parts, humanize.IBytes(uint64(m.Size)))
	}
	return strings.Join(parts, " · ")
}

func generatedLabel() string {
	return "Generated " + time.Now().Format("2006-01-02 15:04")
}

// htmlWriter writes one page per expanded category plus index.html.
type htmlWriter struct {
	writerBase
}

func (w *htmlWriter) Write(roots []*catalog.Category) error {
	if err := w.ensureDir(); err != nil {
		return err
	}
	if _, err := Template(); err != nil {
		return err
	}
	href := func(key string) string { return pageName(key) + ".html" }

	pages := 0
	err := catalog.Walk(roots, func(cat *catalog.Category) error {
		page := CategoryPage(cat, href, func(m *catalog.Media) string {
			return w.mediaTarget(m, w.opts.Dir)
		})
		page.IndexHref = "index.html"
		path := filepath.Join(w.opts.Dir, href(cat.Key))
		if err := fileutil.WriteAtomic(path, 0o644, func(out io.Writer) error {
			return RenderPage(out, page)
		}); err != nil {
			return err
		}
		pages++
		return nil
	})
	if err != nil {
		return err
	}

	index := filepath.Join(w.opts.Dir, "index.html")
	if err := fileutil.WriteAtomic(index, 0o644, func(out io.Writer) error {
		return RenderPage(out, IndexPage(roots, href))
	}); err != nil {
		return err
	}
	w.opts.Logger.Info("html pages written", logging.Int("count", pages+1), logging.String("dir", w.opts.Dir))
	return nil
}
