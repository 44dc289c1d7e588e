package output

import (
	"bufio"
	"io"
	"path/filepath"

	"jwbindex/internal/catalog"
	"jwbindex/internal/fileutil"
	"jwbindex/internal/logging"
	"jwbindex/internal/textutil"
)

// m3uWriter writes one extended M3U playlist per expanded category. Child
// categories appear as entries pointing at their own playlist.
type m3uWriter struct {
	writerBase
}

func (w *m3uWriter) Write(roots []*catalog.Category) error {
	if err := w.ensureDir(); err != nil {
		return err
	}
	written := 0
	err := catalog.Walk(roots, func(cat *catalog.Category) error {
		path := filepath.Join(w.opts.Dir, pageName(cat.Key)+".m3u")
		if err := fileutil.WriteAtomic(path, 0o644, func(out io.Writer) error {
			return w.render(out, cat)
		}); err != nil {
			return err
		}
		written++
		return nil
	})
	if err != nil {
		return err
	}
	w.opts.Logger.Info("playlists written", logging.Int("count", written), logging.String("dir", w.opts.Dir))
	return nil
}

func (w *m3uWriter) render(out io.Writer, cat *catalog.Category) error {
	buf := bufio.NewWriter(out)
	buf.WriteString("#EXTM3U\n")
	buf.WriteString("#PLAYLIST:" + textutil.SingleLine(cat.Name) + "\n")
	for _, entry := range cat.Contents {
		switch e := entry.(type) {
		case *catalog.Category:
			buf.WriteString("#EXTINF:-1," + textutil.SingleLine(e.Name) + "\n")
			buf.WriteString(pageName(e.Key) + ".m3u\n")
		case *catalog.Media:
			buf.WriteString("#EXTINF:-1," + textutil.SingleLine(e.Name) + "\n")
			buf.WriteString(w.mediaTarget(e, w.opts.Dir) + "\n")
		}
	}
	return buf.Flush()
}
