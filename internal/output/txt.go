package output

import (
	"bufio"
	"io"
	"path/filepath"

	"jwbindex/internal/catalog"
	"jwbindex/internal/fileutil"
	"jwbindex/internal/logging"
)

// txtWriter lists every media URL once, one per line.
type txtWriter struct {
	writerBase
}

func (w *txtWriter) Write(roots []*catalog.Category) error {
	render := func(out io.Writer) error {
		buf := bufio.NewWriter(out)
		for _, m := range catalog.AllMedia(roots) {
			if _, err := buf.WriteString(m.URL + "\n"); err != nil {
				return err
			}
		}
		return buf.Flush()
	}
	if w.opts.Out != nil {
		return render(w.opts.Out)
	}
	if err := w.ensureDir(); err != nil {
		return err
	}
	path := filepath.Join(w.opts.Dir, "urls.txt")
	if err := fileutil.WriteAtomic(path, 0o644, render); err != nil {
		return err
	}
	w.opts.Logger.Info("url list written", logging.String("path", path))
	return nil
}
