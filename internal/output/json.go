package output

import (
	"encoding/json"
	"io"
	"path/filepath"

	"jwbindex/internal/catalog"
	"jwbindex/internal/fileutil"
	"jwbindex/internal/logging"
)

// jsonWriter dumps the whole tree as indented JSON.
type jsonWriter struct {
	writerBase
}

func (w *jsonWriter) Write(roots []*catalog.Category) error {
	if roots == nil {
		roots = []*catalog.Category{}
	}
	render := func(out io.Writer) error {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(roots)
	}
	if w.opts.Out != nil {
		return render(w.opts.Out)
	}
	if err := w.ensureDir(); err != nil {
		return err
	}
	path := filepath.Join(w.opts.Dir, "index.json")
	if err := fileutil.WriteAtomic(path, 0o644, render); err != nil {
		return err
	}
	w.opts.Logger.Info("json index written", logging.String("path", path))
	return nil
}
