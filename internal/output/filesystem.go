package output

import (
	"fmt"
	"os"
	"path/filepath"

	"jwbindex/internal/catalog"
	"jwbindex/internal/fileutil"
	"jwbindex/internal/logging"
	"jwbindex/internal/textutil"
)

// filesystemWriter lays the tree out as directories. Each expanded category
// becomes a directory named after it, holding symlinks to its sub-category
// directories and to its downloaded media. Sub-category links are created
// even when the target was never crawled.
type filesystemWriter struct {
	writerBase
}

func (w *filesystemWriter) Write(roots []*catalog.Category) error {
	if err := w.ensureDir(); err != nil {
		return err
	}
	mediaDir, err := filepath.Abs(w.opts.MediaDir)
	if err != nil {
		return fmt.Errorf("resolve media directory: %w", err)
	}
	names := dirNames(roots)

	links, missing := 0, 0
	err = catalog.Walk(roots, func(cat *catalog.Category) error {
		dir := filepath.Join(w.opts.Dir, names.lookup(cat))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
		for _, entry := range cat.Contents {
			switch e := entry.(type) {
			case *catalog.Category:
				name := names.lookup(e)
				if err := fileutil.ReplaceSymlink(filepath.Join("..", name), filepath.Join(dir, name)); err != nil {
					return fmt.Errorf("link %s: %w", name, err)
				}
				links++
			case *catalog.Media:
				if !e.ExistsIn(mediaDir) {
					missing++
					continue
				}
				target := filepath.Join(mediaDir, e.Filename())
				if err := fileutil.ReplaceSymlink(target, filepath.Join(dir, e.Filename())); err != nil {
					return fmt.Errorf("link %s: %w", e.Filename(), err)
				}
				links++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	w.opts.Logger.Info("filesystem index written",
		logging.Int("links", links),
		logging.Int("not_downloaded", missing),
		logging.String("dir", w.opts.Dir),
	)
	return nil
}

// dirNamer maps category keys to unique directory names. Placeholders that
// share a key with an expanded category resolve to the same directory.
type dirNamer struct {
	byKey map[string]string
	used  map[string]string
}

func dirNames(roots []*catalog.Category) *dirNamer {
	n := &dirNamer{byKey: map[string]string{}, used: map[string]string{}}
	_ = catalog.Walk(roots, func(cat *catalog.Category) error {
		n.lookup(cat)
		return nil
	})
	return n
}

func (n *dirNamer) lookup(cat *catalog.Category) string {
	if name, ok := n.byKey[cat.Key]; ok {
		return name
	}
	name := textutil.SanitizeFileName(cat.Name)
	if name == "" {
		name = pageName(cat.Key)
	}
	if owner, taken := n.used[name]; taken && owner != cat.Key {
		name = name + " (" + pageName(cat.Key) + ")"
	}
	n.byKey[cat.Key] = name
	n.used[name] = cat.Key
	return name
}
