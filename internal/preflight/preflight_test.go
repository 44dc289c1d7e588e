package preflight

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"jwbindex/internal/config"
	"jwbindex/internal/services"
)

type stubFetcher struct {
	body []byte
	err  error
	urls []string
}

func (s *stubFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	s.urls = append(s.urls, url)
	return s.body, s.err
}

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckFreeSpace("space", dir, 0); !result.Passed {
		t.Fatalf("expected pass with zero floor, got: %s", result.Detail)
	}
	if result := CheckFreeSpace("space", dir, math.MaxUint64); result.Passed {
		t.Fatal("expected failure with an impossible floor")
	}
}

func TestCheckCatalog(t *testing.T) {
	ok := &stubFetcher{body: []byte(`{"category":{}}`)}
	if result := CheckCatalog(context.Background(), ok, "http://catalog.test/x"); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}

	missing := &stubFetcher{err: services.Wrap(services.ErrNotFound, "mediator", "fetch", "HTTP 404", nil)}
	result := CheckCatalog(context.Background(), missing, "http://catalog.test/x")
	if result.Passed {
		t.Fatal("expected failure for missing category")
	}
	if result.Detail != "first seed category not found (check crawl.categories and language)" {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}

	broken := &stubFetcher{err: errors.New("connection refused")}
	if result := CheckCatalog(context.Background(), broken, "http://catalog.test/x"); result.Passed || result.Detail != "connection refused" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestRunAllProbesFirstSeed(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DownloadDir = filepath.Join(base, "media")
	cfg.Paths.OutputDir = filepath.Join(base, "index")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.HistoryDB = filepath.Join(base, "history.db")
	cfg.Download.KeepFreeMiB = 0
	cfg.API.BaseURL = "http://catalog.test/v1"
	cfg.Crawl.Categories = []string{"First", "Second"}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	fetcher := &stubFetcher{body: []byte("{}")}
	results := RunAll(context.Background(), &cfg, fetcher)
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	if Failed(results) {
		t.Fatalf("expected all checks to pass: %+v", results)
	}
	if len(fetcher.urls) != 1 || fetcher.urls[0] != "http://catalog.test/v1/categories/E/First?detailed=1&clientType=www" {
		t.Fatalf("unexpected probe urls: %v", fetcher.urls)
	}

	if results := RunAll(context.Background(), &cfg, nil); len(results) != 4 {
		t.Fatalf("expected catalog probe to be skipped without a fetcher, got %d results", len(results))
	}
}
