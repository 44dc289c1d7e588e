package fileutil

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "nested", "out.txt")

	if err := WriteFileAtomic(dst, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello world" {
		t.Fatalf("content mismatch: got %q", got)
	}

	entries, err := os.ReadDir(filepath.Dir(dst))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp file to be cleaned up, got %d entries", len(entries))
	}
}

func TestWriteAtomicKeepsOldFileOnError(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(dst, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err := WriteAtomic(dst, 0o644, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected writer error, got %v", err)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != "old" {
		t.Fatalf("expected old content to survive, got %q", got)
	}
}

func TestFileMD5(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.bin")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	sum, err := FileMD5(path)
	if err != nil {
		t.Fatal(err)
	}
	if sum != "900150983cd24fb0d6963f7d28e17f72" {
		t.Fatalf("unexpected md5 %s", sum)
	}
	if !ChecksumMatches("900150983CD24FB0D6963F7D28E17F72", sum) {
		t.Fatal("checksum comparison should ignore case")
	}
	if !ChecksumMatches("", sum) {
		t.Fatal("empty expected checksum should match")
	}
	if ChecksumMatches("deadbeef", sum) {
		t.Fatal("different checksum should not match")
	}
}

func TestFileMD5MissingFile(t *testing.T) {
	if _, err := FileMD5(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReplaceSymlink(t *testing.T) {
	dir := t.TempDir()
	link := filepath.Join(dir, "link")

	if err := ReplaceSymlink("first", link); err != nil {
		t.Fatal(err)
	}
	if err := ReplaceSymlink("second", link); err != nil {
		t.Fatal(err)
	}
	target, err := os.Readlink(link)
	if err != nil {
		t.Fatal(err)
	}
	if target != "second" {
		t.Fatalf("expected link to be replaced, got %q", target)
	}
	if err := ReplaceSymlink("second", link); err != nil {
		t.Fatalf("relinking to the same target should be a no-op: %v", err)
	}

	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := ReplaceSymlink("x", sub); err == nil {
		t.Fatal("expected refusal to replace a directory")
	}
}
