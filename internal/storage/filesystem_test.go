package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizeKey(t *testing.T) {
	cases := map[string]string{
		"abc.mp4":          "abc.mp4",
		"/abc.mp4":         "abc.mp4",
		"./nested/abc.mp4": "nested/abc.mp4",
		`nested\abc.mp4`:   "nested/abc.mp4",
	}
	for in, want := range cases {
		got, err := sanitizeKey(in)
		if err != nil {
			t.Fatalf("sanitizeKey(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("sanitizeKey(%q) = %q, want %q", in, got, want)
		}
	}
	for _, bad := range []string{"", "  ", "..", "../etc/passwd", "a/../../b"} {
		if _, err := sanitizeKey(bad); err == nil {
			t.Fatalf("sanitizeKey(%q) expected error", bad)
		}
	}
}

func TestFileStoreImportMovesFile(t *testing.T) {
	root := t.TempDir()
	store, err := NewFileStore(filepath.Join(root, "videos"), "/videos/")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	src := filepath.Join(root, "output.mp4")
	if err := os.WriteFile(src, []byte("mp4"), 0o644); err != nil {
		t.Fatalf("write src: %v", err)
	}

	dst, err := store.Import(context.Background(), "req-1.mp4", src)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if dst != filepath.Join(root, "videos", "req-1.mp4") {
		t.Fatalf("unexpected destination %s", dst)
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "mp4" {
		t.Fatalf("imported file = %q, %v", data, err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("source should be gone, stat err = %v", err)
	}
	if got := store.URL("req-1.mp4"); got != "/videos/req-1.mp4" {
		t.Fatalf("URL = %q", got)
	}
}

func TestFileStoreWriteAndRemoveAll(t *testing.T) {
	root := filepath.Join(t.TempDir(), "run")
	store, err := NewFileStore(root, "")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	path, err := store.Write(context.Background(), "frames/frame_001.png", []byte{1})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat written file: %v", err)
	}
	if err := store.RemoveAll(); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Fatalf("root should be removed, stat err = %v", err)
	}
}
