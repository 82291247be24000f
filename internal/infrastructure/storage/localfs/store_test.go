package localfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestStoreWriteAndList(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	path, err := store.Write(ctx, "20250704_전체_제목.md", []byte("---\n---\n"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if filepath.Dir(path) != store.Dir() {
		t.Fatalf("unexpected path: %s", path)
	}
	if err := os.WriteFile(filepath.Join(store.Dir(), "ignored.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	files, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 1 || files[0].Name != "20250704_전체_제목.md" || string(files[0].Content) != "---\n---\n" {
		t.Fatalf("unexpected listing: %+v", files)
	}

	if got, ok := store.Exists(ctx, "20250704_전체_제목.md"); !ok || got != path {
		t.Fatalf("expected existing file, got %q %v", got, ok)
	}
	if _, ok := store.Exists(ctx, "missing.md"); ok {
		t.Fatal("missing file reported as existing")
	}
}

func TestStoreWriteBacksUpCollision(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	if _, err := store.Write(ctx, "a.md", []byte("old")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	path, err := store.Write(ctx, "a.md", []byte("new"))
	if err != nil {
		t.Fatalf("second write: %v", err)
	}

	current, _ := os.ReadFile(path)
	backup, err := os.ReadFile(path + ".bak")
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(current) != "new" || string(backup) != "old" {
		t.Fatalf("unexpected contents: current=%q backup=%q", current, backup)
	}

	files, _ := store.List(ctx)
	if len(files) != 1 {
		t.Fatalf("backups must not be listed as outputs: %+v", files)
	}
}

func TestStoreConcurrentWritesKeepWholeFiles(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := store.Write(context.Background(), "same.md", []byte(fmt.Sprintf("content-%02d", i))); err != nil {
				t.Errorf("write %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	for _, name := range []string{"same.md", "same.md.bak"} {
		data, err := os.ReadFile(filepath.Join(store.Dir(), name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if len(data) != len("content-00") {
			t.Fatalf("%s is torn: %q", name, data)
		}
	}
	entries, _ := os.ReadDir(store.Dir())
	if len(entries) != 2 {
		t.Fatalf("temp files must not be left behind: %d entries", len(entries))
	}
}

func TestStoreRejectsPathNames(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	for _, name := range []string{"", "../escape.md", "sub/dir.md"} {
		if _, err := store.Write(context.Background(), name, []byte("x")); err == nil {
			t.Fatalf("expected %q to be rejected", name)
		}
	}
}

func TestInboxListsPDFs(t *testing.T) {
	dir := t.TempDir()
	decomposed := "\u1107\u116e\u1109\u1161\u11ab.pdf"
	for _, name := range []string{"b.pdf", "a.PDF", decomposed, "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("%PDF"), 0o644); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.pdf"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	docs, err := NewInbox(dir).List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected three pdfs, got %+v", docs)
	}
	if docs[0].Filename != "a.PDF" || docs[1].Filename != "b.pdf" {
		t.Fatalf("expected sorted names, got %+v", docs)
	}
	if docs[2].Filename != "부산.pdf" {
		t.Fatalf("expected NFC name, got %q", docs[2].Filename)
	}
	if _, err := os.Stat(docs[2].Path); err != nil {
		t.Fatalf("path must point at the file on disk: %v", err)
	}
}

func TestInboxMissingDir(t *testing.T) {
	if _, err := NewInbox(filepath.Join(t.TempDir(), "missing")).List(context.Background()); err == nil {
		t.Fatal("expected error for missing dir")
	}
}
