package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	defer s.Close()

	// Missing key is a miss, not an error
	_, found, err := s.Get(ctx, "snapshot/42/x86_64")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if found {
		t.Error("Get on empty store should miss")
	}

	want := []byte(`{"release":"42"}`)
	if err := s.Set(ctx, "snapshot/42/x86_64", want); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	got, found, err := s.Get(ctx, "snapshot/42/x86_64")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !found {
		t.Fatal("Get should hit after Set")
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Get = %q, want %q", got, want)
	}

	// Overwrite replaces the value
	want2 := []byte(`{"release":"43"}`)
	if err := s.Set(ctx, "snapshot/42/x86_64", want2); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	got, _, _ = s.Get(ctx, "snapshot/42/x86_64")
	if !bytes.Equal(got, want2) {
		t.Errorf("Get after overwrite = %q, want %q", got, want2)
	}

	// Delete removes the value; deleting again is a no-op
	if err := s.Delete(ctx, "snapshot/42/x86_64"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	_, found, _ = s.Get(ctx, "snapshot/42/x86_64")
	if found {
		t.Error("Get should miss after Delete")
	}
	if err := s.Delete(ctx, "snapshot/42/x86_64"); err != nil {
		t.Errorf("Delete of missing key should be a no-op, got %v", err)
	}
}

func TestFileStore_NoPartialWrites(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if err := s.Set(ctx, "key", []byte("value")); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	// No temp files may survive a completed write
	var leftovers []string
	filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() && filepath.Ext(path) != ".json" {
			leftovers = append(leftovers, path)
		}
		return nil
	})
	if len(leftovers) > 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}

func TestNullStore(t *testing.T) {
	ctx := context.Background()
	s := NewNullStore()
	defer s.Close()

	if err := s.Set(ctx, "key", []byte("value")); err != nil {
		t.Errorf("Set error: %v", err)
	}
	_, found, err := s.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if found {
		t.Error("NullStore should not store data")
	}
	if err := s.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestOpen(t *testing.T) {
	s, err := Open(BackendFile, t.TempDir(), "")
	if err != nil {
		t.Fatalf("Open(file): %v", err)
	}
	if _, ok := s.(*FileStore); !ok {
		t.Errorf("Open(file) = %T, want *FileStore", s)
	}

	s, err = Open(BackendNone, "", "")
	if err != nil {
		t.Fatalf("Open(none): %v", err)
	}
	if _, ok := s.(*NullStore); !ok {
		t.Errorf("Open(none) = %T, want *NullStore", s)
	}

	if _, err := Open("mongo", "", ""); err == nil {
		t.Error("Open with unknown backend should fail")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}
