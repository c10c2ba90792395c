package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFilesystemStore_SaveAndOpen(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystemStore failed: %v", err)
	}

	ctx := context.Background()
	content := []byte("fake image bytes")
	name := NewArtifactName("png")

	if err := store.Save(ctx, name, content); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Open(ctx, name)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("Open returned %q, want %q", got, content)
	}
}

func TestFilesystemStore_Open_NotFound(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystemStore failed: %v", err)
	}

	_, err = store.Open(context.Background(), "0123456789abcdef0123456789abcdef.png")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFilesystemStore_Delete(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystemStore failed: %v", err)
	}

	ctx := context.Background()
	name := NewArtifactName("jpg")
	if err := store.Save(ctx, name, []byte("data")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := store.Delete(ctx, name); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := store.Open(ctx, name); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestFilesystemStore_Delete_NotFound(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystemStore failed: %v", err)
	}

	err = store.Delete(context.Background(), "0123456789abcdef0123456789abcdef.gif")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// Save完了後にルート直下へ一時ファイルが残らないことを検証
func TestFilesystemStore_Save_NoTempLeftover(t *testing.T) {
	root := t.TempDir()
	store, err := NewFilesystemStore(root)
	if err != nil {
		t.Fatalf("NewFilesystemStore failed: %v", err)
	}

	name := NewArtifactName("webp")
	if err := store.Save(context.Background(), name, []byte("payload")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected exactly 1 file, got %v", names)
	}
	if entries[0].Name() != name {
		t.Errorf("file name = %q, want %q", entries[0].Name(), name)
	}
}

func TestNewFilesystemStore_CreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "uploads")
	if _, err := NewFilesystemStore(root); err != nil {
		t.Fatalf("NewFilesystemStore failed: %v", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected root to be a directory")
	}
}
