package mmap

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenReadClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.bin")
	content := []byte("quantgo snapshot payload")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	m, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if m.Size() != len(content) {
		t.Errorf("expected size %d, got %d", len(content), m.Size())
	}
	if !bytes.Equal(m.Bytes(), content) {
		t.Errorf("mapped bytes differ from file content")
	}

	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if m.Bytes() != nil {
		t.Error("Bytes should return nil after Close")
	}
	// Idempotent close
	if err := m.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestOpenEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	m, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer m.Close()

	if m.Size() != 0 {
		t.Errorf("expected size 0, got %d", m.Size())
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.bin")); err == nil {
		t.Error("expected error for missing file")
	}
}
