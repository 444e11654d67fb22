package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smazurov/barspacing/internal/spacing"
)

func setupTestStore(t *testing.T) (*TOML, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "spacing.toml")
	return NewTOML(path), path
}

func TestNewTOML_DefaultPath(t *testing.T) {
	if got := NewTOML("").Path(); got != "spacing.toml" {
		t.Errorf("expected default path spacing.toml, got %s", got)
	}
}

func TestTOML_LoadMissingFile(t *testing.T) {
	s, _ := setupTestStore(t)
	if err := s.Load(); err != nil {
		t.Fatalf("Load on missing file: %v", err)
	}
	if _, ok, _ := s.Read(spacing.KeySpacing); ok {
		t.Error("empty store should not contain keys")
	}
}

func TestTOML_WriteRemoveRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, path := setupTestStore(t)

	if err := s.Write(ctx, spacing.KeySpacing, 24); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Write(ctx, spacing.KeySelectionPadding, 24); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// A fresh store sees what the first one saved.
	reopened := NewTOML(path)
	value, ok, err := reopened.Read(spacing.KeySpacing)
	if err != nil || !ok || value != 24 {
		t.Fatalf("Read after reopen = %d, %v, %v; want 24, true, nil", value, ok, err)
	}

	if err := reopened.Remove(ctx, spacing.KeySpacing); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := reopened.Remove(ctx, spacing.KeySpacing); err != nil {
		t.Fatalf("second Remove should be a no-op: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), spacing.KeySpacing+" ") {
		t.Errorf("removed key still on disk:\n%s", data)
	}
	if !strings.Contains(string(data), spacing.KeySelectionPadding) {
		t.Errorf("padding key missing from disk:\n%s", data)
	}
}

func TestTOML_CorruptFile(t *testing.T) {
	s, path := setupTestStore(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("values = [not toml"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := s.Write(context.Background(), spacing.KeySpacing, 20); err == nil {
		t.Error("expected parse error to surface from Write")
	}
}

func TestTOML_WithWriter(t *testing.T) {
	ctx := context.Background()
	s, _ := setupTestStore(t)
	w := spacing.NewWriter(s, nil)

	if err := w.Apply(ctx, 8); err != nil {
		t.Fatalf("Apply(8): %v", err)
	}
	for _, key := range spacing.Keys() {
		value, ok, err := s.Read(key.Name)
		if err != nil || !ok || value != 24 {
			t.Errorf("%s = %d, %v, %v; want 24", key.Name, value, ok, err)
		}
	}

	if err := w.Apply(ctx, 0); err != nil {
		t.Fatalf("Apply(0): %v", err)
	}
	for _, key := range spacing.Keys() {
		if _, ok, _ := s.Read(key.Name); ok {
			t.Errorf("%s should be removed at offset 0", key.Name)
		}
	}
}
