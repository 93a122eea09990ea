package kvstore

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// storeContract runs the behavior every backend must share.
func storeContract(t *testing.T, s Store) {
	t.Helper()

	if _, ok, err := s.Get("missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v, err %v; want miss", ok, err)
	}

	if err := s.Set("teamfit:order:o-1", `{"a":1}`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := s.Get("teamfit:order:o-1")
	if err != nil || !ok || v != `{"a":1}` {
		t.Fatalf("Get = %q, %v, %v", v, ok, err)
	}

	if err := s.Set("teamfit:order:o-1", `{"a":2}`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if v, _, _ := s.Get("teamfit:order:o-1"); v != `{"a":2}` {
		t.Errorf("after overwrite = %q, want last writer", v)
	}

	if err := s.Delete("teamfit:order:o-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get("teamfit:order:o-1"); ok {
		t.Error("key still present after Delete")
	}
	if err := s.Delete("never-set"); err != nil {
		t.Errorf("Delete(missing) = %v, want nil", err)
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	storeContract(t, m)
	if m.Len() != 0 {
		t.Errorf("Len = %d after contract, want 0", m.Len())
	}
}

func TestFile(t *testing.T) {
	f, err := NewFile(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	storeContract(t, f)
}

func TestFile_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	a, err := NewFile(dir)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	if err := a.Set("k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	b, err := NewFile(dir)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	if v, ok, err := b.Get("k"); err != nil || !ok || v != "v" {
		t.Errorf("second instance Get = %q, %v, %v", v, ok, err)
	}
	if _, err := os.Stat(a.Path() + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}
}

func TestFile_CorruptDocument(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(dir)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	if err := os.WriteFile(f.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := f.Get("k"); err == nil || !strings.Contains(err.Error(), "parsing") {
		t.Errorf("Get on corrupt document = %v, want parse error", err)
	}

	// A write replaces the corrupt document instead of failing forever.
	if err := f.Set("k", "v"); err != nil {
		t.Fatalf("Set on corrupt document: %v", err)
	}
	v, ok, err := f.Get("k")
	if err != nil || !ok || v != "v" {
		t.Errorf("Get after rewrite = %q, %v, %v", v, ok, err)
	}
}

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite(t *testing.T) {
	storeContract(t, newTestSQLite(t))
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSQLite(dir)
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	if err := s.Set("k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	s.Close()

	s, err = NewSQLite(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if v, ok, err := s.Get("k"); err != nil || !ok || v != "v" {
		t.Errorf("Get after reopen = %q, %v, %v", v, ok, err)
	}
	if _, err := os.Stat(filepath.Join(dir, DBName)); err != nil {
		t.Errorf("database file missing: %v", err)
	}
}

func TestNewSQLite_OpenError(t *testing.T) {
	orig := openDB
	t.Cleanup(func() { openDB = orig })
	openDB = func(string, string) (*sql.DB, error) {
		return nil, errors.New("boom")
	}

	if _, err := NewSQLite(t.TempDir()); err == nil || !strings.Contains(err.Error(), "open database") {
		t.Errorf("NewSQLite = %v, want open database error", err)
	}
}

func TestOpen(t *testing.T) {
	tests := []struct {
		backend string
		want    string
		wantErr bool
	}{
		{"", "*kvstore.Memory", false},
		{BackendMemory, "*kvstore.Memory", false},
		{BackendFile, "*kvstore.File", false},
		{BackendSQLite, "*kvstore.SQLite", false},
		{"redis", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			s, cleanup, err := Open(tt.backend, t.TempDir())
			if cleanup == nil {
				t.Fatal("cleanup is nil")
			}
			defer cleanup()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open error = %v", err)
			}
			if tt.wantErr {
				return
			}
			if got := typeName(s); got != tt.want {
				t.Errorf("Open(%q) = %s, want %s", tt.backend, got, tt.want)
			}
		})
	}
}

func typeName(s Store) string {
	switch s.(type) {
	case *Memory:
		return "*kvstore.Memory"
	case *File:
		return "*kvstore.File"
	case *SQLite:
		return "*kvstore.SQLite"
	default:
		return "unknown"
	}
}
