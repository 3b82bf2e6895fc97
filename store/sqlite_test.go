package store

import (
	"path/filepath"
	"testing"
)

// newTestSQLiteStore opens a store in a temp directory. The test binary runs
// from the package directory, so the migrations resolve relatively.
func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(SQLiteConfig{
		Path:           filepath.Join(t.TempDir(), "kv.db"),
		MigrationsPath: "file://migrations",
	})
	if err != nil {
		t.Fatalf("NewSQLiteStore() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestSQLiteStore_GetMissing tests a miss on an empty database.
func TestSQLiteStore_GetMissing(t *testing.T) {
	s := newTestSQLiteStore(t)

	_, ok, err := s.Get("absent")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if ok {
		t.Error("Get() reported a hit on an empty store")
	}
}

// TestSQLiteStore_SetGet tests a round trip.
func TestSQLiteStore_SetGet(t *testing.T) {
	s := newTestSQLiteStore(t)

	if err := s.Set("sentiment.abc", "raw analysis"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	value, ok, err := s.Get("sentiment.abc")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if !ok || value != "raw analysis" {
		t.Errorf("Get() = (%q, %v), want (\"raw analysis\", true)", value, ok)
	}
}

// TestSQLiteStore_Upsert tests that Set replaces an existing value.
func TestSQLiteStore_Upsert(t *testing.T) {
	s := newTestSQLiteStore(t)

	if err := s.Set("model", "llama-3.1-8b-instant"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if err := s.Set("model", "llama-3.3-70b-versatile"); err != nil {
		t.Fatalf("Set() (replace) failed: %v", err)
	}
	value, ok, err := s.Get("model")
	if err != nil || !ok {
		t.Fatalf("Get() = (%q, %v, %v)", value, ok, err)
	}
	if value != "llama-3.3-70b-versatile" {
		t.Errorf("Get() after upsert = %q", value)
	}
}

// TestSQLiteStore_MissingPath tests the path guard.
func TestSQLiteStore_MissingPath(t *testing.T) {
	if _, err := NewSQLiteStore(SQLiteConfig{}); err == nil {
		t.Error("NewSQLiteStore() accepted an empty path")
	}
}

// TestSQLiteStore_Reopen tests that data survives a close and reopen.
func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	config := SQLiteConfig{Path: path, MigrationsPath: "file://migrations"}

	s, err := NewSQLiteStore(config)
	if err != nil {
		t.Fatalf("NewSQLiteStore() failed: %v", err)
	}
	if err := s.Set("api_key_saved", "true"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	s, err = NewSQLiteStore(config)
	if err != nil {
		t.Fatalf("NewSQLiteStore() (reopen) failed: %v", err)
	}
	defer s.Close()
	value, ok, err := s.Get("api_key_saved")
	if err != nil || !ok || value != "true" {
		t.Errorf("Get() after reopen = (%q, %v, %v)", value, ok, err)
	}
}
