package bpconf

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadStoreConfigDefaultsWhenFileMissing(t *testing.T) {
	attr, err := LoadStoreConfig(filepath.Join(t.TempDir(), "does-not-exist.ini"))
	if err != nil {
		t.Fatal(err)
	}
	if attr.RootPath != defaultRootDir {
		t.Fatalf("RootPath = %q, want %q", attr.RootPath, defaultRootDir)
	}
	if attr.CacheSize != defaultCache {
		t.Fatalf("CacheSize = %d, want %d", attr.CacheSize, defaultCache)
	}
}

func TestLoadStoreConfigReadsStoreSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bplib.ini")
	contents := "[store]\nroot_path = /var/lib/bplib\ncache_size = 4096\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	attr, err := LoadStoreConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if attr.RootPath != "/var/lib/bplib" {
		t.Fatalf("RootPath = %q, want %q", attr.RootPath, "/var/lib/bplib")
	}
	if attr.CacheSize != 4096 {
		t.Fatalf("CacheSize = %d, want 4096", attr.CacheSize)
	}
}

func TestLoadStoreConfigFallsBackOnMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.ini")
	if err := os.WriteFile(path, []byte("[store]\nroot_path = /data\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	attr, err := LoadStoreConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if attr.RootPath != "/data" {
		t.Fatalf("RootPath = %q, want %q", attr.RootPath, "/data")
	}
	if attr.CacheSize != defaultCache {
		t.Fatalf("CacheSize = %d, want default %d", attr.CacheSize, defaultCache)
	}
}
