package cache

import (
	"bytes"
	"testing"
)

func TestKey_VersionBumpChangesKey(t *testing.T) {
	a := Key("text-embedding-3-small:v1", "kubernetes administration")
	b := Key("text-embedding-3-small:v2", "kubernetes administration")
	if a == b {
		t.Error("provider version bump must change the cache key")
	}

	if a != Key("text-embedding-3-small:v1", "kubernetes administration") {
		t.Error("key derivation must be deterministic")
	}
}

func TestMemoryCache_RoundTrip(t *testing.T) {
	c := NewMemoryCache()

	if _, found := c.Get("missing"); found {
		t.Error("empty cache reported a hit")
	}

	if err := c.Set("k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	got, found := c.Get("k")
	if !found || !bytes.Equal(got, []byte("v")) {
		t.Errorf("expected hit with %q, got %q found=%v", "v", got, found)
	}

	if err := c.Delete("k"); err != nil {
		t.Fatal(err)
	}
	if _, found := c.Get("k"); found {
		t.Error("deleted key still present")
	}
}

func TestSQLiteCache_RoundTrip(t *testing.T) {
	store, err := NewSQLiteCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if err := store.Set("k", []byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	got, found := store.Get("k")
	if !found || !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Errorf("unexpected read back: %v found=%v", got, found)
	}

	// Overwriting the same key converges to the newest value.
	if err := store.Set("k", []byte{9}); err != nil {
		t.Fatal(err)
	}
	got, _ = store.Get("k")
	if !bytes.Equal(got, []byte{9}) {
		t.Errorf("expected overwrite to win, got %v", got)
	}

	if err := store.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, found := store.Get("k"); found {
		t.Error("clear left entries behind")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	disk, err := NewSQLiteCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer disk.Close()

	if err := disk.Set("k", []byte("persisted")); err != nil {
		t.Fatal(err)
	}

	layered := NewLayeredCache(disk)
	got, found := layered.Get("k")
	if !found || string(got) != "persisted" {
		t.Fatalf("expected disk hit through layered cache, got %q found=%v", got, found)
	}

	// After promotion the value survives even if disk loses it.
	if err := disk.Delete("k"); err != nil {
		t.Fatal(err)
	}
	if _, found := layered.Get("k"); !found {
		t.Error("expected memory-promoted hit after disk delete")
	}
}
