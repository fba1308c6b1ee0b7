package font

import "testing"

func TestSourceCacheMemorySourceNeverCached(t *testing.T) {
	c := NewSourceCache(SourceCacheOptions{})
	blob, err := c.Get(Source{ID: 1, Data: []byte("hello")})
	if err != nil {
		t.Fatal(err)
	}
	if string(blob.Data) != "hello" {
		t.Fatalf("got %q", blob.Data)
	}
}

func TestSourceCacheFailedLoadIsSticky(t *testing.T) {
	c := NewSourceCache(SourceCacheOptions{})
	_, err1 := c.Get(Source{ID: 2, Path: "/nonexistent/path/does/not/exist.ttf"})
	_, err2 := c.Get(Source{ID: 2, Path: "/nonexistent/path/does/not/exist.ttf"})
	if err1 == nil || err2 == nil {
		t.Fatal("expected both loads to fail")
	}
	if _, ok := c.local[2]; !ok {
		t.Fatal("expected a sentinel failed entry to be cached")
	}
}

func TestSourceCachePruneEvictsFailedOnlyWhenRequested(t *testing.T) {
	c := NewSourceCache(SourceCacheOptions{})
	c.Get(Source{ID: 3, Path: "/nonexistent.ttf"})

	c.Prune(1, false)
	if _, ok := c.local[3]; !ok {
		t.Fatal("failed entry should survive prune(pruneFailed=false)")
	}

	c.Prune(1, true)
	if _, ok := c.local[3]; ok {
		t.Fatal("failed entry should be evicted by prune(pruneFailed=true)")
	}
}

func TestSourceCacheSharedModeDeduplicatesAcrossInstances(t *testing.T) {
	sharedStore.mu.Lock()
	sharedStore.entries = make(map[SourceID]*cacheEntry)
	sharedStore.serial = 0
	sharedStore.mu.Unlock()

	a := NewSourceCache(SourceCacheOptions{Shared: true})
	b := NewSourceCache(SourceCacheOptions{Shared: true})

	src := Source{ID: 42, Path: "/nonexistent-shared.ttf"}
	a.Get(src)
	if _, ok := sharedStore.entries[42]; !ok {
		t.Fatal("expected shared store to hold entry after first load")
	}
	b.Get(src)
	if _, ok := b.local[42]; !ok {
		t.Fatal("expected second cache to adopt the shared entry into its local view")
	}
}
