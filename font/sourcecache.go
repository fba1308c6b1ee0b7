package font

import (
	"os"
	"sync"
)

// Blob is a loaded, immutable font file payload. Readers never mutate
// it; the cache may hand the same Blob to multiple callers.
type Blob struct {
	Data  []byte
	Index int
}

// Source identifies where a font blob should be loaded from: either a
// path on disk or an in-memory byte slice, either way keyed by a
// stable SourceID supplied by the caller.
type Source struct {
	ID    SourceID
	Path  string // empty if Data is set
	Data  []byte // in-memory source; always returned immediately, never cached as "failed"
	Index int
}

type cacheEntryState int

const (
	stateLoaded cacheEntryState = iota
	stateFailed
)

type cacheEntry struct {
	state  cacheEntryState
	blob   *Blob
	serial uint64
}

// SourceCacheOptions configures a SourceCache.
type SourceCacheOptions struct {
	// Shared, when true, backs this cache with a process-wide store
	// guarded by a mutex so independent layouts avoid re-loading the
	// same font file. When false the cache is private to its owner.
	Shared bool
}

var sharedStore = struct {
	mu      sync.Mutex
	entries map[SourceID]*cacheEntry
	serial  uint64
}{entries: make(map[SourceID]*cacheEntry)}

// SourceCache memoizes loaded font blobs by SourceID, with age-based
// eviction driven by an incrementing serial. A private cache never
// touches the shared store; a shared cache consults (and populates) it
// under a brief lock, never holding the lock while returning a hit.
type SourceCache struct {
	local  map[SourceID]*cacheEntry
	shared bool
	serial uint64
}

// NewSourceCache creates a SourceCache per opts.
func NewSourceCache(opts SourceCacheOptions) *SourceCache {
	return &SourceCache{
		local:  make(map[SourceID]*cacheEntry),
		shared: opts.Shared,
	}
}

// Get resolves src to a Blob, loading and caching it on first use. A
// second error return reports a load failure (remembered as a
// sentinel so repeated lookups don't retry I/O).
func (c *SourceCache) Get(src Source) (*Blob, error) {
	if src.Data != nil {
		return &Blob{Data: src.Data, Index: src.Index}, nil
	}
	if e, ok := c.local[src.ID]; ok {
		e.serial = c.serial
		if e.state == stateFailed {
			return nil, os.ErrNotExist
		}
		return e.blob, nil
	}
	if c.shared {
		return c.getShared(src)
	}
	return c.load(src, c.local)
}

func (c *SourceCache) getShared(src Source) (*Blob, error) {
	sharedStore.mu.Lock()
	e, ok := sharedStore.entries[src.ID]
	if ok {
		e.serial = sharedStore.serial
	}
	sharedStore.mu.Unlock()
	if ok {
		if e.state == stateFailed {
			return nil, os.ErrNotExist
		}
		c.local[src.ID] = e
		return e.blob, nil
	}

	blob, err := loadBlob(src)
	sharedStore.mu.Lock()
	entry := &cacheEntry{serial: sharedStore.serial}
	if err != nil {
		entry.state = stateFailed
	} else {
		entry.blob = blob
	}
	sharedStore.entries[src.ID] = entry
	sharedStore.mu.Unlock()
	c.local[src.ID] = entry
	return entry.blob, err
}

func (c *SourceCache) load(src Source, into map[SourceID]*cacheEntry) (*Blob, error) {
	blob, err := loadBlob(src)
	entry := &cacheEntry{serial: c.serial}
	if err != nil {
		entry.state = stateFailed
	} else {
		entry.blob = blob
	}
	into[src.ID] = entry
	return blob, err
}

func loadBlob(src Source) (*Blob, error) {
	data, err := os.ReadFile(src.Path)
	if err != nil {
		return nil, err
	}
	return &Blob{Data: data, Index: src.Index}, nil
}

// Prune evicts entries at least maxAge generations old (measured against
// the cache's own serial, bumped by this call). Failed sentinel
// entries are kept (to continue suppressing retries) unless
// pruneFailed is true.
func (c *SourceCache) Prune(maxAge uint64, pruneFailed bool) {
	c.serial++
	for id, e := range c.local {
		if e.state == stateFailed {
			if pruneFailed {
				delete(c.local, id)
			}
			continue
		}
		if c.serial-e.serial >= maxAge {
			delete(c.local, id)
		}
	}
	if c.shared {
		sharedStore.mu.Lock()
		sharedStore.serial++
		for id, e := range sharedStore.entries {
			if e.state == stateFailed {
				if pruneFailed {
					delete(sharedStore.entries, id)
				}
				continue
			}
			if sharedStore.serial-e.serial >= maxAge {
				delete(sharedStore.entries, id)
			}
		}
		sharedStore.mu.Unlock()
	}
}
