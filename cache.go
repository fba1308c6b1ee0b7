package glyphflow

import (
	"encoding/binary"
	"hash/maphash"
	"math"

	"golang.org/x/image/math/fixed"
)

// LookupKey probes an LRUCache for ID without necessarily owning one:
// Eq compares against a stored ID, and ToID is only called on a miss,
// to materialize the ID actually stored. This lets a lookup use a
// borrowed or cheaply-constructed value even when the stored ID would
// need an allocation (e.g. a joined family-name string), following
// parley::lru_cache::LookupKey.
type LookupKey[ID any] interface {
	Eq(ID) bool
	ToID() ID
}

type lruEntry[ID any, T any] struct {
	epoch uint64
	id    ID
	data  T
}

// LRUCache is a small linear-scan cache: a full scan beats a hash map
// once the entry count is in the tens, which is the regime spec §4.10
// targets (shaper state, resolved faces — a handful of distinct
// configurations in flight at once). On a miss with the cache full, the
// entry with the lowest epoch (the one least recently touched) is
// evicted, following parley::lru_cache::LruCache.
type LRUCache[ID any, T any] struct {
	entries    []lruEntry[ID, T]
	epoch      uint64
	maxEntries int
}

// NewLRUCache returns an empty cache holding at most maxEntries.
func NewLRUCache[ID any, T any](maxEntries int) *LRUCache[ID, T] {
	return &LRUCache[ID, T]{maxEntries: maxEntries}
}

// Entry returns the cached data for key, computing and storing it via
// makeData on a miss. A hit stamps the entry with the cache's current
// epoch without advancing it; only a miss advances the epoch, so epoch
// tracks "how many distinct configurations have been seen," not wall
// time or call count.
func (c *LRUCache[ID, T]) Entry(key LookupKey[ID], makeData func() T) *T {
	for i := range c.entries {
		if key.Eq(c.entries[i].id) {
			c.entries[i].epoch = c.epoch
			return &c.entries[i].data
		}
	}
	c.epoch++
	if len(c.entries) < c.maxEntries {
		c.entries = append(c.entries, lruEntry[ID, T]{epoch: c.epoch, id: key.ToID(), data: makeData()})
		return &c.entries[len(c.entries)-1].data
	}
	lowest := 0
	for i := 1; i < len(c.entries); i++ {
		if c.entries[i].epoch < c.entries[lowest].epoch {
			lowest = i
		}
	}
	c.entries[lowest] = lruEntry[ID, T]{epoch: c.epoch, id: key.ToID(), data: makeData()}
	return &c.entries[lowest].data
}

// Len reports the number of live entries, for tests.
func (c *LRUCache[ID, T]) Len() int { return len(c.entries) }

// ShaperStateID keys a cached shaper configuration, per spec §4.10:
// font identity, face index within a variable/collection font, a
// quantized size bucket, and a hash of the active OpenType feature
// set.
type ShaperStateID struct {
	FontID      uint64
	FaceIndex   int
	SizeBucket  int32
	FeatureHash uint64
}

func (k ShaperStateID) Eq(other ShaperStateID) bool { return k == other }
func (k ShaperStateID) ToID() ShaperStateID          { return k }

// SizeBucket quantizes a pixel size to a whole-pixel cache bucket,
// collapsing sub-pixel size jitter (continuous zoom, animated scale)
// so keying shaper state on exact size doesn't thrash the cache every
// frame.
func SizeBucket(sizePx fixed.Int26_6) int32 {
	return int32(sizePx.Round())
}

// ShaperCache is an LRUCache specialized to ShaperStateID, the small
// per-Shaper cache spec §4.10 calls for ("up to ~16 shaper state
// objects").
type ShaperCache[T any] struct {
	cache *LRUCache[ShaperStateID, T]
}

// NewShaperCache returns a ShaperCache holding at most maxEntries
// distinct shaper configurations.
func NewShaperCache[T any](maxEntries int) *ShaperCache[T] {
	return &ShaperCache[T]{cache: NewLRUCache[ShaperStateID, T](maxEntries)}
}

// Get returns the cached state for id, building it with makeData on a
// miss.
func (c *ShaperCache[T]) Get(id ShaperStateID, makeData func() T) *T {
	return c.cache.Entry(id, makeData)
}

// GlyphRunID keys a cached shaped run by a fingerprint of its source
// text and resolved style, following spec §4.10's cache key ("text
// fingerprint, style fingerprint"). The two hashes are computed by
// HashClusterText/HashStyle below.
type GlyphRunID struct {
	TextHash  uint64
	StyleHash uint64
}

func (k GlyphRunID) Eq(other GlyphRunID) bool { return k == other }
func (k GlyphRunID) ToID() GlyphRunID         { return k }

// GlyphRunCache is the small per-Shaper cache of already-shaped Items,
// keyed by GlyphRunID, spec §4.10's second named cache (alongside
// ShaperCache's per-font state).
type GlyphRunCache[T any] struct {
	cache *LRUCache[GlyphRunID, T]
}

// NewGlyphRunCache returns a GlyphRunCache holding at most maxEntries
// shaped runs.
func NewGlyphRunCache[T any](maxEntries int) *GlyphRunCache[T] {
	return &GlyphRunCache[T]{cache: NewLRUCache[GlyphRunID, T](maxEntries)}
}

// Get returns the cached run for id, building it with makeData on a
// miss.
func (c *GlyphRunCache[T]) Get(id GlyphRunID, makeData func() T) *T {
	return c.cache.Entry(id, makeData)
}

// HashClusterText fingerprints an item's source text, following
// text/lru.go's hashGlyphs: a seeded maphash.Hash over the content, so
// the seed (and therefore cache-key stability across a process's
// lifetime) is under this package's control rather than left to Go's
// randomized string hashing.
func HashClusterText(seed maphash.Seed, text string) uint64 {
	var h maphash.Hash
	h.SetSeed(seed)
	h.WriteString(text)
	return h.Sum64()
}

// HashStyle fingerprints the subset of ComputedStyle that affects
// shaping output: font family list, attributes, size, variations,
// features, and locale. Properties that only affect line breaking or
// decoration (word-break, overflow-wrap, underline, …) are deliberately
// excluded, since two spans differing only in those would otherwise
// shape identically and needlessly miss the cache.
func HashStyle(seed maphash.Seed, style ComputedStyle) uint64 {
	var h maphash.Hash
	h.SetSeed(seed)
	var b [8]byte
	for _, f := range style.Families {
		h.WriteString(f)
		h.WriteByte(0)
	}
	binary.LittleEndian.PutUint32(b[:4], math.Float32bits(float32(style.Attrs.Weight)))
	h.Write(b[:4])
	binary.LittleEndian.PutUint32(b[:4], math.Float32bits(float32(style.Attrs.Stretch)))
	h.Write(b[:4])
	b[0] = byte(style.Attrs.Style)
	h.Write(b[:1])
	binary.LittleEndian.PutUint32(b[:4], math.Float32bits(style.SizePx))
	h.Write(b[:4])
	for _, v := range style.Variations {
		h.WriteString(v.Tag)
		binary.LittleEndian.PutUint32(b[:4], math.Float32bits(v.Value))
		h.Write(b[:4])
	}
	for _, f := range style.Features {
		h.WriteString(f.Tag)
		binary.LittleEndian.PutUint16(b[:2], f.Value)
		h.Write(b[:2])
	}
	h.WriteString(string(style.Locale))
	return h.Sum64()
}
