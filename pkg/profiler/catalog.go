package profiler

import "hash/fnv"

// ScopeKey is a 32-bit hash of a stable textual identifier, conventionally
// "file:line". Equality and hashing are identity on the integer; the
// catalog does not attempt to resolve collisions between distinct source
// sites (spec.md §3, Open Questions).
type ScopeKey uint32

// ScopeInfo is an immutable record created once per ScopeKey. Once returned
// from Catalog.Insert, the pointer remains valid for the rest of the
// process.
type ScopeInfo struct {
	Key      ScopeKey
	Tag      int32
	Name     string
	Function string
	File     string
	Line     uint32
}

// HashFunc computes a 32-bit digest of a scope identifier. The default is
// FNV-1a (hash/fnv), overridable via WithHashFunc.
type HashFunc func(identifier string) ScopeKey

// DefaultHashFunc is the FNV-1a 32-bit hash used unless WithHashFunc
// overrides it.
func DefaultHashFunc(identifier string) ScopeKey {
	h := fnv.New32a()
	_, _ = h.Write([]byte(identifier))
	return ScopeKey(h.Sum32())
}

// Catalog interns ScopeInfo records keyed by ScopeKey, deduplicating on
// insert. Guarded by a spinlock per spec.md §4.2.
type Catalog struct {
	lock  spinlock
	hash  HashFunc
	byKey map[ScopeKey]*ScopeInfo
}

func newCatalog(hash HashFunc) *Catalog {
	if hash == nil {
		hash = DefaultHashFunc
	}
	return &Catalog{
		hash:  hash,
		byKey: make(map[ScopeKey]*ScopeInfo),
	}
}

// Insert computes the ScopeKey for identifier and returns the existing
// ScopeInfo if one is already interned for that key, otherwise creates and
// interns a new one. The identifier is conventionally "file:line" but any
// stable string unique per call site works.
func (c *Catalog) Insert(name, identifier, function, file string, line uint32, tag int32) *ScopeInfo {
	key := c.hash(identifier)

	c.lock.Lock()
	defer c.lock.Unlock()

	if info, ok := c.byKey[key]; ok {
		return info
	}

	info := &ScopeInfo{
		Key:      key,
		Tag:      tag,
		Name:     name,
		Function: function,
		File:     file,
		Line:     line,
	}
	c.byKey[key] = info
	return info
}

// Lookup returns the ScopeInfo for key, if interned.
func (c *Catalog) Lookup(key ScopeKey) (*ScopeInfo, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	info, ok := c.byKey[key]
	return info, ok
}

// snapshotLocked returns a copy of the current key -> ScopeInfo mapping.
// Used by the snapshot extractor, which must already hold c.lock.
func (c *Catalog) snapshotLocked() map[ScopeKey]*ScopeInfo {
	out := make(map[ScopeKey]*ScopeInfo, len(c.byKey))
	for k, v := range c.byKey {
		out[k] = v
	}
	return out
}
