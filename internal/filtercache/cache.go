// Package filtercache implements the persistent (filter-spec, source-oid)
// -> target-oid map (§4.3), grounded directly on the original
// implementation's filter_cache.rs: the same get/has/set/merge/
// try_merge_both shape, the same ":nop" short-circuit, and the same
// "discard on lock contention" semantics for merging a session cache
// back into the global one.
package filtercache

import (
	"sync"

	"github.com/xandr001/josh/internal/gitobj"
)

// FormatVersion is bumped whenever the persisted encoding changes shape;
// a mismatch on load resets the cache rather than attempting to migrate
// it (I4).
const FormatVersion uint64 = 2

// oidKey is a fixed-size, comparable stand-in for a 20-byte OID so it
// can key a Go map (byte slices can't).
type oidKey [gitobj.OidLen]byte

func toKey(oid []byte) oidKey {
	var k oidKey
	copy(k[:], oid)
	return k
}

func fromKey(k oidKey) []byte {
	oid := make([]byte, gitobj.OidLen)
	copy(oid, k[:])
	return oid
}

type oidMap map[oidKey]oidKey

// Cache is one layer of the two-layer (session-over-global) filter
// cache. A Cache with a non-nil upstream is a session cache; the
// process-wide singleton has upstream == nil.
type Cache struct {
	mu       sync.RWMutex
	maps     map[string]oidMap
	version  uint64
	upstream *Cache
}

// New returns an empty, versioned, upstream-less Cache — the shape a
// freshly started process or a reset-after-version-mismatch uses.
func New() *Cache {
	return &Cache{maps: make(map[string]oidMap), version: FormatVersion}
}

// NewSession returns a Cache that defers to upstream on miss, the shape
// spawned once per filtering run (§4.3, §4.4).
func NewSession(upstream *Cache) *Cache {
	return &Cache{maps: make(map[string]oidMap), version: FormatVersion, upstream: upstream}
}

// Set records spec/from -> to in the receiver's own map only.
func (c *Cache) Set(spec string, from, to []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.maps[spec]
	if !ok {
		m = make(oidMap)
		c.maps[spec] = m
	}
	m[toKey(from)] = toKey(to)
}

// Get returns the cached target for (spec, from): the session's own
// entry if present, else the upstream's, with ":nop" short-circuiting to
// from before any map is consulted. An ultimate miss returns
// gitobj.ZeroOid.
func (c *Cache) Get(spec string, from []byte) []byte {
	if spec == ":nop" {
		return from
	}
	c.mu.RLock()
	if m, ok := c.maps[spec]; ok {
		if to, ok := m[toKey(from)]; ok {
			c.mu.RUnlock()
			return fromKey(to)
		}
	}
	c.mu.RUnlock()

	if c.upstream != nil {
		return c.upstream.Get(spec, from)
	}
	return gitobj.CopyOid(gitobj.ZeroOid)
}

// ObjectExister is the narrow slice of objstore.Store / gitobj.Database
// Has needs: "does this object exist", used to force a rebuild after an
// external GC collected a previously filtered commit (I1).
type ObjectExister interface {
	OdbExists(oid []byte) bool
}

// Has reports whether (spec, from) is recorded AND its recorded target
// is either the zero OID (a legitimately empty filter result, which
// never needs to exist) or actually present in odb.
func (c *Cache) Has(odb ObjectExister, spec string, from []byte) bool {
	c.mu.RLock()
	m, ok := c.maps[spec]
	if ok {
		to, ok := m[toKey(from)]
		c.mu.RUnlock()
		if ok {
			target := fromKey(to)
			return gitobj.IsZeroOid(target) || odb.OdbExists(target)
		}
		if c.upstream != nil {
			return c.upstream.Has(odb, spec, from)
		}
		return false
	}
	c.mu.RUnlock()
	if c.upstream != nil {
		return c.upstream.Has(odb, spec, from)
	}
	return false
}

// Merge unions other's entries into the receiver, per filter-spec. On a
// key collision the receiver's existing value wins, preserving whatever
// was already validated there.
func (c *Cache) Merge(other *Cache) {
	other.mu.RLock()
	snapshot := make(map[string]oidMap, len(other.maps))
	for spec, m := range other.maps {
		cp := make(oidMap, len(m))
		for k, v := range m {
			cp[k] = v
		}
		snapshot[spec] = cp
	}
	other.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	for spec, om := range snapshot {
		m, ok := c.maps[spec]
		if !ok {
			m = make(oidMap, len(om))
			c.maps[spec] = m
		}
		for k, v := range om {
			if _, exists := m[k]; !exists {
				m[k] = v
			}
		}
	}
}

// Stats reports, per filter-spec with more than one entry, how many
// entries it holds, plus a "total" key summing them — the diagnostic
// shape the /filters endpoint renders.
func (c *Cache) Stats() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]int)
	total := 0
	for spec, m := range c.maps {
		if len(m) > 1 {
			out[spec] = len(m)
			total += len(m)
		}
	}
	out["total"] = total
	return out
}
