package filtercache

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/xandr001/josh/internal/joshrr"
)

// fileFormat is the on-disk shape of a Cache: a gob-encoded, gzip-
// compressed snapshot of its maps, versioned the same way the teacher's
// own persisted caches are versioned.
type fileFormat struct {
	Version uint64
	Maps    map[string]oidMap
}

// Persist writes c to path atomically (write-to-temp, rename), so a
// crash mid-write leaves either the previous file or the new one intact,
// never a half-written one.
func Persist(c *Cache, path string) error {
	c.mu.RLock()
	snap := fileFormat{Version: c.version, Maps: make(map[string]oidMap, len(c.maps))}
	for spec, m := range c.maps {
		cp := make(oidMap, len(m))
		for k, v := range m {
			cp[k] = v
		}
		snap.Maps[spec] = cp
	}
	c.mu.RUnlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return joshrr.CacheErrorf(err, "create cache directory %s", dir)
	}
	tmp, err := os.CreateTemp(dir, "filtercache_")
	if err != nil {
		return joshrr.CacheErrorf(err, "create temp cache file")
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	gw := gzip.NewWriter(tmp)
	if err := gob.NewEncoder(gw).Encode(snap); err != nil {
		return joshrr.CacheErrorf(err, "encode cache")
	}
	if err := gw.Close(); err != nil {
		return joshrr.CacheErrorf(err, "flush cache")
	}
	if err := tmp.Close(); err != nil {
		return joshrr.CacheErrorf(err, "close temp cache file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return joshrr.CacheErrorf(err, "rename cache into place")
	}
	return nil
}

// TryLoad loads path, falling back to a fresh empty Cache on any read,
// decode, or version-mismatch failure (I4) — the cache is a hint, never
// a ledger that must be correct to make progress.
func TryLoad(path string) *Cache {
	f, err := os.Open(path)
	if err != nil {
		return New()
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return New()
	}
	defer gr.Close()

	var snap fileFormat
	if err := gob.NewDecoder(gr).Decode(&snap); err != nil {
		return New()
	}
	if snap.Version != FormatVersion {
		return New()
	}

	c := New()
	if snap.Maps != nil {
		c.maps = snap.Maps
	}
	c.version = snap.Version
	return c
}

// fmtSize renders a byte count in MiB for startup logging, mirroring the
// original implementation's load/persist log lines.
func fmtSize(path string) string {
	fi, err := os.Stat(path)
	if err != nil {
		return "0 MiB"
	}
	return fmt.Sprintf("%d MiB", fi.Size()/(1024*1024))
}
