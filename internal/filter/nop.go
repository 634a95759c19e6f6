package filter

import "github.com/xandr001/josh/internal/gitobj"

// nopFilter is the identity filter (I2): its forward/backward maps are
// never materialized: the rewriter never records ":nop" results in the
// cache, and filtercache.Cache.Get answers ":nop" lookups with the source
// OID without consulting any map.
//
// fallback carries the original unparsed text when nopFilter was
// produced by Parse's "unrecognized input" path, so diagnostics can
// report what was actually typed instead of silently reporting ":nop".
type nopFilter struct {
	fallback string
}

// Nop is the canonical identity filter.
var Nop Filter = &nopFilter{}

func (f *nopFilter) ApplyTree(_ *gitobj.Database, treeID []byte) ([]byte, error) {
	return treeID, nil
}

func (f *nopFilter) Unapply(_ *gitobj.Database, filteredTreeID, _ []byte) ([]byte, error) {
	return filteredTreeID, nil
}

func (f *nopFilter) Spec() string { return ":nop" }

// Fallback returns the raw text that failed to parse, or "" if this is a
// genuine ":nop".
func (f *nopFilter) Fallback() string { return f.fallback }

// FallbackOf reports the original unparsed text recorded on f, if f is a
// nop produced by an unrecognized filter spec.
func FallbackOf(f Filter) (string, bool) {
	n, ok := f.(*nopFilter)
	if !ok || n.fallback == "" {
		return "", false
	}
	return n.fallback, true
}
