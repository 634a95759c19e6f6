package filtercache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xandr001/josh/internal/gitobj"
)

type fakeOdb struct{ present map[string]bool }

func (f *fakeOdb) OdbExists(oid []byte) bool {
	return f.present[gitobj.OidString(oid)]
}

func oid(b byte) []byte {
	o := make([]byte, gitobj.OidLen)
	o[gitobj.OidLen-1] = b
	return o
}

func TestNopShortCircuits(t *testing.T) {
	c := New()
	from := oid(7)
	require.Equal(t, from, c.Get(":nop", from))
}

func TestSetGet(t *testing.T) {
	c := New()
	c.Set(":/a", oid(1), oid(2))
	require.Equal(t, oid(2), c.Get(":/a", oid(1)))
	require.True(t, gitobj.IsZeroOid(c.Get(":/a", oid(99))))
}

func TestSessionFallsBackToGlobal(t *testing.T) {
	global := New()
	global.Set(":/a", oid(1), oid(2))
	session := NewSession(global)

	require.Equal(t, oid(2), session.Get(":/a", oid(1)))

	session.Set(":/a", oid(3), oid(4))
	require.Equal(t, oid(4), session.Get(":/a", oid(3)))
	require.True(t, gitobj.IsZeroOid(global.Get(":/a", oid(3))), "session writes stay local until merged")
}

func TestHasRequiresObjectStillExists(t *testing.T) {
	c := New()
	odb := &fakeOdb{present: map[string]bool{}}
	c.Set(":/a", oid(1), oid(2))

	require.False(t, c.Has(odb, ":/a", oid(1)), "target was GC'd")

	odb.present[gitobj.OidString(oid(2))] = true
	require.True(t, c.Has(odb, ":/a", oid(1)))
}

func TestHasZeroTargetNeedsNoObject(t *testing.T) {
	c := New()
	odb := &fakeOdb{present: map[string]bool{}}
	c.Set(":/a", oid(1), gitobj.ZeroOid)
	require.True(t, c.Has(odb, ":/a", oid(1)))
}

func TestMergeKeepsReceiverOnConflict(t *testing.T) {
	a := New()
	a.Set(":/x", oid(1), oid(2))
	b := New()
	b.Set(":/x", oid(1), oid(99))
	b.Set(":/x", oid(5), oid(6))

	a.Merge(b)
	require.Equal(t, oid(2), a.Get(":/x", oid(1)), "receiver wins on overlap")
	require.Equal(t, oid(6), a.Get(":/x", oid(5)))
}

func TestTryMergeBothDiscardsOnContention(t *testing.T) {
	gf, gb := New(), New()
	sf, sb := New(), New()
	sf.Set(":/a", oid(1), oid(2))
	sb.Set(":/a", oid(2), oid(1))

	gf.mu.Lock()
	merged := TryMergeBoth(gf, gb, sf, sb)
	gf.mu.Unlock()

	require.False(t, merged)
	require.True(t, gitobj.IsZeroOid(gf.Get(":/a", oid(1))))
}

func TestTryMergeBothSucceeds(t *testing.T) {
	gf, gb := New(), New()
	sf, sb := New(), New()
	sf.Set(":/a", oid(1), oid(2))
	sb.Set(":/a", oid(2), oid(1))

	merged := TryMergeBoth(gf, gb, sf, sb)
	require.True(t, merged)
	require.Equal(t, oid(2), gf.Get(":/a", oid(1)))
	require.Equal(t, oid(1), gb.Get(":/a", oid(2)))
}

func TestPersistAndTryLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "josh_forward_maps")
	c := New()
	c.Set(":/a", oid(1), oid(2))
	c.Set(":/a", oid(3), oid(4))

	require.NoError(t, Persist(c, path))

	loaded := TryLoad(path)
	require.Equal(t, oid(2), loaded.Get(":/a", oid(1)))
	require.Equal(t, oid(4), loaded.Get(":/a", oid(3)))
}

func TestTryLoadMissingFileReturnsFresh(t *testing.T) {
	c := TryLoad(filepath.Join(t.TempDir(), "does_not_exist"))
	require.True(t, gitobj.IsZeroOid(c.Get(":/a", oid(1))))
}

func TestTryLoadVersionMismatchResets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "josh_forward_maps")
	c := New()
	c.version = FormatVersion + 1
	c.Set(":/a", oid(1), oid(2))
	require.NoError(t, Persist(c, path))

	loaded := TryLoad(path)
	require.True(t, gitobj.IsZeroOid(loaded.Get(":/a", oid(1))), "version mismatch must reset, not load stale data")
}
