package namespace

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xandr001/josh/internal/gitobj"
	"github.com/xandr001/josh/internal/objstore"
)

func TestAcquireReleaseDeletesScopedRefs(t *testing.T) {
	store, err := objstore.Open(filepath.Join(t.TempDir(), "repo.git"))
	require.NoError(t, err)
	defer store.Close()

	h := Acquire(store)
	oid := make([]byte, gitobj.OidLen)
	oid[0] = 1
	require.NoError(t, store.WriteRef(h.Ref("heads/master"), oid))

	names, err := store.ListRefs(h.Prefix())
	require.NoError(t, err)
	require.Len(t, names, 1)

	require.NoError(t, h.Release())

	names, err = store.ListRefs(h.Prefix())
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestReleaseIsIdempotent(t *testing.T) {
	store, err := objstore.Open(filepath.Join(t.TempDir(), "repo.git"))
	require.NoError(t, err)
	defer store.Close()

	h := Acquire(store)
	require.NoError(t, h.Release())
	require.NoError(t, h.Release())
}

func TestTwoAcquisitionsDoNotCollide(t *testing.T) {
	store, err := objstore.Open(filepath.Join(t.TempDir(), "repo.git"))
	require.NoError(t, err)
	defer store.Close()

	a, b := Acquire(store), Acquire(store)
	require.NotEqual(t, a.ID(), b.ID())
	require.NotEqual(t, a.Prefix(), b.Prefix())
}
